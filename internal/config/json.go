package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// JsonConfig is the on-disk shape of the optional config file.
// Empty fields leave the current value untouched.
type JsonConfig struct {
	DatabaseDSN string `json:"database_dsn"`
	LogLevel    string `json:"log_level"`
	LogFormat   string `json:"log_format"`
}

func parseJson(config *Config, path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config file")
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return errors.Wrapf(err, "parse config file %s", path)
	}

	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
	if c.LogFormat != "" {
		config.LogFormat = c.LogFormat
	}
	return nil
}
