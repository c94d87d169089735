// Package config holds runtime settings for the registration CLI.
// Values are layered: defaults, then an optional JSON file, then flags.
package config

import (
	"flag"
	"io"

	"github.com/pkg/errors"
)

// Config holds runtime settings.
//
// Fields:
//   - DatabaseDSN: path of the SQLite file holding the users table.
//   - LogLevel: logrus level name ("debug", "info", ...).
//   - LogFormat: "text" or "json".
type Config struct {
	DatabaseDSN string
	LogLevel    string
	LogFormat   string
}

// LoadDefaults populates Config with defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "users.db"
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig builds a Config from args (without the program name) and returns
// the positional arguments left after the flags.
func LoadConfig(args []string, output io.Writer) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	fs := flag.NewFlagSet("registration", flag.ContinueOnError)
	fs.SetOutput(output)

	configFile := fs.String("c", "", "path to a JSON config file")
	dsn := fs.String("d", "", "database file")
	level := fs.String("l", "", "log level")
	format := fs.String("f", "", "log format (text or json)")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if *configFile != "" {
		if err := parseJson(cfg, *configFile); err != nil {
			return nil, nil, err
		}
	}

	// flags win over the JSON file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "d":
			cfg.DatabaseDSN = *dsn
		case "l":
			cfg.LogLevel = *level
		case "f":
			cfg.LogFormat = *format
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, fs.Args(), nil
}

// Validate checks values that cannot be caught by flag parsing.
func (c *Config) Validate() error {
	if c.DatabaseDSN == "" {
		return errors.New("database file must not be empty")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}
