// Package logging builds the logrus logger shared by the CLI and the store.
package logging

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// NewLogger returns a logger writing to out at the given level.
// format is "text" or "json".
func NewLogger(level, format string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "parse log level")
	}

	log := logrus.New()
	log.Out = out
	log.Level = lvl

	switch format {
	case "json":
		log.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "severity",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		}
	case "text", "":
		log.Formatter = &logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		}
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}

	return log, nil
}
