package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// SetupLogger builds a zerolog logger from the configured level and
// format.
//   - level: trace, debug, info, warn, error, fatal, panic
//   - format: "json" for machine output, "pretty" for human-readable
//
// Log output goes to stderr so it never interleaves with the exercise
// frontend on stdout.
func (c *Config) SetupLogger() zerolog.Logger {
	var writer io.Writer

	if c.LogFormat == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	} else {
		writer = os.Stderr
	}

	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		lvl = zerolog.WarnLevel
	}

	return zerolog.New(writer).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
