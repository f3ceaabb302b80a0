// Package logger provides zerolog setup shared by the service entry point
// and tests.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New creates a console logger at the given level. Unknown levels fall back
// to "info".
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
