// Package logger builds the root zerolog logger every component logger in
// the process derives from via log.With().Str("component", ...).
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Setup configures the global level and returns the root logger.
// format "pretty" writes human-readable console output to stderr for
// development; anything else writes JSON lines to stdout. An unknown level
// string falls back to info.
func Setup(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var root zerolog.Logger
	if strings.EqualFold(format, "pretty") {
		root = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	} else {
		root = zerolog.New(os.Stdout)
	}
	return root.With().Timestamp().Logger()
}
