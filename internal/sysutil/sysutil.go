// Package sysutil holds process-level helpers used by the server binary.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel sets the global zerolog level from a name such as "debug" or
// "warn". Unknown or empty names fall back to info. It returns the level
// actually applied.
func SetLogLevel(lvl string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(lvl))
	if name == "warning" {
		name = "warn"
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil || name == "" || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	return level
}

// ConfigureLogger installs the global logger. Pretty output goes through a
// console writer for local development; otherwise JSON lines are written.
func ConfigureLogger(w io.Writer, level string, pretty bool) zerolog.Level {
	if w == nil {
		w = os.Stdout
	}
	applied := SetLogLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Str("service", "companion").Logger()
	return applied
}

// FirstNonEmpty returns the first value that is not blank, unchanged, or ""
// when every value is blank.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
