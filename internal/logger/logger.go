// Package logger configures the global zerolog logger from command line options.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger holds logging flags, meant to be embedded as a go-flags group.
type Logger struct {
	Level  string `long:"log-level"  env:"LOG_LEVEL"  description:"Log level" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal" choice:"panic" default:"info"`
	Format string `long:"log-format" env:"LOG_FORMAT" description:"Log output format" choice:"console" choice:"json" default:"console"`
	File   string `long:"log-file"   env:"LOG_FILE"   description:"Append logs to this file instead of stderr"`
}

// Setup applies the options to the global logger.
// Problems opening the log file are reported on stderr and logging continues there.
func (l *Logger) Setup() {
	level, err := zerolog.ParseLevel(l.Level)
	if err != nil || l.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stderr
	var fileErr error
	if l.File != "" {
		if f, err := openLogFile(l.File); err != nil {
			fileErr = err
		} else {
			out = f
		}
	}

	log.Logger = New(out, l.Format)

	if fileErr != nil {
		log.Error().Err(fileErr).Str("path", l.File).Msg("Failed to open log file")
	}
}

// New builds a logger writing to w in the given format.
func New(w io.Writer, format string) zerolog.Logger {
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime, NoColor: w != os.Stderr}
	}

	return zerolog.New(w).With().Timestamp().Logger()
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}
