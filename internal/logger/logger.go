package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/work-hours/work-hours-sub001/internal/config"
)

// New builds the process logger and installs it as the zerolog global.
func New(cfg *config.Config) zerolog.Logger {
	return newWithWriter(cfg, os.Stdout)
}

func newWithWriter(cfg *config.Config, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(out).With().Timestamp().Str("service", "workhours-api").Logger()
	}

	if cfg.IsProduction() {
		logger = logger.Level(zerolog.InfoLevel)
	}

	log.Logger = logger
	return logger
}
