package logging

import (
	"os"

	"github.com/rs/zerolog"

	"downtimelog/config"
)

// NewLogger creates the root structured logger. The level comes from
// the config and falls back to info when unparseable.
func NewLogger(cfg config.Config) zerolog.Logger {
	ctx := zerolog.New(os.Stdout).With().Timestamp()

	if cfg.AppName != "" {
		ctx = ctx.Str("service", cfg.AppName)
	}

	logger := ctx.Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
