package util

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/chapool/go-txenvelope/internal/config"
)

// LogFromContext returns the logger attached to ctx, or the global logger if none is.
func LogFromContext(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled || l == zerolog.DefaultContextLogger {
		return &log.Logger
	}

	return l
}

// ConfigureLogger sets the global level and output from the logger config.
func ConfigureLogger(cfg config.LoggerServer) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(cfg.Level)

	if cfg.PrettyPrintConsole {
		log.Logger = log.Output(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stderr
			w.TimeFormat = "15:04:05"
		}))
		return
	}

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
