package observability

import (
	"os"
	"time"

	zerologadapter "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger.
// APP_ENV=dev (or development) uses a human-friendly console writer.
func NewLogger(env string) zerolog.Logger {
	l := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if IsDev(env) {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return l
}

func IsDev(env string) bool { return env == "dev" || env == "development" }

// NewQueryTracer logs every pgx statement with its args through l.
func NewQueryTracer(l zerolog.Logger) *tracelog.TraceLog {
	return &tracelog.TraceLog{
		Logger:   zerologadapter.NewLogger(l.With().Str("component", "pgx").Logger()),
		LogLevel: tracelog.LogLevelDebug,
	}
}
