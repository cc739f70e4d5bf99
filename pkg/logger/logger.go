package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log discards everything until Init, which keeps tests quiet.
var Log = zerolog.Nop()

// Init switches Log to human readable output in development and JSON lines
// everywhere else. Debug level is only enabled in development.
func Init(env string) {
	Log = New(env, os.Stdout)
}

// New builds the logger Init installs, writing to w.
func New(env string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Caller().
			Logger()
	}
	return zerolog.New(w).
		Level(zerolog.InfoLevel).
		With().Timestamp().Str("service", "shok").
		Logger()
}

// Component returns a child of Log tagged with name. Children made before
// Init keep discarding.
func Component(name string) zerolog.Logger {
	return Log.With().Str("component", name).Logger()
}

func Info() *zerolog.Event  { return Log.Info() }
func Error() *zerolog.Event { return Log.Error() }
func Warn() *zerolog.Event  { return Log.Warn() }
func Debug() *zerolog.Event { return Log.Debug() }
func Fatal() *zerolog.Event { return Log.Fatal() }
