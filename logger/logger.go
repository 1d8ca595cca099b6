package logger

import (
	"context"
	"os"
	"time"

	"doctorsportal/globals"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. Development gets a console
// writer, everything else JSON lines.
func Init(service string, dev bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if dev {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().
			Str("service", service).
			Logger()
		return
	}

	log.Logger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Str("service", service).
		Logger()
}

// FromContext returns the global logger tagged with the request id, if any.
func FromContext(ctx context.Context) *zerolog.Logger {
	l := log.With().Logger()
	if rid, ok := ctx.Value(globals.RequestIDKey).(string); ok && rid != "" {
		l = l.With().Str("request_id", rid).Logger()
	}
	return &l
}
