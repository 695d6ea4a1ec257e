package observability

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger.
// APP_ENV=dev (or development, local) uses a human-friendly console writer.
func NewLogger(env string) zerolog.Logger {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Str("svc", "reviews-dashboard").Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Str("svc", "reviews-dashboard").Logger()
}
