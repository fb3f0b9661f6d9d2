package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog"
)

// Logger writes one structured line per request.
func Logger(log zerolog.Logger) drift.HandlerFunc {
	return func(c *drift.Context) {
		start := time.Now()
		rec := recordStatus(c)

		c.Next()

		var event *zerolog.Event
		switch {
		case rec.status >= 500:
			event = log.Error()
		case rec.status >= 400:
			event = log.Warn()
		default:
			event = log.Info()
		}

		if userID := GetUserID(c); userID != uuid.Nil {
			event = event.Str("user_id", userID.String())
		}

		event.
			Str("request_id", GetRequestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", rec.status).
			Float64("latency_ms", float64(time.Since(start).Microseconds())/1000).
			Msg("request")
	}
}
