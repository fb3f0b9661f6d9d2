package middleware

import (
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
)

// RequestID keeps an incoming X-Request-ID or generates one, and echoes it back.
func RequestID() drift.HandlerFunc {
	return func(c *drift.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func GetRequestID(c *drift.Context) string {
	return c.GetString(RequestIDKey)
}
