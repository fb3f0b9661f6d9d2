package middleware

import (
	"bufio"
	"net"
	"net/http"

	"github.com/m1z23r/drift/pkg/drift"
)

// statusRecorder remembers the status written through the response. It keeps the
// Flusher and Hijacker behaviour SSE and WebSocket handlers rely on.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wrote {
		r.status = code
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wrote {
		r.status = http.StatusOK
		r.wrote = true
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	r.status = http.StatusSwitchingProtocols
	r.wrote = true
	return hj.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// recordStatus wraps the response once per request and returns the shared recorder.
func recordStatus(c *drift.Context) *statusRecorder {
	if rec, ok := c.Response.(*statusRecorder); ok {
		return rec
	}
	rec := &statusRecorder{ResponseWriter: c.Response, status: http.StatusOK}
	c.Response = rec
	return rec
}
