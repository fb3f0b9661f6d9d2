package middleware

import (
	"net/http"

	"github.com/m1z23r/drift/pkg/drift"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/work-hours/work-hours-sub001/internal/middleware"

// Tracing starts a server span per request, continuing any incoming trace context.
func Tracing(tp trace.TracerProvider) drift.HandlerFunc {
	tracer := tp.Tracer(tracerName)

	return func(c *drift.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		ctx, span := tracer.Start(ctx, c.Method()+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(c.Method()),
				semconv.HTTPRoute(route),
				semconv.URLPath(c.Path()),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		rec := recordStatus(c)

		c.Next()

		span.SetAttributes(semconv.HTTPResponseStatusCode(rec.status))
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
	}
}
