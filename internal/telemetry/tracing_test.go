package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/work-hours/work-hours-sub001/internal/config"
	"go.opentelemetry.io/otel"
)

func TestSampler(t *testing.T) {
	tests := []struct {
		name, arg, want string
	}{
		{"always_on", "", "AlwaysOnSampler"},
		{"always_off", "", "AlwaysOffSampler"},
		{"traceidratio", "0.5", "TraceIDRatioBased{0.5}"},
		{"parentbased_traceidratio", "0.25", "ParentBased{root:TraceIDRatioBased{0.25}"},
		{"parentbased_traceidratio", "nope", "ParentBased{root:AlwaysOnSampler"},
		{"unknown", "", "ParentBased{root:AlwaysOnSampler"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.arg, func(t *testing.T) {
			assert.Contains(t, Sampler(tt.name, tt.arg).Description(), tt.want)
		})
	}
}

func TestInitTracing_Disabled(t *testing.T) {
	var buf bytes.Buffer

	shutdown, err := InitTracing(context.Background(), config.TracingConfig{Disabled: true}, zerolog.New(&buf))

	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"tracing_enabled":false`)
	assert.NotNil(t, otel.GetTextMapPropagator())
}

func TestInitTracing_UnsupportedProtocolDegrades(t *testing.T) {
	var buf bytes.Buffer

	shutdown, err := InitTracing(context.Background(), config.TracingConfig{
		ServiceName: "test", Protocol: "carrier-pigeon",
	}, zerolog.New(&buf))

	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "unsupported OTLP protocol")
}
