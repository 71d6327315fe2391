package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/tripgauge/tripgauge/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:  "tripgauge-test",
		Environment:  "test",
		OTLPEndpoint: "localhost:4317",
	})
	require.NoError(t, err)

	assert.False(t, provider.Enabled())
	assert.NoError(t, provider.Shutdown(ctx))

	// Propagation works without exporters so upstream trace IDs still reach logs.
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestProvider_ZeroValueShutdown(t *testing.T) {
	assert.NoError(t, (&telemetry.Provider{}).Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	tests := []struct {
		name     string
		ratio    float64
		contains string
	}{
		{"zero keeps all", 0, "AlwaysOnSampler"},
		{"one keeps all", 1, "AlwaysOnSampler"},
		{"negative keeps all", -0.5, "AlwaysOnSampler"},
		{"fraction", 0.25, "TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := telemetry.Sampler(tt.ratio).Description()
			assert.Contains(t, desc, "ParentBased")
			assert.Contains(t, desc, tt.contains)
		})
	}
}
