package telemetry

import (
	"context"
	"testing"

	"github.com/raushankrgupta/tailor-connect/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), "test", config.TelemetryConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestEndpointsPreferSignalSpecific(t *testing.T) {
	cfg := config.TelemetryConfig{OTLPEndpoint: "collector:4317", OTLPMetricsEndpoint: "metrics:4317"}
	assert.True(t, Enabled(cfg))

	traces, metrics := endpoints(cfg)
	assert.Equal(t, "collector:4317", traces)
	assert.Equal(t, "metrics:4317", metrics)
}
