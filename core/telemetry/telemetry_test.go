package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, "infra-inventory", "test")
	assert.ErrorIs(t, err, ErrDisabled)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_Enabled(t *testing.T) {
	// The gRPC exporter connects lazily, so no collector is needed to build the pipeline.
	shutdown, err := Setup(context.Background(), Config{
		OTLPEndpoint:   "127.0.0.1:4317",
		ExportInterval: time.Hour,
		Insecure:       true,
	}, "infra-inventory", "test")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}
