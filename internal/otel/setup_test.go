package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporterFor(t *testing.T) {
	assert.Equal(t, ExporterOTLP, ExporterFor(true))
	assert.Equal(t, ExporterStdout, ExporterFor(false))
}

func TestSetupOTelSDK(t *testing.T) {
	ctx := context.Background()

	for _, exporter := range []Exporter{ExporterNone, ExporterStdout} {
		shutdown, err := SetupOTelSDK(ctx, exporter, "scoringapi-test")
		require.NoError(t, err, exporter)
		require.NoError(t, shutdown(ctx), exporter)
		// a second shutdown is a no-op
		require.NoError(t, shutdown(ctx), exporter)
	}
}

func TestSetupOTelSDKUnknownExporter(t *testing.T) {
	_, err := SetupOTelSDK(context.Background(), "zipkin", "scoringapi-test")
	assert.ErrorIs(t, err, ErrUnknownExporter)
}
