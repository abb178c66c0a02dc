package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitTracerProvider(t *testing.T) {
	tp, err := InitTracerProvider(context.Background(), Config{
		ServiceName: "politeping-test",
		Environment: "test",
	})
	require.NoError(t, err)
	require.NotNil(t, tp)
	defer func() { require.NoError(t, tp.Shutdown(context.Background())) }()

	require.Same(t, otel.GetTracerProvider(), tp)

	_, span := tp.Tracer("telemetry-test").Start(context.Background(), "check")
	require.True(t, span.SpanContext().IsValid())
	span.End()
}

func TestSamplerSelection(t *testing.T) {
	t.Parallel()

	full := Config{}.sampler()
	require.Equal(t, sdktrace.ParentBased(sdktrace.AlwaysSample()).Description(), full.Description())

	partial := Config{SampleRatio: 0.25}.sampler()
	require.Equal(t, sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.25)).Description(), partial.Description())
}
