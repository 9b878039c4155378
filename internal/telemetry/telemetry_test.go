package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func TestInit_WithoutCollector(t *testing.T) {
	ctx := context.Background()
	tel, err := Init(ctx, Config{ServiceName: "ledgerpay-test", Environment: "test"}, zap.NewNop())
	require.NoError(t, err)

	assert.Same(t, tel.provider, otel.GetTracerProvider())

	_, span := tel.Tracer("test").Start(ctx, "probe")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, tel.Shutdown(ctx))
}
