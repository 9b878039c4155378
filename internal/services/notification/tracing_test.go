package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func stateOf(s sdktrace.ReadOnlySpan) string {
	for _, kv := range s.Attributes() {
		if kv.Key == attribute.Key("notification.state") {
			return kv.Value.AsString()
		}
	}
	return ""
}

func TestDispatcher_SendSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	primary := &MockPublisher{name: "transaction-notifications"}
	fallback := &MockPublisher{name: "failed-notifications"}
	primary.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
	primary.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	fallback.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
	fallback.On("Publish", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	d := NewDispatcher(primary, fallback, nil, WithTracer(tp.Tracer("test")))
	sender, recipient := testAccounts()
	out, _ := d.Build("TX1", sender, recipient, decimalOf(t, "100"))

	ctx := context.Background()
	d.Send(ctx, out)
	d.Send(ctx, out)
	d.Send(ctx, out)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	for _, s := range spans {
		assert.Equal(t, "notification.send", s.Name())
		assert.Equal(t, trace.SpanKindProducer, s.SpanKind())
	}

	assert.Equal(t, string(StateDelivered), stateOf(spans[0]))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Empty(t, spans[0].Events())

	assert.Equal(t, string(StateDelivered), stateOf(spans[1]))
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "primary queue failed", spans[1].Events()[0].Name)

	assert.Equal(t, string(StateLost), stateOf(spans[2]))
	assert.Equal(t, codes.Error, spans[2].Status().Code)
}
