package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var _ trace.SpanExporter = &Collector{}

// Collector is a span exporter that accumulates exported spans for
// inspection at the end of a test.
type Collector struct {
	Spans tracetest.SpanStubs
}

func (c *Collector) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	c.Spans = append(c.Spans, tracetest.SpanStubsFromReadOnlySpans(spans)...)
	return nil
}

func (c *Collector) Shutdown(ctx context.Context) error {
	return nil
}

// FindSpans returns all collected spans with the given name.
func (c *Collector) FindSpans(name string) tracetest.SpanStubs {
	var found = tracetest.SpanStubs{}
	for _, s := range c.Spans {
		if s.Name == name {
			found = append(found, s)
		}
	}
	return found
}

// SetupTracing installs a test tracer provider and returns a collect
// function that shuts the provider down and hands back the collector.
func SetupTracing() func(t *testing.T) *Collector {
	collector := &Collector{}
	tp := trace.NewTracerProvider(trace.WithBatcher(collector))
	otel.SetTracerProvider(tp)

	collect := func(t *testing.T) *Collector {
		t.Helper()

		require.NoError(t, tp.Shutdown(context.Background()))
		return collector
	}

	return collect
}

// AttributeValueInTraceSpan returns the value of the named attribute,
// failing the test when the span does not carry it.
func AttributeValueInTraceSpan(t *testing.T, stub tracetest.SpanStub, attributeName string) attribute.Value {
	t.Helper()

	for _, attr := range stub.Attributes {
		if attr.Key == attribute.Key(attributeName) {
			return attr.Value
		}
	}
	require.Fail(t, "did not find expected attribute %v on trace span %v", attributeName, stub.Name)
	return attribute.Value{}
}

// EventInTraceSpan returns the named event, failing the test when the span
// does not carry it.
func EventInTraceSpan(t *testing.T, stub tracetest.SpanStub, eventName string) trace.Event {
	t.Helper()

	for _, evt := range stub.Events {
		if evt.Name == eventName {
			return evt
		}
	}
	require.Fail(t, "did not find expected event %v on trace span %v", eventName, stub.Name)
	return trace.Event{}
}
