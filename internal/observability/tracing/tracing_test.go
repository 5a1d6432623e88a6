package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInit_WithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), nil, Options{ServiceName: "clientdesk"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestExporterOptions(t *testing.T) {
	assert.Len(t, exporterOptions("collector:4318"), 2)
	assert.Len(t, exporterOptions("http://collector:4318"), 2)
	assert.Len(t, exporterOptions("https://collector.example.com"), 1)
}

func TestStartEnd_RecordsError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := Start(context.Background(), "clients.list")
	End(span, errors.New("backend down"))
	_, span = Start(context.Background(), "clients.insert")
	End(span, nil)

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "clients.list", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, codes.Unset, ended[1].Status().Code)
}
