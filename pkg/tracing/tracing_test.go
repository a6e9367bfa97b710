package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracer_Disabled(t *testing.T) {
	cfg := DefaultConfig("storefront")

	shutdown, err := InitTracer(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracer_Enabled(t *testing.T) {
	cfg := Config{
		ServiceName:    "storefront",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "127.0.0.1:0",
		SampleRate:     0.5,
		Enabled:        true,
	}

	shutdown, err := InitTracer(context.Background(), cfg)
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)

	// The endpoint is unreachable; only the flush can fail.
	_ = shutdown(context.Background())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("storefront")
	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1.0, cfg.SampleRate)
	assert.Equal(t, "localhost:4318", cfg.OTLPEndpoint)
}

func TestNewProvider_CommandSpanParentsClientSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp, err := newProvider(context.Background(), DefaultConfig("storefront"), sdktrace.WithSpanProcessor(rec))
	require.NoError(t, err)

	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	install(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	ctx, root := StartCommandSpan(context.Background(), "storefront", "storefront cart add")
	req, err := http.NewRequest(http.MethodPatch, "https://api.example.com/shop/cart/product", http.NoBody)
	require.NoError(t, err)
	_, call := StartClientSpan(ctx, "commerce", req)
	EndClientSpan(call, http.StatusOK, nil)
	EndSpan(root, errors.New("only 2 left in stock"))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "PATCH /shop/cart/product", spans[0].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())

	assert.Equal(t, "storefront cart add", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "storefront", serviceName(spans[1]))
}

func serviceName(s sdktrace.ReadOnlySpan) string {
	v, _ := s.Resource().Set().Value("service.name")
	return v.AsString()
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return rec
}

func TestStartClientSpan_InjectsTraceParent(t *testing.T) {
	rec := setupRecorder(t)

	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/shop/cart", http.NoBody)
	require.NoError(t, err)

	_, span := StartClientSpan(context.Background(), "test", req)
	EndClientSpan(span, http.StatusOK, nil)

	assert.NotEmpty(t, req.Header.Get("traceparent"))
	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /shop/cart", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestEndClientSpan_MarksFailures(t *testing.T) {
	rec := setupRecorder(t)

	req, err := http.NewRequest(http.MethodPost, "https://api.example.com/shop/cart/checkout", http.NoBody)
	require.NoError(t, err)

	_, span := StartClientSpan(context.Background(), "test", req)
	EndClientSpan(span, http.StatusBadGateway, nil)
	_, span = StartClientSpan(context.Background(), "test", req)
	EndClientSpan(span, 0, errors.New("connection refused"))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
