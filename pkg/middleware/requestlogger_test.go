package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/ecommerce-catalog/pkg/logger"
)

func newTestLogger(w *bytes.Buffer) *slog.Logger {
	return logger.NewWithWriter("test-svc", "debug", w)
}

// logLines decodes every JSON line written to buf.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		lines = append(lines, line)
	}
	return lines
}

func serveRequestLogger(t *testing.T, req *http.Request) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := RequestLogger(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).InfoContext(r.Context(), "handler log")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	return lines[0]
}

func TestRequestLogger_StoresEnrichedLogger(t *testing.T) {
	line := serveRequestLogger(t, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	assert.Equal(t, "handler log", line["msg"])
	assert.Equal(t, "test-svc", line["service"])
	assert.Equal(t, http.MethodGet, line["method"])
	assert.NotContains(t, line, "user_id")
	assert.NotContains(t, line, "correlation_id")
}

func TestRequestLogger_CorrelationAndUser(t *testing.T) {
	ctx := logger.WithCorrelationID(context.Background(), "corr-test-123")
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	req.Header.Set(UserIDHeader, "user-42")

	line := serveRequestLogger(t, req)
	assert.Equal(t, "corr-test-123", line["correlation_id"])
	assert.Equal(t, "user-42", line["user_id"])
}

func TestRequestLogger_TraceFields(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	line := serveRequestLogger(t, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", line["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", line["span_id"])
}

func TestRequestLogger_UserIDAvailableDownstream(t *testing.T) {
	var got string
	handler := RequestLogger(newTestLogger(&bytes.Buffer{}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = logger.UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserIDHeader, "user-7")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "user-7", got)
}
