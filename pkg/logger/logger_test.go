package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	return trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestNewWithWriter_ServiceAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("catalog-search", "warn", &buf)

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	out := decodeLine(t, &buf)
	assert.Equal(t, "catalog-search", out["service"])
	assert.Equal(t, "kept", out["msg"])
	assert.NotContains(t, out, "source")
}

func TestNewWithWriter_DebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("svc", "debug", &buf).Debug("here")
	assert.Contains(t, decodeLine(t, &buf), "source")
}

func TestNewWithWriter_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("svc", "chatty", &buf)
	l.Debug("dropped")
	assert.Zero(t, buf.Len())
	l.Info("kept")
	assert.NotZero(t, buf.Len())
}

func TestWithContext(t *testing.T) {
	tests := []struct {
		name   string
		ctx    func(t *testing.T) context.Context
		want   map[string]string
		absent []string
	}{
		{
			name:   "empty context",
			ctx:    func(*testing.T) context.Context { return context.Background() },
			absent: []string{"correlation_id", "user_id", "trace_id", "span_id"},
		},
		{
			name:   "correlation id",
			ctx:    func(*testing.T) context.Context { return WithCorrelationID(context.Background(), "req-123") },
			want:   map[string]string{"correlation_id": "req-123"},
			absent: []string{"user_id", "trace_id"},
		},
		{
			name: "all fields",
			ctx: func(t *testing.T) context.Context {
				return WithUserID(WithCorrelationID(spanContext(t), "corr-1"), "user-9")
			},
			want: map[string]string{
				"correlation_id": "corr-1",
				"user_id":        "user-9",
				"trace_id":       "4bf92f3577b34da6a3ce929d0e0e4736",
				"span_id":        "00f067aa0ba902b7",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			WithContext(tt.ctx(t), NewWithWriter("svc", "info", &buf)).Info("hello")

			out := decodeLine(t, &buf)
			for k, v := range tt.want {
				assert.Equal(t, v, out[k], k)
			}
			for _, k := range tt.absent {
				assert.NotContains(t, out, k)
			}
		})
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationIDFromContext(ctx))
	assert.Empty(t, UserIDFromContext(ctx))

	ctx = WithUserID(WithCorrelationID(ctx, "corr-1"), "user-1")
	assert.Equal(t, "corr-1", CorrelationIDFromContext(ctx))
	assert.Equal(t, "user-1", UserIDFromContext(ctx))
}

func TestFromContext(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	l := NewWithWriter("svc", "info", &bytes.Buffer{})
	assert.Same(t, l, FromContext(NewContext(context.Background(), l)))
}
