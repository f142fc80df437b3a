package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hijackableRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, nil
}

func TestStatusRecorder_FirstStatusWins(t *testing.T) {
	var hooked []int
	rec := newStatusRecorder(httptest.NewRecorder())
	rec.beforeHeader = func(status int) { hooked = append(hooked, status) }

	rec.WriteHeader(http.StatusNotFound)
	rec.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusNotFound, rec.status)
	assert.Equal(t, []int{http.StatusNotFound}, hooked)
}

func TestStatusRecorder_WriteCountsBytes(t *testing.T) {
	inner := httptest.NewRecorder()
	rec := newStatusRecorder(inner)

	_, err := rec.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = rec.Write([]byte("world"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.status)
	assert.Equal(t, 11, rec.bytes)
	assert.Equal(t, "hello world", inner.Body.String())
}

func TestStatusRecorder_Flush(t *testing.T) {
	inner := httptest.NewRecorder()
	newStatusRecorder(inner).Flush()
	assert.True(t, inner.Flushed)
}

func TestStatusRecorder_Hijack(t *testing.T) {
	t.Run("supported", func(t *testing.T) {
		inner := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder()}
		_, _, err := newStatusRecorder(inner).Hijack()
		require.NoError(t, err)
		assert.True(t, inner.hijacked)
	})

	t.Run("not supported", func(t *testing.T) {
		_, _, err := newStatusRecorder(httptest.NewRecorder()).Hijack()
		assert.ErrorIs(t, err, http.ErrNotSupported)
	})
}

func TestStatusRecorder_Unwrap(t *testing.T) {
	inner := httptest.NewRecorder()
	assert.Same(t, inner, newStatusRecorder(inner).Unwrap())
}
