package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serveCORS(cfg CORSConfig, method, origin string) (*httptest.ResponseRecorder, bool) {
	reached := false
	handler := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, "/api/v1/products/search", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, reached
}

func TestCORS_AllowOrigin(t *testing.T) {
	prod := NewCORSConfig([]string{"https://shop.example.com", " https://admin.example.com"}, "production")

	tests := []struct {
		name   string
		cfg    CORSConfig
		origin string
		want   string
	}{
		{"development allows all", NewCORSConfig(nil, "development"), "https://evil.example", "*"},
		{"development without origin", NewCORSConfig(nil, "development"), "", "*"},
		{"production allowed origin", prod, "https://shop.example.com", "https://shop.example.com"},
		{"production trims configured origins", prod, "https://admin.example.com", "https://admin.example.com"},
		{"production rejected origin", prod, "https://evil.example", ""},
		{"production without origin", prod, "", ""},
		{"wildcard in list", NewCORSConfig([]string{"*"}, "production"), "https://any.example", "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, reached := serveCORS(tt.cfg, http.MethodGet, tt.origin)
			assert.True(t, reached)
			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_VaryOnReflectedOrigin(t *testing.T) {
	rec, _ := serveCORS(NewCORSConfig([]string{"https://shop.example.com"}, "production"), http.MethodGet, "https://shop.example.com")
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestCORS_Preflight(t *testing.T) {
	rec, reached := serveCORS(DefaultCORSConfig(), http.MethodOptions, "https://shop.example.com")
	assert.False(t, reached)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCORS_DefaultHeaders(t *testing.T) {
	rec, _ := serveCORS(DefaultCORSConfig(), http.MethodGet, "")

	assert.Equal(t, "GET, HEAD, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Accept, Content-Type, X-Correlation-ID, X-User-ID", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "X-Correlation-ID, X-Cache", rec.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_ZeroConfigDefaults(t *testing.T) {
	rec, _ := serveCORS(CORSConfig{AllowedOrigins: []string{"*"}}, http.MethodGet, "")
	assert.Equal(t, "GET, HEAD, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, rec.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORS_CustomConfig(t *testing.T) {
	cfg := CORSConfig{
		AllowedOrigins:   []string{"*"},
		AllowedHeaders:   []string{"Accept", "X-Custom"},
		MaxAge:           600,
		AllowCredentials: true,
	}
	rec, _ := serveCORS(cfg, http.MethodGet, "https://shop.example.com")

	assert.Equal(t, "Accept, X-Custom", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
