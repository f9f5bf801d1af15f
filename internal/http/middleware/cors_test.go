package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/straye-as/crm-api/internal/config"
	"github.com/straye-as/crm-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func corsPreflight(t *testing.T, cfg *config.CORSConfig, env, origin string) *httptest.ResponseRecorder {
	t.Helper()
	h := middleware.CORS(cfg, env, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/deals", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCORS(t *testing.T) {
	base := func(origins ...string) *config.CORSConfig {
		return &config.CORSConfig{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}
	}

	tests := []struct {
		name    string
		cfg     *config.CORSConfig
		env     string
		origin  string
		allowed bool
	}{
		{"explicit origin allowed", base("https://crm.example.com"), "production", "https://crm.example.com", true},
		{"explicit origin rejects others", base("https://crm.example.com"), "production", "https://evil.example.com", false},
		{"wildcard allows any", base("*"), "production", "https://anything.example.com", true},
		{"development allows any without config", base(), "development", "http://localhost:5173", true},
		{"production denies without config", base(), "production", "https://crm.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := corsPreflight(t, tt.cfg, tt.env, tt.origin)
			if tt.allowed {
				assert.Equal(t, tt.origin, rr.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
