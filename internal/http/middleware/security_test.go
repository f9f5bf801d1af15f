package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/straye-as/crm-api/internal/config"
	"github.com/straye-as/crm-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
)

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SecurityConfig
		present map[string]string
		absent  []string
	}{
		{
			name: "all headers",
			cfg: config.SecurityConfig{
				EnableHSTS:            true,
				HSTSMaxAge:            31536000,
				HSTSIncludeSubdomains: true,
				HSTSPreload:           true,
				ContentSecurityPolicy: "default-src 'self'",
				FrameOptions:          "DENY",
				ContentTypeNosniff:    true,
				ReferrerPolicy:        "strict-origin-when-cross-origin",
				PermissionsPolicy:     "geolocation=()",
			},
			present: map[string]string{
				"Strict-Transport-Security": "max-age=31536000; includeSubDomains; preload",
				"Content-Security-Policy":   "default-src 'self'",
				"X-Frame-Options":           "DENY",
				"X-Content-Type-Options":    "nosniff",
				"Referrer-Policy":           "strict-origin-when-cross-origin",
				"Permissions-Policy":        "geolocation=()",
			},
		},
		{
			name: "hsts without subdomains",
			cfg:  config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: 600},
			present: map[string]string{
				"Strict-Transport-Security": "max-age=600",
			},
			absent: []string{"X-Frame-Options", "X-Content-Type-Options"},
		},
		{
			name:   "nothing enabled",
			cfg:    config.SecurityConfig{},
			absent: []string{"Strict-Transport-Security", "Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := middleware.SecurityHeaders(&tt.cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

			for name, want := range tt.present {
				assert.Equal(t, want, rr.Header().Get(name), name)
			}
			for _, name := range tt.absent {
				assert.Empty(t, rr.Header().Get(name), name)
			}
		})
	}
}
