package middleware

import (
	"fmt"
	"net/http"

	"github.com/straye-as/crm-api/internal/config"
)

// SecurityHeaders returns a middleware that adds the configured security headers
func SecurityHeaders(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	hsts := ""
	if cfg.EnableHSTS {
		hsts = fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
	}

	headers := map[string]string{
		"X-Frame-Options":           cfg.FrameOptions,
		"Content-Security-Policy":   cfg.ContentSecurityPolicy,
		"Referrer-Policy":           cfg.ReferrerPolicy,
		"Permissions-Policy":        cfg.PermissionsPolicy,
		"Strict-Transport-Security": hsts,
	}
	if cfg.ContentTypeNosniff {
		headers["X-Content-Type-Options"] = "nosniff"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for name, value := range headers {
				if value != "" {
					h.Set(name, value)
				}
			}
			h.Del("X-Powered-By")
			h.Del("Server")

			next.ServeHTTP(w, r)
		})
	}
}
