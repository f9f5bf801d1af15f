package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/config"
	"github.com/straye-as/crm-api/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserLookup loads the account behind a validated token
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Middleware handles authentication for HTTP requests
type Middleware struct {
	jwtValidator *JWTValidator
	users        UserLookup
	apiKey       string
	logger       *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(cfg *config.Config, users UserLookup, logger *zap.Logger) *Middleware {
	return &Middleware{
		jwtValidator: NewJWTValidator(&cfg.Auth),
		users:        users,
		apiKey:       cfg.ApiKey.Value,
		logger:       logger,
	}
}

// Authenticate resolves the acting user and stores it in the request context.
// Tokens must belong to an existing, active user; the role comes from the user record.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if apiKey := r.Header.Get("x-api-key"); apiKey != "" {
			if !m.validateAPIKey(apiKey) {
				m.logger.Warn("invalid API key attempt",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeAuthError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}

			userCtx := NewSystemContext()
			m.logger.Debug("request authenticated",
				zap.String("auth_type", "api_key"),
				zap.String("path", r.URL.Path),
				zap.Duration("auth_duration", time.Since(start)),
			)
			next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeAuthError(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeAuthError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := m.jwtValidator.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			writeAuthError(w, http.StatusUnauthorized, err.Error())
			return
		}

		user, err := m.users.GetByID(r.Context(), claims.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			m.logger.Warn("token subject not found",
				zap.String("user_id", claims.UserID.String()),
			)
			writeAuthError(w, http.StatusUnauthorized, "Unknown user")
			return
		}
		if err != nil {
			m.logger.Error("failed to load token subject",
				zap.String("user_id", claims.UserID.String()),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			writeAuthError(w, http.StatusInternalServerError, "Failed to resolve user")
			return
		}
		if !user.IsActive {
			writeAuthError(w, http.StatusForbidden, "User account is deactivated")
			return
		}

		userCtx := FromUser(user)
		m.logger.Debug("request authenticated",
			zap.String("auth_type", "jwt"),
			zap.String("user_id", userCtx.UserID.String()),
			zap.String("role", string(userCtx.Role)),
			zap.Duration("auth_duration", time.Since(start)),
		)

		next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
	})
}

// RequireRole middleware ensures user has one of the given roles
func (m *Middleware) RequireRole(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusForbidden, "No user context")
				return
			}

			if !userCtx.HasAnyRole(roles...) {
				writeAuthError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}

func writeAuthError(w http.ResponseWriter, status int, detail string) {
	errType := domain.ErrorTypeUnauthorized
	switch status {
	case http.StatusForbidden:
		errType = domain.ErrorTypeForbidden
	case http.StatusInternalServerError:
		errType = domain.ErrorTypeInternal
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Success: false,
		Type:    errType,
		Title:   http.StatusText(status),
		Status:  status,
		Detail:  detail,
	})
}
