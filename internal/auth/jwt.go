package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidScope = errors.New("token missing required scope")
)

// TokenClaims is what a validated token tells us about the caller.
// The user's role is never taken from the token; it is loaded from the user record.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

// JWTValidator validates HS256 tokens issued by the session provider
type JWTValidator struct {
	config *config.AuthConfig
	secret []byte
}

// NewJWTValidator creates a new JWT validator
func NewJWTValidator(cfg *config.AuthConfig) *JWTValidator {
	return &JWTValidator{
		config: cfg,
		secret: []byte(cfg.JWTSecret),
	}
}

// ValidateToken validates a JWT token and returns its claims
func (v *JWTValidator) ValidateToken(tokenString string) (*TokenClaims, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: no signing secret configured", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}
	if v.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.config.Audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if v.config.RequiredScopes != "" {
		if !HasRequiredScope(ExtractScopes(claims), v.config.RequiredScopes) {
			return nil, ErrInvalidScope
		}
	}

	sub, _ := claims.GetSubject()
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	return &TokenClaims{
		UserID: userID,
		Email:  extractString(claims, "email", "preferred_username"),
		Name:   extractString(claims, "name"),
	}, nil
}

// SignToken issues a token for userID. Used by the seed command and tests;
// production tokens come from the session provider.
func (v *JWTValidator) SignToken(userID uuid.UUID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	if v.config.Issuer != "" {
		claims["iss"] = v.config.Issuer
	}
	if v.config.Audience != "" {
		claims["aud"] = v.config.Audience
	}
	if v.config.RequiredScopes != "" {
		claims["scp"] = strings.ReplaceAll(v.config.RequiredScopes, ",", " ")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func extractString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if val, ok := claims[key]; ok {
			if str, ok := val.(string); ok && str != "" {
				return str
			}
		}
	}
	return ""
}

// ExtractScopes extracts scopes from JWT claims
func ExtractScopes(claims jwt.MapClaims) []string {
	scopes := []string{}

	if val, ok := claims["scp"]; ok {
		if str, ok := val.(string); ok {
			scopes = strings.Fields(str)
		}
	}

	if val, ok := claims["scope"]; ok {
		if str, ok := val.(string); ok {
			scopes = append(scopes, strings.Fields(str)...)
		}
	}

	return scopes
}

// HasRequiredScope checks if token has any of the comma separated required scopes
func HasRequiredScope(tokenScopes []string, required string) bool {
	required = strings.TrimSpace(required)
	if required == "" {
		return true
	}

	for _, req := range strings.Split(required, ",") {
		req = strings.TrimSpace(req)
		if req == "" {
			continue
		}
		for _, scope := range tokenScopes {
			if strings.EqualFold(scope, req) {
				return true
			}
		}
	}
	return false
}
