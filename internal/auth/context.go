package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
)

// SystemUserID identifies the actor behind API key requests
var SystemUserID = uuid.Nil

// UserContext holds authenticated user information
type UserContext struct {
	UserID      uuid.UUID
	DisplayName string
	Email       string
	Role        domain.UserRole
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok && user != nil
}

// NewSystemContext returns the actor used for API key and background access
func NewSystemContext() *UserContext {
	return &UserContext{
		UserID:      SystemUserID,
		DisplayName: "System",
		Email:       "system@straye.io",
		Role:        domain.RoleAdmin,
	}
}

// FromUser builds a user context for an authenticated account
func FromUser(user *domain.User) *UserContext {
	return &UserContext{
		UserID:      user.ID,
		DisplayName: user.Name,
		Email:       user.Email,
		Role:        user.Role,
	}
}

// Actor returns the identity the policy functions work on
func (u *UserContext) Actor() Actor {
	return Actor{ID: u.UserID, Role: u.Role}
}

// IsSystem reports whether the context belongs to the API key actor
func (u *UserContext) IsSystem() bool {
	return u.UserID == SystemUserID
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.UserRole) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}
