package service

import (
	"errors"
	"fmt"

	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/domain"
	"gorm.io/gorm"
)

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails.
	// Every *domain.ValidationError matches it.
	ErrInvalidInput = domain.ErrValidation

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrCannotRemoveLastAdmin is returned when the last active admin would be demoted, deactivated or deleted
	ErrCannotRemoveLastAdmin = fmt.Errorf("%w: cannot remove the last active admin", ErrConflict)

	// ErrCannotModifySelf is returned when users try to change their own role, deactivate or delete themselves
	ErrCannotModifySelf = fmt.Errorf("%w: users cannot change their own role, deactivate or delete themselves", ErrInvalidInput)
)

// translateError maps persistence errors onto service sentinels
func translateError(entity string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s %w", entity, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s already exists", ErrConflict, entity)
	default:
		return fmt.Errorf("%s: %w", entity, err)
	}
}

// authorize applies the record policy for actor
func authorize(actor *auth.UserContext, record domain.Ownership, action auth.Action) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if !auth.CanAccess(actor.Actor(), record, action) {
		return ErrPermissionDenied
	}
	return nil
}

// authorizeCreate applies the create policy for actor
func authorizeCreate(actor *auth.UserContext) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if !auth.CanCreate(actor.Actor()) {
		return ErrPermissionDenied
	}
	return nil
}
