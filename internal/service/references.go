package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/phone"
	"github.com/straye-as/crm-api/internal/repository"
	"gorm.io/gorm"
)

// references validates ids that records point at: owners, contacts, deals and leads
type references struct {
	users    *repository.UserRepository
	contacts *repository.ContactRepository
	leads    *repository.LeadRepository
	deals    *repository.DealRepository
}

// resolveOwner returns the owner a new record gets. Without a request the actor
// owns it, except for the system actor which leaves it unowned.
func (r *references) resolveOwner(ctx context.Context, actor *auth.UserContext, requested *uuid.UUID, field string) (*uuid.UUID, error) {
	if requested == nil {
		if actor.IsSystem() {
			return nil, nil
		}
		id := actor.UserID
		return &id, nil
	}
	if err := r.checkAssignable(ctx, actor, *requested, field); err != nil {
		return nil, err
	}
	id := *requested
	return &id, nil
}

// reassignOwner returns the owner after an update. A nil request keeps the current owner.
func (r *references) reassignOwner(ctx context.Context, actor *auth.UserContext, current, requested *uuid.UUID, field string) (*uuid.UUID, error) {
	if requested == nil || (current != nil && *current == *requested) {
		return current, nil
	}
	if err := r.checkAssignable(ctx, actor, *requested, field); err != nil {
		return nil, err
	}
	id := *requested
	return &id, nil
}

func (r *references) checkAssignable(ctx context.Context, actor *auth.UserContext, userID uuid.UUID, field string) error {
	if !auth.CanAssignOwner(actor.Actor(), userID) {
		return fmt.Errorf("%w: cannot assign records to another user", ErrPermissionDenied)
	}
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewValidationError(field, "User does not exist")
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return domain.NewValidationError(field, "User is deactivated")
	}
	return nil
}

type existsFunc func(ctx context.Context, id uuid.UUID) (bool, error)

func checkExists(ctx context.Context, exists existsFunc, id *uuid.UUID, field, entity string) error {
	if id == nil {
		return nil
	}
	ok, err := exists(ctx, *id)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", entity, err)
	}
	if !ok {
		return domain.NewValidationError(field, entity+" does not exist")
	}
	return nil
}

func (r *references) checkContact(ctx context.Context, id *uuid.UUID) error {
	return checkExists(ctx, r.contacts.Exists, id, "contactId", "Contact")
}

func (r *references) checkLead(ctx context.Context, id *uuid.UUID) error {
	return checkExists(ctx, r.leads.Exists, id, "leadId", "Lead")
}

func (r *references) checkDeal(ctx context.Context, id *uuid.UUID) error {
	return checkExists(ctx, r.deals.Exists, id, "dealId", "Deal")
}

// normalizePhone converts a phone number to E.164 or reports it as a field error
func normalizePhone(n *phone.Normalizer, raw string) (string, error) {
	if n == nil {
		return raw, nil
	}
	normalized, err := n.Normalize(raw)
	if err != nil {
		return "", domain.NewValidationError("phone", "Must be a valid phone number")
	}
	return normalized, nil
}
