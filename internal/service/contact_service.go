package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/mapper"
	"github.com/straye-as/crm-api/internal/phone"
	"github.com/straye-as/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ContactService struct {
	contactRepo *repository.ContactRepository
	refs        *references
	phones      *phone.Normalizer
	logger      *zap.Logger
}

func NewContactService(
	contactRepo *repository.ContactRepository,
	userRepo *repository.UserRepository,
	phones *phone.Normalizer,
	logger *zap.Logger,
) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		refs:        &references{users: userRepo, contacts: contactRepo},
		phones:      phones,
		logger:      logger,
	}
}

func (s *ContactService) Create(ctx context.Context, actor *auth.UserContext, req *domain.CreateContactRequest) (*domain.ContactDTO, error) {
	if err := authorizeCreate(actor); err != nil {
		return nil, err
	}

	ownerID, err := s.refs.resolveOwner(ctx, actor, req.OwnerID, "ownerId")
	if err != nil {
		return nil, err
	}
	phoneNumber, err := normalizePhone(s.phones, req.Phone)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.ensureEmailAvailable(ctx, email, uuid.Nil); err != nil {
		return nil, err
	}

	contact := &domain.Contact{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     email,
		Phone:     phoneNumber,
		Company:   req.Company,
		Position:  req.Position,
		OwnerID:   ownerID,
		Tags:      domain.NormalizeTags(req.Tags),
		Notes:     req.Notes,
	}

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, translateError("contact", err)
	}

	s.logger.Info("contact created",
		zap.String("contact_id", contact.ID.String()),
		zap.String("user_id", actor.UserID.String()),
	)

	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) GetByID(ctx context.Context, actor *auth.UserContext, id uuid.UUID) (*domain.ContactDTO, error) {
	contact, err := s.load(ctx, actor, id, auth.ActionRead)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) List(ctx context.Context, actor *auth.UserContext, page, pageSize int, filters *repository.ContactFilters, sortBy repository.ContactSortOption) (*domain.PaginatedResponse, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if filters == nil {
		filters = &repository.ContactFilters{}
	}
	if scope := auth.ScopeOwner(actor.Actor()); scope != nil {
		filters.OwnerID = scope
	}

	contacts, total, err := s.contactRepo.List(ctx, page, pageSize, filters, sortBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	dtos := make([]domain.ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = mapper.ToContactDTO(&contacts[i])
	}
	return domain.NewPaginatedResponse(dtos, total, page, pageSize), nil
}

func (s *ContactService) Update(ctx context.Context, actor *auth.UserContext, id uuid.UUID, req *domain.UpdateContactRequest) (*domain.ContactDTO, error) {
	contact, err := s.load(ctx, actor, id, auth.ActionUpdate)
	if err != nil {
		return nil, err
	}

	ownerID, err := s.refs.reassignOwner(ctx, actor, contact.OwnerID, req.OwnerID, "ownerId")
	if err != nil {
		return nil, err
	}
	phoneNumber, err := normalizePhone(s.phones, req.Phone)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != contact.Email {
		if err := s.ensureEmailAvailable(ctx, email, contact.ID); err != nil {
			return nil, err
		}
	}

	contact.FirstName = strings.TrimSpace(req.FirstName)
	contact.LastName = strings.TrimSpace(req.LastName)
	contact.Email = email
	contact.Phone = phoneNumber
	contact.Company = req.Company
	contact.Position = req.Position
	contact.OwnerID = ownerID
	contact.Tags = domain.NormalizeTags(req.Tags)
	contact.Notes = req.Notes

	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return nil, translateError("contact", err)
	}

	s.logger.Info("contact updated",
		zap.String("contact_id", contact.ID.String()),
		zap.String("user_id", actor.UserID.String()),
	)

	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) Delete(ctx context.Context, actor *auth.UserContext, id uuid.UUID) error {
	if _, err := s.load(ctx, actor, id, auth.ActionDelete); err != nil {
		return err
	}
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		return translateError("contact", err)
	}

	s.logger.Info("contact deleted",
		zap.String("contact_id", id.String()),
		zap.String("user_id", actor.UserID.String()),
	)
	return nil
}

// load fetches a contact and applies the policy for action. A missing contact is
// reported before any permission check.
func (s *ContactService) load(ctx context.Context, actor *auth.UserContext, id uuid.UUID, action auth.Action) (*domain.Contact, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError("contact", err)
	}
	if err := authorize(actor, contact.Ownership(), action); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *ContactService) ensureEmailAvailable(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.contactRepo.GetByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check contact email: %w", err)
	}
	if existing.ID != self {
		return fmt.Errorf("%w: a contact with email %s already exists", ErrConflict, email)
	}
	return nil
}
