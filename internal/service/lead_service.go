package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/cache"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/mapper"
	"github.com/straye-as/crm-api/internal/metrics"
	"github.com/straye-as/crm-api/internal/phone"
	"github.com/straye-as/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LeadService struct {
	leadRepo    *repository.LeadRepository
	contactRepo *repository.ContactRepository
	dealRepo    *repository.DealRepository
	refs        *references
	phones      *phone.Normalizer
	cache       *cache.Cache
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

func NewLeadService(
	leadRepo *repository.LeadRepository,
	contactRepo *repository.ContactRepository,
	dealRepo *repository.DealRepository,
	userRepo *repository.UserRepository,
	phones *phone.Normalizer,
	reportCache *cache.Cache,
	m *metrics.Metrics,
	logger *zap.Logger,
) *LeadService {
	return &LeadService{
		leadRepo:    leadRepo,
		contactRepo: contactRepo,
		dealRepo:    dealRepo,
		refs:        &references{users: userRepo, contacts: contactRepo, leads: leadRepo, deals: dealRepo},
		phones:      phones,
		cache:       reportCache,
		metrics:     m,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *LeadService) Create(ctx context.Context, actor *auth.UserContext, req *domain.CreateLeadRequest) (*domain.LeadDTO, error) {
	if err := authorizeCreate(actor); err != nil {
		return nil, err
	}

	ownerID, err := s.refs.resolveOwner(ctx, actor, req.OwnerID, "ownerId")
	if err != nil {
		return nil, err
	}
	if err := validateLeadValue(req.Value); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = domain.LeadStatusNew
	}

	lead := &domain.Lead{
		Title:     strings.TrimSpace(req.Title),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     req.Phone,
		Company:   req.Company,
		Position:  req.Position,
		Source:    req.Source,
		Status:    status,
		Value:     req.Value,
		OwnerID:   ownerID,
		ContactID: req.ContactID,
		Tags:      domain.NormalizeTags(req.Tags),
		Notes:     req.Notes,
	}

	if req.ContactID != nil {
		contact, err := s.contactRepo.GetByID(ctx, *req.ContactID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.NewValidationError("contactId", "Contact does not exist")
			}
			return nil, fmt.Errorf("failed to load contact: %w", err)
		}
		copyContactDetails(lead, contact)
	}

	if lead.Phone, err = normalizePhone(s.phones, lead.Phone); err != nil {
		return nil, err
	}

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, translateError("lead", err)
	}

	s.logger.Info("lead created",
		zap.String("lead_id", lead.ID.String()),
		zap.String("user_id", actor.UserID.String()),
	)

	dto := mapper.ToLeadDTO(lead)
	return &dto, nil
}

func (s *LeadService) GetByID(ctx context.Context, actor *auth.UserContext, id uuid.UUID) (*domain.LeadDTO, error) {
	lead, err := s.load(ctx, actor, id, auth.ActionRead)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToLeadDTO(lead)
	return &dto, nil
}

func (s *LeadService) List(ctx context.Context, actor *auth.UserContext, page, pageSize int, filters *repository.LeadFilters, sortBy repository.LeadSortOption) (*domain.PaginatedResponse, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if filters == nil {
		filters = &repository.LeadFilters{}
	}
	if scope := auth.ScopeOwner(actor.Actor()); scope != nil {
		filters.OwnerID = scope
	}

	leads, total, err := s.leadRepo.List(ctx, page, pageSize, filters, sortBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	dtos := make([]domain.LeadDTO, len(leads))
	for i := range leads {
		dtos[i] = mapper.ToLeadDTO(&leads[i])
	}
	return domain.NewPaginatedResponse(dtos, total, page, pageSize), nil
}

// Update replaces a lead's fields. Any status may follow any other.
func (s *LeadService) Update(ctx context.Context, actor *auth.UserContext, id uuid.UUID, req *domain.UpdateLeadRequest) (*domain.LeadDTO, error) {
	lead, err := s.load(ctx, actor, id, auth.ActionUpdate)
	if err != nil {
		return nil, err
	}

	ownerID, err := s.refs.reassignOwner(ctx, actor, lead.OwnerID, req.OwnerID, "ownerId")
	if err != nil {
		return nil, err
	}
	if err := validateLeadValue(req.Value); err != nil {
		return nil, err
	}
	if err := s.refs.checkContact(ctx, req.ContactID); err != nil {
		return nil, err
	}
	phoneNumber, err := normalizePhone(s.phones, req.Phone)
	if err != nil {
		return nil, err
	}

	lead.Title = strings.TrimSpace(req.Title)
	lead.FirstName = req.FirstName
	lead.LastName = req.LastName
	lead.Email = strings.ToLower(strings.TrimSpace(req.Email))
	lead.Phone = phoneNumber
	lead.Company = req.Company
	lead.Position = req.Position
	lead.Source = req.Source
	lead.Status = req.Status
	lead.Value = req.Value
	lead.OwnerID = ownerID
	lead.ContactID = req.ContactID
	lead.Tags = domain.NormalizeTags(req.Tags)
	lead.Notes = req.Notes

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, translateError("lead", err)
	}

	s.logger.Info("lead updated",
		zap.String("lead_id", lead.ID.String()),
		zap.String("status", string(lead.Status)),
		zap.String("user_id", actor.UserID.String()),
	)

	dto := mapper.ToLeadDTO(lead)
	return &dto, nil
}

func (s *LeadService) Delete(ctx context.Context, actor *auth.UserContext, id uuid.UUID) error {
	if _, err := s.load(ctx, actor, id, auth.ActionDelete); err != nil {
		return err
	}
	if err := s.leadRepo.Delete(ctx, id); err != nil {
		return translateError("lead", err)
	}

	s.logger.Info("lead deleted",
		zap.String("lead_id", id.String()),
		zap.String("user_id", actor.UserID.String()),
	)
	return nil
}

// ConvertToDeal creates a deal from a lead. The actor needs read access to the
// lead and permission to create records; the lead itself is left unchanged.
func (s *LeadService) ConvertToDeal(ctx context.Context, actor *auth.UserContext, id uuid.UUID, req *domain.ConvertLeadRequest) (*domain.DealDTO, error) {
	lead, err := s.load(ctx, actor, id, auth.ActionRead)
	if err != nil {
		return nil, err
	}
	if err := authorizeCreate(actor); err != nil {
		return nil, err
	}
	if req == nil {
		req = &domain.ConvertLeadRequest{}
	}

	ownerID, err := s.refs.resolveOwner(ctx, actor, req.OwnerID, "ownerId")
	if err != nil {
		return nil, err
	}
	if err := s.refs.checkContact(ctx, req.ContactID); err != nil {
		return nil, err
	}
	if req.ExpectedCloseDate != nil {
		t := req.ExpectedCloseDate.UTC()
		req.ExpectedCloseDate = &t
	}

	deal, err := domain.NewDealFromLead(lead, ownerID, req)
	if err != nil {
		return nil, err
	}

	history := newStageHistory(actor, nil, nil, deal, s.now())
	if err := s.dealRepo.CreateWithHistory(ctx, deal, history); err != nil {
		return nil, translateError("deal", err)
	}

	s.metrics.RecordLeadConverted()
	invalidatePipelineReports(ctx, s.cache, s.logger)

	s.logger.Info("lead converted to deal",
		zap.String("lead_id", lead.ID.String()),
		zap.String("deal_id", deal.ID.String()),
		zap.String("user_id", actor.UserID.String()),
	)

	dto := mapper.ToDealDTO(deal)
	return &dto, nil
}

func (s *LeadService) load(ctx context.Context, actor *auth.UserContext, id uuid.UUID, action auth.Action) (*domain.Lead, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError("lead", err)
	}
	if err := authorize(actor, lead.Ownership(), action); err != nil {
		return nil, err
	}
	return lead, nil
}

// copyContactDetails fills the lead's blank person fields from the contact.
// The copy is a snapshot; later contact edits do not reach the lead.
func copyContactDetails(lead *domain.Lead, contact *domain.Contact) {
	if lead.FirstName == "" {
		lead.FirstName = contact.FirstName
	}
	if lead.LastName == "" {
		lead.LastName = contact.LastName
	}
	if lead.Email == "" {
		lead.Email = contact.Email
	}
	if lead.Phone == "" {
		lead.Phone = contact.Phone
	}
	if lead.Company == "" {
		lead.Company = contact.Company
	}
	if lead.Position == "" {
		lead.Position = contact.Position
	}
}

func validateLeadValue(v *decimal.Decimal) error {
	if v != nil && v.IsNegative() {
		return domain.NewValidationError("value", "Must not be negative")
	}
	return nil
}
