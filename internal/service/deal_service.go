package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/cache"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/mapper"
	"github.com/straye-as/crm-api/internal/metrics"
	"github.com/straye-as/crm-api/internal/repository"
	"go.uber.org/zap"
)

type DealService struct {
	dealRepo    *repository.DealRepository
	historyRepo *repository.DealStageHistoryRepository
	refs        *references
	cache       *cache.Cache
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

func NewDealService(
	dealRepo *repository.DealRepository,
	historyRepo *repository.DealStageHistoryRepository,
	userRepo *repository.UserRepository,
	contactRepo *repository.ContactRepository,
	leadRepo *repository.LeadRepository,
	reportCache *cache.Cache,
	m *metrics.Metrics,
	logger *zap.Logger,
) *DealService {
	return &DealService{
		dealRepo:    dealRepo,
		historyRepo: historyRepo,
		refs:        &references{users: userRepo, contacts: contactRepo, leads: leadRepo, deals: dealRepo},
		cache:       reportCache,
		metrics:     m,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// newStageHistory builds the history row for a deal that moved from the given
// stage and probability (both nil on creation) to its current ones
func newStageHistory(actor *auth.UserContext, from *domain.DealStage, fromProb *int, deal *domain.Deal, at time.Time) *domain.DealStageHistory {
	h := &domain.DealStageHistory{
		DealID:          deal.ID,
		FromStage:       from,
		ToStage:         deal.Stage,
		FromProbability: fromProb,
		ToProbability:   deal.Probability,
		ChangedAt:       at,
	}
	if !actor.IsSystem() {
		id := actor.UserID
		h.ChangedByID = &id
	}
	return h
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (s *DealService) Create(ctx context.Context, actor *auth.UserContext, req *domain.CreateDealRequest) (*domain.DealDTO, error) {
	if err := authorizeCreate(actor); err != nil {
		return nil, err
	}

	ownerID, err := s.refs.resolveOwner(ctx, actor, req.OwnerID, "ownerId")
	if err != nil {
		return nil, err
	}
	if err := s.checkLinks(ctx, req.ContactID, req.LeadID); err != nil {
		return nil, err
	}

	deal := &domain.Deal{
		Title:             strings.TrimSpace(req.Title),
		Value:             req.Value,
		ExpectedCloseDate: utcPtr(req.ExpectedCloseDate),
		ActualCloseDate:   utcPtr(req.ActualCloseDate),
		Source:            req.Source,
		OwnerID:           ownerID,
		ContactID:         req.ContactID,
		LeadID:            req.LeadID,
		Tags:              domain.NormalizeTags(req.Tags),
		Notes:             req.Notes,
	}

	stage := req.Stage
	if stage == "" {
		stage = domain.DealStageProspecting
	}
	if err := deal.MoveStage(stage, req.Probability); err != nil {
		return nil, err
	}
	if err := deal.Validate(); err != nil {
		return nil, err
	}

	history := newStageHistory(actor, nil, nil, deal, s.now())
	if err := s.dealRepo.CreateWithHistory(ctx, deal, history); err != nil {
		return nil, translateError("deal", err)
	}

	invalidatePipelineReports(ctx, s.cache, s.logger)

	s.logger.Info("deal created",
		zap.String("deal_id", deal.ID.String()),
		zap.String("stage", string(deal.Stage)),
		zap.String("user_id", actor.UserID.String()),
	)

	dto := mapper.ToDealDTO(deal)
	return &dto, nil
}

func (s *DealService) GetByID(ctx context.Context, actor *auth.UserContext, id uuid.UUID) (*domain.DealDTO, error) {
	deal, err := s.load(ctx, actor, id, auth.ActionRead)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToDealDTO(deal)
	return &dto, nil
}

func (s *DealService) List(ctx context.Context, actor *auth.UserContext, page, pageSize int, filters *repository.DealFilters, sortBy repository.DealSortOption) (*domain.PaginatedResponse, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if filters == nil {
		filters = &repository.DealFilters{}
	}
	if scope := auth.ScopeOwner(actor.Actor()); scope != nil {
		filters.OwnerID = scope
	}

	deals, total, err := s.dealRepo.List(ctx, page, pageSize, filters, sortBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}

	dtos := make([]domain.DealDTO, len(deals))
	for i := range deals {
		dtos[i] = mapper.ToDealDTO(&deals[i])
	}
	return domain.NewPaginatedResponse(dtos, total, page, pageSize), nil
}

// Update replaces a deal's fields. A stage change goes through MoveStage, so a
// missing probability resets to the new stage's default. On the same stage an
// explicit probability is applied and a missing one keeps the current value.
func (s *DealService) Update(ctx context.Context, actor *auth.UserContext, id uuid.UUID, req *domain.UpdateDealRequest) (*domain.DealDTO, error) {
	deal, err := s.load(ctx, actor, id, auth.ActionUpdate)
	if err != nil {
		return nil, err
	}

	ownerID, err := s.refs.reassignOwner(ctx, actor, deal.OwnerID, req.OwnerID, "ownerId")
	if err != nil {
		return nil, err
	}
	if err := s.checkLinks(ctx, req.ContactID, nil); err != nil {
		return nil, err
	}

	fromStage, fromProb := deal.Stage, deal.Probability

	deal.Title = strings.TrimSpace(req.Title)
	deal.Value = req.Value
	deal.ExpectedCloseDate = utcPtr(req.ExpectedCloseDate)
	deal.ActualCloseDate = utcPtr(req.ActualCloseDate)
	deal.Source = req.Source
	deal.OwnerID = ownerID
	deal.ContactID = req.ContactID
	deal.Tags = domain.NormalizeTags(req.Tags)
	deal.Notes = req.Notes

	switch {
	case req.Stage != fromStage:
		if err := deal.MoveStage(req.Stage, req.Probability); err != nil {
			return nil, err
		}
	case req.Probability != nil:
		if !domain.ValidProbability(*req.Probability) {
			return nil, domain.NewValidationError("probability", "Must be between 0 and 100")
		}
		deal.Probability = *req.Probability
	}
	if err := deal.Validate(); err != nil {
		return nil, err
	}

	var history *domain.DealStageHistory
	if deal.Stage != fromStage {
		history = newStageHistory(actor, &fromStage, &fromProb, deal, s.now())
	}
	if err := s.dealRepo.UpdateWithHistory(ctx, deal, history); err != nil {
		return nil, translateError("deal", err)
	}

	if history != nil {
		s.metrics.RecordStageMove(string(fromStage), string(deal.Stage))
	}
	invalidatePipelineReports(ctx, s.cache, s.logger)

	s.logger.Info("deal updated",
		zap.String("deal_id", deal.ID.String()),
		zap.String("stage", string(deal.Stage)),
		zap.String("user_id", actor.UserID.String()),
	)

	dto := mapper.ToDealDTO(deal)
	return &dto, nil
}

// MoveStage moves a deal to stage. Without an explicit probability the deal takes
// the stage default, even when the stage is unchanged. Every call is recorded
// in the stage history.
func (s *DealService) MoveStage(ctx context.Context, actor *auth.UserContext, id uuid.UUID, req *domain.MoveDealStageRequest) (*domain.DealDTO, error) {
	deal, err := s.load(ctx, actor, id, auth.ActionUpdate)
	if err != nil {
		return nil, err
	}

	fromStage, fromProb := deal.Stage, deal.Probability
	if err := deal.MoveStage(req.Stage, req.Probability); err != nil {
		return nil, err
	}

	history := newStageHistory(actor, &fromStage, &fromProb, deal, s.now())
	if err := s.dealRepo.UpdateWithHistory(ctx, deal, history); err != nil {
		return nil, translateError("deal", err)
	}

	s.metrics.RecordStageMove(string(fromStage), string(deal.Stage))
	invalidatePipelineReports(ctx, s.cache, s.logger)

	s.logger.Info("deal stage moved",
		zap.String("deal_id", deal.ID.String()),
		zap.String("from_stage", string(fromStage)),
		zap.String("to_stage", string(deal.Stage)),
		zap.Int("probability", deal.Probability),
		zap.String("user_id", actor.UserID.String()),
	)

	dto := mapper.ToDealDTO(deal)
	return &dto, nil
}

func (s *DealService) Delete(ctx context.Context, actor *auth.UserContext, id uuid.UUID) error {
	if _, err := s.load(ctx, actor, id, auth.ActionDelete); err != nil {
		return err
	}
	if err := s.dealRepo.Delete(ctx, id); err != nil {
		return translateError("deal", err)
	}

	invalidatePipelineReports(ctx, s.cache, s.logger)

	s.logger.Info("deal deleted",
		zap.String("deal_id", id.String()),
		zap.String("user_id", actor.UserID.String()),
	)
	return nil
}

// GetStageHistory returns the deal's stage changes, oldest first
func (s *DealService) GetStageHistory(ctx context.Context, actor *auth.UserContext, id uuid.UUID) ([]domain.DealStageHistoryDTO, error) {
	if _, err := s.load(ctx, actor, id, auth.ActionRead); err != nil {
		return nil, err
	}

	history, err := s.historyRepo.GetByDealID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load stage history: %w", err)
	}

	dtos := make([]domain.DealStageHistoryDTO, len(history))
	for i := range history {
		dtos[i] = mapper.ToDealStageHistoryDTO(&history[i])
	}
	return dtos, nil
}

func (s *DealService) load(ctx context.Context, actor *auth.UserContext, id uuid.UUID, action auth.Action) (*domain.Deal, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	deal, err := s.dealRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError("deal", err)
	}
	if err := authorize(actor, deal.Ownership(), action); err != nil {
		return nil, err
	}
	return deal, nil
}

func (s *DealService) checkLinks(ctx context.Context, contactID, leadID *uuid.UUID) error {
	if err := s.refs.checkContact(ctx, contactID); err != nil {
		return err
	}
	return s.refs.checkLead(ctx, leadID)
}
