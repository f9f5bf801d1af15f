package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/mapper"
	"github.com/straye-as/crm-api/internal/metrics"
	"github.com/straye-as/crm-api/internal/repository"
	"go.uber.org/zap"
)

type ActivityService struct {
	activityRepo *repository.ActivityRepository
	refs         *references
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

func NewActivityService(
	activityRepo *repository.ActivityRepository,
	userRepo *repository.UserRepository,
	contactRepo *repository.ContactRepository,
	leadRepo *repository.LeadRepository,
	dealRepo *repository.DealRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		refs:         &references{users: userRepo, contacts: contactRepo, leads: leadRepo, deals: dealRepo},
		metrics:      m,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *ActivityService) Create(ctx context.Context, actor *auth.UserContext, req *domain.CreateActivityRequest) (*domain.ActivityDTO, error) {
	if err := authorizeCreate(actor); err != nil {
		return nil, err
	}

	assigneeID, err := s.refs.resolveOwner(ctx, actor, req.AssigneeID, "assigneeId")
	if err != nil {
		return nil, err
	}
	if err := s.checkLinks(ctx, req.ContactID, req.DealID, req.LeadID); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = domain.ActivityPriorityMedium
	}

	activity := &domain.Activity{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Type:        req.Type,
		Priority:    priority,
		DueDate:     utcPtr(req.DueDate),
		AssigneeID:  assigneeID,
		ContactID:   req.ContactID,
		DealID:      req.DealID,
		LeadID:      req.LeadID,
	}
	if !actor.IsSystem() {
		id := actor.UserID
		activity.CreatedByID = &id
	}
	activity.SetCompleted(req.IsCompleted, s.now())

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, translateError("activity", err)
	}
	if activity.IsCompleted {
		s.metrics.RecordActivityCompleted()
	}

	s.logger.Info("activity created",
		zap.String("activity_id", activity.ID.String()),
		zap.String("type", string(activity.Type)),
		zap.String("user_id", actor.UserID.String()),
	)

	dto := mapper.ToActivityDTO(activity, s.now())
	return &dto, nil
}

func (s *ActivityService) GetByID(ctx context.Context, actor *auth.UserContext, id uuid.UUID) (*domain.ActivityDTO, error) {
	activity, err := s.load(ctx, actor, id, auth.ActionRead)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToActivityDTO(activity, s.now())
	return &dto, nil
}

// List returns activities matching filters. REP and READ_ONLY only see
// activities they created or are assigned to.
func (s *ActivityService) List(ctx context.Context, actor *auth.UserContext, page, pageSize int, filters *repository.ActivityFilters) (*domain.PaginatedResponse, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if filters == nil {
		filters = &repository.ActivityFilters{}
	}
	now := s.now()
	filters.VisibleTo = auth.ScopeOwner(actor.Actor())
	filters.Now = now

	activities, total, err := s.activityRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	dtos := make([]domain.ActivityDTO, len(activities))
	for i := range activities {
		dtos[i] = mapper.ToActivityDTO(&activities[i], now)
	}
	return domain.NewPaginatedResponse(dtos, total, page, pageSize), nil
}

// Update replaces an activity's fields. A provided isCompleted that differs from
// the stored value goes through SetCompleted so completedAt stays consistent.
func (s *ActivityService) Update(ctx context.Context, actor *auth.UserContext, id uuid.UUID, req *domain.UpdateActivityRequest) (*domain.ActivityDTO, error) {
	activity, err := s.load(ctx, actor, id, auth.ActionUpdate)
	if err != nil {
		return nil, err
	}

	assigneeID, err := s.refs.reassignOwner(ctx, actor, activity.AssigneeID, req.AssigneeID, "assigneeId")
	if err != nil {
		return nil, err
	}
	if err := s.checkLinks(ctx, req.ContactID, req.DealID, req.LeadID); err != nil {
		return nil, err
	}

	activity.Title = strings.TrimSpace(req.Title)
	activity.Description = req.Description
	activity.Type = req.Type
	activity.Priority = req.Priority
	activity.DueDate = utcPtr(req.DueDate)
	activity.AssigneeID = assigneeID
	activity.ContactID = req.ContactID
	activity.DealID = req.DealID
	activity.LeadID = req.LeadID

	completedNow := false
	if req.IsCompleted != nil && *req.IsCompleted != activity.IsCompleted {
		activity.SetCompleted(*req.IsCompleted, s.now())
		completedNow = activity.IsCompleted
	}

	if err := s.activityRepo.Update(ctx, activity); err != nil {
		return nil, translateError("activity", err)
	}
	if completedNow {
		s.metrics.RecordActivityCompleted()
	}

	s.logger.Info("activity updated",
		zap.String("activity_id", activity.ID.String()),
		zap.String("user_id", actor.UserID.String()),
	)

	dto := mapper.ToActivityDTO(activity, s.now())
	return &dto, nil
}

// SetCompleted toggles completion. Completing stamps completedAt with the current
// time, also when the activity was already completed; reopening clears it.
func (s *ActivityService) SetCompleted(ctx context.Context, actor *auth.UserContext, id uuid.UUID, completed bool) (*domain.ActivityDTO, error) {
	activity, err := s.load(ctx, actor, id, auth.ActionUpdate)
	if err != nil {
		return nil, err
	}

	wasCompleted := activity.IsCompleted
	now := s.now()
	activity.SetCompleted(completed, now)

	if err := s.activityRepo.SetCompleted(ctx, activity.ID, activity.IsCompleted, activity.CompletedAt); err != nil {
		return nil, translateError("activity", err)
	}
	if completed && !wasCompleted {
		s.metrics.RecordActivityCompleted()
	}

	s.logger.Info("activity completion changed",
		zap.String("activity_id", activity.ID.String()),
		zap.Bool("is_completed", activity.IsCompleted),
		zap.String("user_id", actor.UserID.String()),
	)

	dto := mapper.ToActivityDTO(activity, now)
	return &dto, nil
}

func (s *ActivityService) Delete(ctx context.Context, actor *auth.UserContext, id uuid.UUID) error {
	if _, err := s.load(ctx, actor, id, auth.ActionDelete); err != nil {
		return err
	}
	if err := s.activityRepo.Delete(ctx, id); err != nil {
		return translateError("activity", err)
	}

	s.logger.Info("activity deleted",
		zap.String("activity_id", id.String()),
		zap.String("user_id", actor.UserID.String()),
	)
	return nil
}

func (s *ActivityService) load(ctx context.Context, actor *auth.UserContext, id uuid.UUID, action auth.Action) (*domain.Activity, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	activity, err := s.activityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translateError("activity", err)
	}
	if err := authorize(actor, activity.Ownership(), action); err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *ActivityService) checkLinks(ctx context.Context, contactID, dealID, leadID *uuid.UUID) error {
	if err := s.refs.checkContact(ctx, contactID); err != nil {
		return err
	}
	if err := s.refs.checkDeal(ctx, dealID); err != nil {
		return err
	}
	return s.refs.checkLead(ctx, leadID)
}
