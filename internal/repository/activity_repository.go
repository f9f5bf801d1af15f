package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActivityStatus filters activities by completion state
type ActivityStatus string

const (
	ActivityStatusPending   ActivityStatus = "pending"
	ActivityStatusCompleted ActivityStatus = "completed"
	ActivityStatusOverdue   ActivityStatus = "overdue"
)

// ActivityFilters contains filter options for listing activities
type ActivityFilters struct {
	// VisibleTo restricts the listing to activities the user is assigned to or created
	VisibleTo  *uuid.UUID
	Type       *domain.ActivityType
	Priority   *domain.ActivityPriority
	Status     ActivityStatus
	AssigneeID *uuid.UUID
	ContactID  *uuid.UUID
	DealID     *uuid.UUID
	LeadID     *uuid.UUID
	// Now is the reference time for the overdue status
	Now time.Time
}

// ActivityRepository handles database operations for activities
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(activity).Error
}

func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	var activity domain.Activity
	err := r.db.WithContext(ctx).First(&activity, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *ActivityRepository) Update(ctx context.Context, activity *domain.Activity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(activity).Error
}

// SetCompleted writes only the completion fields
func (r *ActivityRepository) SetCompleted(ctx context.Context, id uuid.UUID, completed bool, completedAt *time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Activity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_completed": completed,
			"completed_at": completedAt,
		}).Error
}

// Delete removes an activity by ID
func (r *ActivityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Activity{}, "id = ?", id).Error
}

func (r *ActivityRepository) List(ctx context.Context, page, pageSize int, filters *ActivityFilters) ([]domain.Activity, int64, error) {
	var activities []domain.Activity
	var total int64

	query := r.applyFilters(r.db.WithContext(ctx).Model(&domain.Activity{}), filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Pending first, then by due date with undated activities last
	query = query.Order("is_completed ASC").
		Order("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END").
		Order("due_date ASC").
		Order("created_at DESC")

	err := paginate(query, page, pageSize).Find(&activities).Error
	return activities, total, err
}

// Stats counts pending, completed and overdue activities visible to a user,
// or all activities when visibleTo is nil
func (r *ActivityRepository) Stats(ctx context.Context, visibleTo *uuid.UUID, now time.Time) (*domain.ActivityStatsDTO, error) {
	stats := &domain.ActivityStatsDTO{}

	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&domain.Activity{})
		return scopeVisible(q, visibleTo)
	}

	if err := base().Where("is_completed = ?", false).Count(&stats.Pending).Error; err != nil {
		return nil, err
	}
	if err := base().Where("is_completed = ?", true).Count(&stats.Completed).Error; err != nil {
		return nil, err
	}
	if err := base().Where("is_completed = ? AND due_date IS NOT NULL AND due_date < ?", false, now).Count(&stats.Overdue).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func scopeVisible(query *gorm.DB, userID *uuid.UUID) *gorm.DB {
	if userID == nil {
		return query
	}
	return query.Where("(assignee_id = ? OR created_by_id = ?)", *userID, *userID)
}

func (r *ActivityRepository) applyFilters(query *gorm.DB, filters *ActivityFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	query = scopeVisible(query, filters.VisibleTo)
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Priority != nil {
		query = query.Where("priority = ?", *filters.Priority)
	}
	if filters.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filters.AssigneeID)
	}
	if filters.ContactID != nil {
		query = query.Where("contact_id = ?", *filters.ContactID)
	}
	if filters.DealID != nil {
		query = query.Where("deal_id = ?", *filters.DealID)
	}
	if filters.LeadID != nil {
		query = query.Where("lead_id = ?", *filters.LeadID)
	}

	switch filters.Status {
	case ActivityStatusPending:
		query = query.Where("is_completed = ?", false)
	case ActivityStatusCompleted:
		query = query.Where("is_completed = ?", true)
	case ActivityStatusOverdue:
		now := filters.Now
		if now.IsZero() {
			now = time.Now()
		}
		query = query.Where("is_completed = ? AND due_date IS NOT NULL AND due_date < ?", false, now)
	}
	return query
}
