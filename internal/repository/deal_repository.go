package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/crm-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DealFilters contains all filter options for listing deals
type DealFilters struct {
	OwnerID   *uuid.UUID
	Stage     *domain.DealStage
	ContactID *uuid.UUID
	LeadID    *uuid.UUID
	MinValue  *decimal.Decimal
	MaxValue  *decimal.Decimal
	// Open excludes CLOSED_WON and CLOSED_LOST when true and keeps only them when false
	Open   *bool
	Search string
}

// DealSortOption represents available sort options
type DealSortOption string

const (
	DealSortByCreatedDesc     DealSortOption = "created_desc"
	DealSortByCreatedAsc      DealSortOption = "created_asc"
	DealSortByValueDesc       DealSortOption = "value_desc"
	DealSortByValueAsc        DealSortOption = "value_asc"
	DealSortByProbabilityDesc DealSortOption = "probability_desc"
	DealSortByCloseDateAsc    DealSortOption = "close_date_asc"
	DealSortByWeightedDesc    DealSortOption = "weighted_desc"
)

// StageAggregate is one row of the per-stage pipeline rollup
type StageAggregate struct {
	Stage         domain.DealStage
	Count         int64
	TotalValue    decimal.Decimal
	WeightedValue decimal.Decimal
}

var closedStages = []domain.DealStage{domain.DealStageClosedWon, domain.DealStageClosedLost}

type DealRepository struct {
	db *gorm.DB
}

func NewDealRepository(db *gorm.DB) *DealRepository {
	return &DealRepository{db: db}
}

func (r *DealRepository) Create(ctx context.Context, deal *domain.Deal) error {
	// Omit associations to avoid GORM trying to validate related records
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(deal).Error
}

// CreateWithHistory inserts the deal and its first stage history row atomically
func (r *DealRepository) CreateWithHistory(ctx context.Context, deal *domain.Deal, history *domain.DealStageHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(deal).Error; err != nil {
			return err
		}
		history.DealID = deal.ID
		return tx.Create(history).Error
	})
}

func (r *DealRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deal, error) {
	var deal domain.Deal
	err := r.db.WithContext(ctx).First(&deal, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *DealRepository) Update(ctx context.Context, deal *domain.Deal) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(deal).Error
}

// UpdateWithHistory saves the deal and, when history is non-nil, records the stage change
func (r *DealRepository) UpdateWithHistory(ctx context.Context, deal *domain.Deal, history *domain.DealStageHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(deal).Error; err != nil {
			return err
		}
		if history == nil {
			return nil
		}
		history.DealID = deal.ID
		return tx.Create(history).Error
	})
}

// Delete removes the deal together with its stage history
func (r *DealRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("deal_id = ?", id).Delete(&domain.DealStageHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Deal{}, "id = ?", id).Error
	})
}

// Exists reports whether a deal with id exists
func (r *DealRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Deal{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *DealRepository) List(ctx context.Context, page, pageSize int, filters *DealFilters, sortBy DealSortOption) ([]domain.Deal, int64, error) {
	var deals []domain.Deal
	var total int64

	query := r.applyFilters(r.db.WithContext(ctx).Model(&domain.Deal{}), filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.applySorting(query, sortBy)

	err := paginate(query, page, pageSize).Find(&deals).Error
	return deals, total, err
}

// StageSummary aggregates deal count, value and weighted value per stage.
// A non-nil ownerID restricts the rollup to that owner's deals.
func (r *DealRepository) StageSummary(ctx context.Context, ownerID *uuid.UUID) ([]StageAggregate, error) {
	var rows []StageAggregate

	query := r.db.WithContext(ctx).Model(&domain.Deal{}).
		Select("stage, COUNT(*) AS count, COALESCE(SUM(value), 0) AS total_value, " +
			"COALESCE(SUM(ROUND(value * probability / 100.0, 0)), 0) AS weighted_value")
	if ownerID != nil {
		query = query.Where("owner_id = ?", *ownerID)
	}
	err := query.Group("stage").Scan(&rows).Error
	return rows, err
}

func (r *DealRepository) applyFilters(query *gorm.DB, filters *DealFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.OwnerID != nil {
		query = query.Where("owner_id = ?", *filters.OwnerID)
	}
	if filters.Stage != nil {
		query = query.Where("stage = ?", *filters.Stage)
	}
	if filters.ContactID != nil {
		query = query.Where("contact_id = ?", *filters.ContactID)
	}
	if filters.LeadID != nil {
		query = query.Where("lead_id = ?", *filters.LeadID)
	}
	if filters.MinValue != nil {
		query = query.Where("value >= ?", *filters.MinValue)
	}
	if filters.MaxValue != nil {
		query = query.Where("value <= ?", *filters.MaxValue)
	}
	if filters.Open != nil {
		if *filters.Open {
			query = query.Where("stage NOT IN ?", closedStages)
		} else {
			query = query.Where("stage IN ?", closedStages)
		}
	}
	if filters.Search != "" {
		p := searchPattern(filters.Search)
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(notes) LIKE ?)", p, p)
	}
	return query
}

func (r *DealRepository) applySorting(query *gorm.DB, sortBy DealSortOption) *gorm.DB {
	switch sortBy {
	case DealSortByCreatedAsc:
		return query.Order("created_at ASC")
	case DealSortByValueDesc:
		return query.Order("value DESC")
	case DealSortByValueAsc:
		return query.Order("value ASC")
	case DealSortByProbabilityDesc:
		return query.Order("probability DESC")
	case DealSortByCloseDateAsc:
		return query.Order("expected_close_date ASC")
	case DealSortByWeightedDesc:
		return query.Order("value * probability DESC")
	default:
		return query.Order("created_at DESC")
	}
}
