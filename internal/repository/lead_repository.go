package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeadFilters contains filter options for listing leads
type LeadFilters struct {
	OwnerID   *uuid.UUID
	Status    *domain.LeadStatus
	Source    *domain.LeadSource
	ContactID *uuid.UUID
	Search    string
}

// LeadSortOption represents available sort options
type LeadSortOption string

const (
	LeadSortByCreatedDesc LeadSortOption = "created_desc"
	LeadSortByCreatedAsc  LeadSortOption = "created_asc"
	LeadSortByValueDesc   LeadSortOption = "value_desc"
	LeadSortByValueAsc    LeadSortOption = "value_asc"
	LeadSortByTitleAsc    LeadSortOption = "title_asc"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(lead).Error
}

func (r *LeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).First(&lead, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(lead).Error
}

func (r *LeadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Lead{}, "id = ?", id).Error
}

// Exists reports whether a lead with id exists
func (r *LeadRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Lead{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *LeadRepository) List(ctx context.Context, page, pageSize int, filters *LeadFilters, sortBy LeadSortOption) ([]domain.Lead, int64, error) {
	var leads []domain.Lead
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Lead{})
	if filters != nil {
		if filters.OwnerID != nil {
			query = query.Where("owner_id = ?", *filters.OwnerID)
		}
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
		if filters.Source != nil {
			query = query.Where("source = ?", *filters.Source)
		}
		if filters.ContactID != nil {
			query = query.Where("contact_id = ?", *filters.ContactID)
		}
		if filters.Search != "" {
			p := searchPattern(filters.Search)
			query = query.Where("(LOWER(title) LIKE ? OR LOWER(company) LIKE ? OR LOWER(email) LIKE ?)", p, p, p)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch sortBy {
	case LeadSortByCreatedAsc:
		query = query.Order("created_at ASC")
	case LeadSortByValueDesc:
		query = query.Order("value DESC")
	case LeadSortByValueAsc:
		query = query.Order("value ASC")
	case LeadSortByTitleAsc:
		query = query.Order("title ASC")
	default:
		query = query.Order("created_at DESC")
	}

	err := paginate(query, page, pageSize).Find(&leads).Error
	return leads, total, err
}
