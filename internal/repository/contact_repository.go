package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContactFilters contains filter options for listing contacts
type ContactFilters struct {
	// OwnerID restricts the listing to one owner. Set by the service for scoped roles.
	OwnerID *uuid.UUID
	Company string
	Tag     string
	Search  string
}

// ContactSortOption represents available sort options
type ContactSortOption string

const (
	ContactSortByNameAsc     ContactSortOption = "name_asc"
	ContactSortByNameDesc    ContactSortOption = "name_desc"
	ContactSortByCreatedDesc ContactSortOption = "created_desc"
	ContactSortByCreatedAsc  ContactSortOption = "created_asc"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(contact).Error
}

func (r *ContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	var contact domain.Contact
	err := r.db.WithContext(ctx).First(&contact, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// GetByEmail looks a contact up by email, ignoring case
func (r *ContactRepository) GetByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	var contact domain.Contact
	err := r.db.WithContext(ctx).First(&contact, "LOWER(email) = ?", strings.ToLower(email)).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *ContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(contact).Error
}

func (r *ContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Contact{}, "id = ?", id).Error
}

// Exists reports whether a contact with id exists
func (r *ContactRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Contact{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *ContactRepository) List(ctx context.Context, page, pageSize int, filters *ContactFilters, sortBy ContactSortOption) ([]domain.Contact, int64, error) {
	var contacts []domain.Contact
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Contact{})
	if filters != nil {
		if filters.OwnerID != nil {
			query = query.Where("owner_id = ?", *filters.OwnerID)
		}
		if filters.Company != "" {
			query = query.Where("LOWER(company) LIKE ?", searchPattern(filters.Company))
		}
		if filters.Tag != "" {
			// tags are stored as a JSON array of strings
			query = query.Where("tags LIKE ?", `%"`+filters.Tag+`"%`)
		}
		if filters.Search != "" {
			p := searchPattern(filters.Search)
			query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company) LIKE ?", p, p, p, p)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch sortBy {
	case ContactSortByNameDesc:
		query = query.Order("last_name DESC, first_name DESC")
	case ContactSortByCreatedDesc:
		query = query.Order("created_at DESC")
	case ContactSortByCreatedAsc:
		query = query.Order("created_at ASC")
	default:
		query = query.Order("last_name ASC, first_name ASC")
	}

	err := paginate(query, page, pageSize).Find(&contacts).Error
	return contacts, total, err
}
