package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"gorm.io/gorm"
)

// UserFilters contains filter options for listing users
type UserFilters struct {
	Role     *domain.UserRole
	IsActive *bool
	Search   string
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail looks a user up by email, ignoring case
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "LOWER(email) = ?", strings.ToLower(email)).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *UserRepository) List(ctx context.Context, page, pageSize int, filters *UserFilters) ([]domain.User, int64, error) {
	var users []domain.User
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.User{})
	if filters != nil {
		if filters.Role != nil {
			query = query.Where("role = ?", *filters.Role)
		}
		if filters.IsActive != nil {
			query = query.Where("is_active = ?", *filters.IsActive)
		}
		if filters.Search != "" {
			p := searchPattern(filters.Search)
			query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", p, p)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(query.Order("name ASC"), page, pageSize).Find(&users).Error
	return users, total, err
}

// CountActiveByRole counts active users holding role
func (r *UserRepository) CountActiveByRole(ctx context.Context, role domain.UserRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("role = ? AND is_active = ?", role, true).
		Count(&count).Error
	return count, err
}

// Exists reports whether a user with id exists
func (r *UserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// DeleteWithTransfer deletes a user in one transaction. Records the user owns,
// is assigned to or created are handed to transferTo, or unassigned when it is nil.
// Stage history keeps its rows with the actor cleared.
func (r *UserRepository) DeleteWithTransfer(ctx context.Context, id uuid.UUID, transferTo *uuid.UUID) error {
	var target interface{} = gorm.Expr("NULL")
	if transferTo != nil {
		target = *transferTo
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []interface{}{&domain.Contact{}, &domain.Lead{}, &domain.Deal{}}
		for _, model := range owned {
			if err := tx.Model(model).Where("owner_id = ?", id).Update("owner_id", target).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&domain.Activity{}).Where("assignee_id = ?", id).Update("assignee_id", target).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Activity{}).Where("created_by_id = ?", id).Update("created_by_id", target).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.DealStageHistory{}).Where("changed_by_id = ?", id).Update("changed_by_id", gorm.Expr("NULL")).Error; err != nil {
			return err
		}

		result := tx.Delete(&domain.User{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
