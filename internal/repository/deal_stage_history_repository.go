package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"gorm.io/gorm"
)

type DealStageHistoryRepository struct {
	db *gorm.DB
}

func NewDealStageHistoryRepository(db *gorm.DB) *DealStageHistoryRepository {
	return &DealStageHistoryRepository{db: db}
}

// Create records a new stage transition
func (r *DealStageHistoryRepository) Create(ctx context.Context, history *domain.DealStageHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

// GetByDealID returns the stage history for a deal, oldest first
func (r *DealStageHistoryRepository) GetByDealID(ctx context.Context, dealID uuid.UUID) ([]domain.DealStageHistory, error) {
	var history []domain.DealStageHistory
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("changed_at ASC").
		Find(&history).Error
	return history, err
}

// CountTransitionsByStage returns how many recorded transitions ended in each stage
func (r *DealStageHistoryRepository) CountTransitionsByStage(ctx context.Context) (map[domain.DealStage]int64, error) {
	type result struct {
		ToStage domain.DealStage
		Count   int64
	}
	var results []result

	err := r.db.WithContext(ctx).Model(&domain.DealStageHistory{}).
		Select("to_stage, COUNT(*) AS count").
		Group("to_stage").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.DealStage]int64, len(results))
	for _, r := range results {
		counts[r.ToStage] = r.Count
	}
	return counts, nil
}
