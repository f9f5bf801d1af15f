package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/cache"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/metrics"
	"github.com/straye-as/crm-api/internal/repository"
	"go.uber.org/zap"
)

const (
	pipelineCacheName   = "pipeline"
	pipelineCachePrefix = "reports:pipeline:"
)

// invalidatePipelineReports drops every cached pipeline summary. Failures are
// logged and otherwise ignored; the entries expire on their own.
func invalidatePipelineReports(ctx context.Context, c *cache.Cache, logger *zap.Logger) {
	if err := c.DeletePattern(ctx, pipelineCachePrefix+"*"); err != nil {
		logger.Warn("failed to invalidate pipeline report cache", zap.Error(err))
	}
}

// invalidatePipelineScopes drops the unscoped summary and the summaries of the
// given owners, leaving every other owner's entry in place.
func invalidatePipelineScopes(ctx context.Context, c *cache.Cache, logger *zap.Logger, ownerIDs ...uuid.UUID) {
	keys := []string{pipelineCacheKey(nil)}
	for i := range ownerIDs {
		keys = append(keys, pipelineCacheKey(&ownerIDs[i]))
	}
	if err := c.Delete(ctx, keys...); err != nil {
		logger.Warn("failed to invalidate pipeline report cache", zap.Error(err))
	}
}

func pipelineCacheKey(ownerID *uuid.UUID) string {
	if ownerID == nil {
		return pipelineCachePrefix + "all"
	}
	return pipelineCachePrefix + ownerID.String()
}

// ReportService builds the pipeline and activity reports
type ReportService struct {
	dealRepo     *repository.DealRepository
	activityRepo *repository.ActivityRepository
	cache        *cache.Cache
	cacheTTL     time.Duration
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

func NewReportService(
	dealRepo *repository.DealRepository,
	activityRepo *repository.ActivityRepository,
	reportCache *cache.Cache,
	cacheTTL time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		dealRepo:     dealRepo,
		activityRepo: activityRepo,
		cache:        reportCache,
		cacheTTL:     cacheTTL,
		metrics:      m,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// PipelineSummary returns per-stage totals. REP and READ_ONLY users see only the
// deals they own.
func (s *ReportService) PipelineSummary(ctx context.Context, actor *auth.UserContext) (*domain.PipelineSummaryDTO, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	scope := auth.ScopeOwner(actor.Actor())
	key := pipelineCacheKey(scope)

	var cached domain.PipelineSummaryDTO
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("pipeline report cache read failed", zap.Error(err))
	}
	if hit {
		s.metrics.RecordCacheHit(pipelineCacheName)
		return &cached, nil
	}
	if s.cache != nil {
		s.metrics.RecordCacheMiss(pipelineCacheName)
	}

	summary, err := s.computePipeline(ctx, scope)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, key, summary, s.cacheTTL); err != nil {
		s.logger.Warn("pipeline report cache write failed", zap.Error(err))
	}
	return summary, nil
}

// ActivityStats counts pending, completed and overdue activities visible to the actor
func (s *ReportService) ActivityStats(ctx context.Context, actor *auth.UserContext) (*domain.ActivityStatsDTO, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	stats, err := s.activityRepo.Stats(ctx, auth.ScopeOwner(actor.Actor()), s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to compute activity stats: %w", err)
	}
	return stats, nil
}

// RefreshPipelineMetrics recomputes the unscoped pipeline and publishes it as gauges
func (s *ReportService) RefreshPipelineMetrics(ctx context.Context) error {
	summary, err := s.computePipeline(ctx, nil)
	if err != nil {
		return err
	}
	for _, st := range summary.Stages {
		s.metrics.SetStage(string(st.Stage), st.Count, st.TotalValue, st.WeightedValue)
	}
	return nil
}

func (s *ReportService) computePipeline(ctx context.Context, ownerID *uuid.UUID) (*domain.PipelineSummaryDTO, error) {
	rows, err := s.dealRepo.StageSummary(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate pipeline: %w", err)
	}

	byStage := make(map[domain.DealStage]repository.StageAggregate, len(rows))
	for _, row := range rows {
		byStage[row.Stage] = row
	}

	summary := &domain.PipelineSummaryDTO{
		Stages:            make([]domain.StageSummaryDTO, 0, len(domain.DealStages)),
		OpenValue:         decimal.Zero,
		OpenWeightedValue: decimal.Zero,
		WonValue:          decimal.Zero,
		GeneratedAt:       s.now().Format(time.RFC3339),
		ScopedToOwnerID:   ownerID,
	}

	for _, stage := range domain.DealStages {
		row := byStage[stage]
		entry := domain.StageSummaryDTO{
			Stage:              stage,
			DefaultProbability: domain.DefaultProbability(stage),
			Count:              row.Count,
			TotalValue:         row.TotalValue,
			WeightedValue:      row.WeightedValue,
		}
		summary.Stages = append(summary.Stages, entry)

		if stage == domain.DealStageClosedWon {
			summary.WonValue = row.TotalValue
		}
		if !stage.IsClosed() {
			summary.OpenDeals += row.Count
			summary.OpenValue = summary.OpenValue.Add(row.TotalValue)
			summary.OpenWeightedValue = summary.OpenWeightedValue.Add(row.WeightedValue)
		}
	}
	return summary, nil
}
