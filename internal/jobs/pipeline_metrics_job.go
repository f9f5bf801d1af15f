package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PipelineMetricsJobName is the name of the pipeline gauge refresh job
const PipelineMetricsJobName = "pipeline_metrics"

// PipelineRefresher recomputes the per-stage pipeline gauges.
// Implemented by service.ReportService.
type PipelineRefresher interface {
	RefreshPipelineMetrics(ctx context.Context) error
}

// PipelineMetricsJob keeps the deal pipeline gauges current between scrapes
type PipelineMetricsJob struct {
	refresher PipelineRefresher
	logger    *zap.Logger
	timeout   time.Duration
}

// NewPipelineMetricsJob creates the job. timeout bounds a single refresh.
func NewPipelineMetricsJob(refresher PipelineRefresher, logger *zap.Logger, timeout time.Duration) *PipelineMetricsJob {
	return &PipelineMetricsJob{
		refresher: refresher,
		logger:    logger,
		timeout:   timeout,
	}
}

// Run refreshes the gauges once. Called by the scheduler.
func (j *PipelineMetricsJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	if err := j.refresher.RefreshPipelineMetrics(ctx); err != nil {
		j.logger.Error("pipeline metrics refresh failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Debug("pipeline metrics refreshed",
		zap.Duration("duration", time.Since(start)))
}

// RegisterPipelineMetricsJob schedules the refresh and runs it once right away
// so the gauges are populated before the first tick.
func RegisterPipelineMetricsJob(scheduler *Scheduler, refresher PipelineRefresher, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewPipelineMetricsJob(refresher, logger, timeout)
	return scheduler.Register(PipelineMetricsJobName, cronExpr, job, true)
}
