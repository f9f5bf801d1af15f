// Package jobs runs the CRM API's periodic background work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of scheduled work. Run must bound its own duration.
type Job interface {
	Run()
}

// cronParser accepts both the 5-field form and the 6-field form with leading seconds,
// plus descriptors such as "@every 5m".
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// cronLogger routes the cron library's own messages into zap
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Scheduler owns the cron runner and the set of named jobs registered on it.
// A tick is skipped while the previous run of the same job is still going,
// and a panicking job is logged instead of taking the process down.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger

	mu   sync.Mutex
	jobs map[string]cron.EntryID

	// immediate runs started by Register, waited on by Shutdown
	immediate sync.WaitGroup
}

// NewScheduler creates a stopped scheduler
func NewScheduler(logger *zap.Logger) *Scheduler {
	cl := cronLogger{log: logger.Named("cron").Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		jobs:   make(map[string]cron.EntryID),
	}
}

// Register schedules job under name. With runNow the job also runs once in the
// background right away, so its effect is visible before the first tick.
func (s *Scheduler) Register(name, spec string, job Job, runNow bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	id, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}
	s.jobs[name] = id

	s.logger.Info("registered scheduled job",
		zap.String("job_name", name),
		zap.String("cron_expr", spec),
		zap.Bool("run_now", runNow))

	if runNow {
		s.immediate.Add(1)
		go func() {
			defer s.immediate.Done()
			s.run(name, job)
		}()
	}
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	start := time.Now()
	job.Run()
	s.logger.Debug("scheduled job finished",
		zap.String("job_name", name),
		zap.Duration("duration", time.Since(start)))
}

// Next reports when the named job runs next. The time is zero until Start.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Start begins firing registered jobs
func (s *Scheduler) Start() {
	s.logger.Info("starting job scheduler", zap.Int("jobs", s.jobCount()))
	s.cron.Start()
}

func (s *Scheduler) jobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Shutdown stops firing new runs and waits for in-flight ones, including the
// immediate runs started by Register, until ctx expires.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.logger.Info("stopping job scheduler")
	stopped := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		s.immediate.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler shutdown: %w", ctx.Err())
	}
}
