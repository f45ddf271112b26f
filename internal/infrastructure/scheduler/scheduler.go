package scheduler

import (
	"context"
	"time"

	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
	"github.com/robfig/cron/v3"
)

// Job represents a scheduled job
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

var parser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateSchedule reports whether schedule parses with the fields AddJob accepts
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Scheduler manages background jobs
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	log    logger.Logger
}

// New creates a new scheduler; schedules use six fields, seconds first
func New(log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		ctx:    ctx,
		cancel: cancel,
		log:    log.WithField("component", "scheduler"),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started", nil)
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped", nil)
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "0 0 16 * * MON-FRI" - 16:00 on weekdays
//   - "@hourly"            - Every hour
//   - "@every 30s"         - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.run(s.ctx, job); err != nil {
			s.log.Error("Job failed", map[string]interface{}{
				"job":   job.Name(),
				"error": err.Error(),
			})
		}
	})
	if err != nil {
		return err
	}

	s.log.Info("Job registered", map[string]interface{}{
		"schedule": schedule,
		"job":      job.Name(),
	})

	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info("Running job immediately", map[string]interface{}{
		"job": job.Name(),
	})
	return s.run(s.ctx, job)
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	start := time.Now()
	s.log.Debug("Running job", map[string]interface{}{
		"job": job.Name(),
	})

	err := job.Run(ctx)
	if err == nil {
		s.log.Debug("Job completed", map[string]interface{}{
			"job":         job.Name(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
	return err
}
