package vmsync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a periodic task driven by the Scheduler.
type Job struct {
	Name       string
	Interval   time.Duration
	RunOnStart bool
	Run        func(ctx context.Context)
}

// Scheduler fires jobs on fixed intervals. Every firing runs in its own
// goroutine so a slow run never delays the ticker; overlap control belongs to
// the job itself.
type Scheduler struct {
	jobs   []Job
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler for jobs. Jobs with a non-positive interval are ignored.
func NewScheduler(logger *zap.Logger, jobs ...Job) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{logger: logger}
	for _, j := range jobs {
		if j.Interval <= 0 || j.Run == nil {
			logger.Warn("Ignoring job without interval", zap.String("job", j.Name))
			continue
		}
		s.jobs = append(s.jobs, j)
	}
	return s
}

// SyncJob returns the scheduled VM sync job for o.
func SyncJob(cfg Config, o *Orchestrator) Job {
	return Job{
		Name:       "vm-sync",
		Interval:   cfg.Interval,
		RunOnStart: cfg.RunOnStart,
		Run:        o.RunScheduled,
	}
}

// Start blocks until ctx is done. In-flight runs are detached from ctx so a
// run that started always completes; use Wait to drain them on shutdown.
func (s *Scheduler) Start(ctx context.Context) {
	var loops sync.WaitGroup
	for _, j := range s.jobs {
		loops.Add(1)
		go func() {
			defer loops.Done()
			s.loop(ctx, j)
		}()
	}
	loops.Wait()
}

// Wait blocks until every started run has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	s.logger.Info("Scheduler started", zap.String("job", j.Name), zap.Duration("interval", j.Interval))

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	if j.RunOnStart {
		s.fire(ctx, j)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped", zap.String("job", j.Name))
			return
		case <-ticker.C:
			s.fire(ctx, j)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, j Job) {
	runCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		j.Run(runCtx)
	}()
}
