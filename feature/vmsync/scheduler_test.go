package vmsync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestScheduler_RunOnStartAndTicks(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(zap.NewNop(), Job{
		Name:       "count",
		Interval:   20 * time.Millisecond,
		RunOnStart: true,
		Run:        func(context.Context) { runs.Add(1) },
	})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(stopped)
	}()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	s.Wait()
}

func TestScheduler_InFlightRunSurvivesCancel(t *testing.T) {
	started := make(chan struct{})
	var runCtxErr atomic.Value
	var finished atomic.Bool

	s := NewScheduler(zap.NewNop(), Job{
		Name:       "slow",
		Interval:   time.Hour,
		RunOnStart: true,
		Run: func(ctx context.Context) {
			close(started)
			time.Sleep(50 * time.Millisecond)
			if err := ctx.Err(); err != nil {
				runCtxErr.Store(err)
			}
			finished.Store(true)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go s.Start(ctx)
	<-started
	cancel()

	s.Wait()
	assert.True(t, finished.Load())
	assert.Nil(t, runCtxErr.Load(), "run context must not be cancelled with the scheduler")
}

func TestScheduler_IgnoresInvalidJobs(t *testing.T) {
	s := NewScheduler(nil,
		Job{Name: "no-interval", Run: func(context.Context) {}},
		Job{Name: "no-func", Interval: time.Second},
		Job{Name: "ok", Interval: time.Second, Run: func(context.Context) {}},
	)

	assert.Len(t, s.jobs, 1)
	assert.Equal(t, "ok", s.jobs[0].Name)
}

func TestSyncJob(t *testing.T) {
	cfg := Config{Interval: 5 * time.Minute, RunOnStart: true}
	job := SyncJob(cfg, &Orchestrator{})

	assert.Equal(t, "vm-sync", job.Name)
	assert.Equal(t, 5*time.Minute, job.Interval)
	assert.True(t, job.RunOnStart)
	assert.NotNil(t, job.Run)
}
