package vmsync

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"infra-inventory/core/events"
	"infra-inventory/core/reconcile"
	"infra-inventory/feature/vmsync/discovery"
	"infra-inventory/feature/vmsync/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventRunCompleted is the CloudEvent type published after every executed run.
const EventRunCompleted = "inventory.vm.sync.completed"

// Result messages shared by the API and the CLI.
const (
	MsgAlreadyRunning = "Sync already in progress"
	MsgNoEndpoint     = "No discovery endpoint configured"
	MsgNoVMs          = "No virtual machines discovered"
)

const unknownParent = "unknown"

// ErrRunPanicked wraps a panic recovered inside a run.
var ErrRunPanicked = errors.New("sync run panicked")

// Dependencies are the collaborators of an Orchestrator. Metrics, History,
// Archive and Publisher are optional.
type Dependencies struct {
	Resolver  EndpointResolver
	Source    discovery.Source
	Store     reconcile.Store[models.VirtualMachine]
	Metrics   Metrics
	History   History
	Archive   Archive
	Publisher events.Publisher
	Logger    *zap.Logger
	Clock     func() time.Time
}

// Orchestrator runs VM syncs one at a time. The scheduled and manual entry
// points share one Guard, so an invocation that finds a run in flight is
// rejected and does nothing.
type Orchestrator struct {
	cfg       Config
	guard     reconcile.Guard
	resolver  EndpointResolver
	source    discovery.Source
	engine    *reconcile.Engine[models.DiscoveredVM, models.VirtualMachine]
	metrics   Metrics
	history   History
	archive   Archive
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time

	mu   sync.RWMutex
	last *models.RunReport
}

// NewOrchestrator wires an orchestrator from its dependencies.
func NewOrchestrator(cfg Config, deps Dependencies) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &Orchestrator{
		cfg:      cfg,
		resolver: deps.Resolver,
		source:   deps.Source,
		engine: reconcile.NewEngine[models.DiscoveredVM, models.VirtualMachine](
			Adapter{}, deps.Store, logger,
			reconcile.WithClock(now),
			reconcile.WithConcurrency(cfg.AllocationConcurrency),
		),
		metrics:   metrics,
		history:   deps.History,
		archive:   deps.Archive,
		publisher: publisher,
		logger:    logger,
		now:       now,
	}
}

// RunScheduled is the periodic entry point. It never returns an error: every
// failure is logged and recorded in the run report.
func (o *Orchestrator) RunScheduled(ctx context.Context) {
	if !o.cfg.Enabled {
		o.logger.Debug("VM sync disabled, skipping scheduled run")
		return
	}

	release, ok := o.guard.TryAcquire()
	if !ok {
		o.logger.Warn("VM sync already running, skipping scheduled run")
		return
	}
	defer release()

	o.execute(ctx, models.TriggerScheduled)
}

// TriggerManual runs a sync synchronously and reports its outcome. The enabled
// flag only gates the scheduled path.
func (o *Orchestrator) TriggerManual(ctx context.Context) models.TriggerResult {
	result, _ := o.triggerManual(ctx)
	return result
}

// triggerManual also reports whether the run was rejected because another run
// held the guard.
func (o *Orchestrator) triggerManual(ctx context.Context) (models.TriggerResult, bool) {
	release, ok := o.guard.TryAcquire()
	if !ok {
		o.logger.Warn("VM sync already running, rejecting manual trigger")
		return models.TriggerResult{Success: false, Message: MsgAlreadyRunning}, false
	}
	defer release()

	report := o.execute(ctx, models.TriggerManual)

	duration := report.Duration().Seconds()
	result := models.TriggerResult{
		Success:         report.Status != models.StatusFailed,
		Message:         report.Message,
		DurationSeconds: &duration,
	}
	if len(report.Errors) > 0 {
		result.Errors = report.Errors
	}
	return result, true
}

// Status reports whether a run is in flight and the outcome of the last one.
func (o *Orchestrator) Status() models.Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return models.Status{
		Running: o.guard.Running(),
		Enabled: o.cfg.Enabled,
		LastRun: o.last,
	}
}

// execute runs the body while the guard is held and then feeds the side
// channels. Side-channel failures are logged and never change the outcome.
func (o *Orchestrator) execute(ctx context.Context, trigger models.Trigger) *models.RunReport {
	report := &models.RunReport{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		StartedAt: o.now(),
	}
	l := o.logger.With(zap.String("run_id", report.ID), zap.String("trigger", string(trigger)))
	l.Info("VM sync started")
	o.metrics.RunStarted()

	o.runBody(ctx, report, l)

	report.FinishedAt = o.now()
	l.Info("VM sync finished",
		zap.String("status", report.Status),
		zap.Duration("elapsed", report.Duration()),
	)

	o.afterRun(ctx, report, l)
	return report
}

func (o *Orchestrator) runBody(ctx context.Context, report *models.RunReport, l *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrRunPanicked, r)
			l.Error("VM sync panicked",
				zap.String("endpoint", report.Endpoint),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			o.fail(report, err)
		}
	}()

	endpoint, err := o.resolver.Resolve(ctx)
	if errors.Is(err, ErrNoEndpoint) {
		l.Info("No hypervisor endpoint configured, nothing to sync")
		report.Status = models.StatusSkipped
		report.Message = MsgNoEndpoint
		return
	}
	if err != nil {
		l.Error("Failed to resolve hypervisor endpoint", zap.Error(err))
		o.fail(report, err)
		return
	}
	report.Endpoint = endpoint.Name
	l = l.With(zap.String("endpoint", endpoint.Name))

	discovered, err := o.source.Discover(ctx, endpoint)
	if err != nil {
		l.Error("VM discovery failed", zap.Error(err))
		o.fail(report, err)
		return
	}

	var batch []models.DiscoveredVM
	if discovered != nil {
		batch = discovered.Records
	}
	report.Discovered = len(batch)

	if len(batch) == 0 {
		l.Info(MsgNoVMs)
		report.Status = models.StatusSuccess
		report.Message = MsgNoVMs
		report.Result = &reconcile.SyncResult{Errors: []reconcile.RecordError{}}
		return
	}

	report.ByParent = countByParent(batch)
	result := o.engine.Reconcile(ctx, batch)
	report.Result = result
	report.Errors = result.Errors

	switch {
	case result.Failed == 0:
		report.Status = models.StatusSuccess
	case result.Failed == len(batch):
		report.Status = models.StatusFailed
	default:
		report.Status = models.StatusPartial
	}
	report.Message = fmt.Sprintf("Sync completed: %d created, %d updated, %d skipped, %d failed",
		result.Created, result.Updated, result.Skipped, result.Failed)

	l.Info("VM sync summary",
		zap.Int("discovered", report.Discovered),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Duration("elapsed", o.now().Sub(report.StartedAt)),
		zap.Any("by_parent", report.ByParent),
	)
}

// fail marks the run failed and records err against the endpoint name.
func (o *Orchestrator) fail(report *models.RunReport, err error) {
	name := report.Endpoint
	if name == "" {
		name = "discovery"
	}
	report.Status = models.StatusFailed
	report.Message = "Sync failed: " + err.Error()
	report.Errors = append(report.Errors, reconcile.RecordError{
		RecordName:   name,
		ErrorMessage: err.Error(),
	})
}

func (o *Orchestrator) afterRun(ctx context.Context, report *models.RunReport, l *zap.Logger) {
	o.mu.Lock()
	o.last = report
	o.mu.Unlock()

	o.sideChannel(l, "metrics", func() error {
		o.metrics.RunFinished(ctx, report)
		return nil
	})

	if o.history != nil {
		o.sideChannel(l, "history", func() error {
			return o.history.Record(ctx, report)
		})
	}

	if o.archive != nil {
		o.sideChannel(l, "archive", func() error {
			name, err := o.archive.Store(ctx, report)
			if err == nil {
				l.Debug("Archived sync report", zap.String("object", name))
			}
			return err
		})
	}

	o.sideChannel(l, "events", func() error {
		return o.publisher.Publish(ctx, EventRunCompleted, models.NewSyncRun(report))
	})
}

// sideChannel runs fn and logs its error or panic. The run outcome is already
// final at this point.
func (o *Orchestrator) sideChannel(l *zap.Logger, name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			l.Error("Sync side channel panicked",
				zap.String("channel", name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	if err := fn(); err != nil {
		l.Warn("Sync side channel failed", zap.String("channel", name), zap.Error(err))
	}
}

// countByParent counts discovered VMs per parent; VMs without a parent land
// in the "unknown" bucket.
func countByParent(batch []models.DiscoveredVM) map[string]int {
	out := make(map[string]int)
	for _, vm := range batch {
		parent := vm.ParentID
		if parent == "" {
			parent = unknownParent
		}
		out[parent]++
	}
	return out
}
