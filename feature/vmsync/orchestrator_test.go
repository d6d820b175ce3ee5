package vmsync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"infra-inventory/core/reconcile"
	"infra-inventory/feature/vmsync/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type staticResolver struct {
	endpoint models.Endpoint
	err      error
}

func (r staticResolver) Resolve(context.Context) (models.Endpoint, error) {
	return r.endpoint, r.err
}

// fakeSource answers Discover with fn and counts calls.
type fakeSource struct {
	calls atomic.Int32
	fn    func(ctx context.Context, ep models.Endpoint) (*models.DiscoveryResult, error)
}

func (s *fakeSource) Discover(ctx context.Context, ep models.Endpoint) (*models.DiscoveryResult, error) {
	s.calls.Add(1)
	return s.fn(ctx, ep)
}

func batchSource(batches ...[]models.DiscoveredVM) *fakeSource {
	var mu sync.Mutex
	i := 0
	return &fakeSource{fn: func(context.Context, models.Endpoint) (*models.DiscoveryResult, error) {
		mu.Lock()
		defer mu.Unlock()
		batch := batches[i]
		if i < len(batches)-1 {
			i++
		}
		return &models.DiscoveryResult{Success: true, RecordCount: len(batch), Records: batch}, nil
	}}
}

// countingStore records every call that reaches the store.
type countingStore struct {
	reconcile.Store[models.VirtualMachine]
	calls atomic.Int32
}

func (s *countingStore) FindByNaturalKey(ctx context.Context, key reconcile.Key) (models.VirtualMachine, bool, error) {
	s.calls.Add(1)
	return s.Store.FindByNaturalKey(ctx, key)
}

func (s *countingStore) FindAllByParent(ctx context.Context, parentID string) ([]models.VirtualMachine, error) {
	s.calls.Add(1)
	return s.Store.FindAllByParent(ctx, parentID)
}

func (s *countingStore) Insert(ctx context.Context, vm models.VirtualMachine) (models.VirtualMachine, error) {
	s.calls.Add(1)
	return s.Store.Insert(ctx, vm)
}

func (s *countingStore) Update(ctx context.Context, vm models.VirtualMachine) (models.VirtualMachine, error) {
	s.calls.Add(1)
	return s.Store.Update(ctx, vm)
}

type recordingHistory struct {
	mu      sync.Mutex
	reports []*models.RunReport
	err     error
}

func (h *recordingHistory) Record(_ context.Context, r *models.RunReport) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reports = append(h.reports, r)
	return h.err
}

func (h *recordingHistory) Recent(context.Context, int) ([]models.SyncRun, error) { return nil, nil }

func (h *recordingHistory) Find(context.Context, string) (models.SyncRun, error) {
	return models.SyncRun{}, nil
}

type failingArchive struct{ calls atomic.Int32 }

func (a *failingArchive) Store(context.Context, *models.RunReport) (string, error) {
	a.calls.Add(1)
	return "", errors.New("bucket unavailable")
}

type recordingPublisher struct {
	mu     sync.Mutex
	types  []string
	events []any
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, eventType)
	p.events = append(p.events, data)
	return p.err
}

var testEndpoint = models.Endpoint{Name: "dc1", URL: "https://vcenter.dc1/sdk", Platform: "vcenter"}

type orchestratorFixture struct {
	orch      *Orchestrator
	store     *countingStore
	gorm      *GormStore
	source    *fakeSource
	history   *recordingHistory
	publisher *recordingPublisher
}

func newFixture(t *testing.T, cfg Config, source *fakeSource) *orchestratorFixture {
	t.Helper()
	gs := NewGormStore(setupTestDB(t))
	f := &orchestratorFixture{
		store:     &countingStore{Store: gs},
		gorm:      gs,
		source:    source,
		history:   &recordingHistory{},
		publisher: &recordingPublisher{},
	}
	f.orch = NewOrchestrator(cfg, Dependencies{
		Resolver:  staticResolver{endpoint: testEndpoint},
		Source:    source,
		Store:     f.store,
		History:   f.history,
		Publisher: f.publisher,
		Logger:    zap.NewNop(),
	})
	return f
}

func enabledConfig() Config {
	return Config{Enabled: true, AllocationConcurrency: 2}
}

func (f *orchestratorFixture) vm(t *testing.T, parent, id string) models.VirtualMachine {
	t.Helper()
	vm, found, err := f.gorm.FindByNaturalKey(context.Background(), reconcile.Key{ExternalID: id, ParentID: parent})
	require.NoError(t, err)
	require.True(t, found, "vm %s/%s not stored", parent, id)
	return vm
}

func TestOrchestrator_TriggerManual_CreatesThenUpdates(t *testing.T) {
	first := []models.DiscoveredVM{
		{ExternalID: "vm-1", ParentID: "h1", Name: "A", PowerState: "poweredOn"},
		{ExternalID: "vm-2", ParentID: "h1", Name: "B", PowerState: "poweredOn"},
	}
	second := []models.DiscoveredVM{
		{ExternalID: "vm-1", ParentID: "h1", Name: "A", PowerState: "poweredOff"},
		{ExternalID: "vm-2", ParentID: "h1", Name: "B", PowerState: "poweredOn"},
		{ExternalID: "vm-3", ParentID: "h1", Name: "C", PowerState: "poweredOn"},
	}
	f := newFixture(t, enabledConfig(), batchSource(first, second))
	ctx := context.Background()

	res := f.orch.TriggerManual(ctx)
	assert.True(t, res.Success)
	assert.Equal(t, "Sync completed: 2 created, 0 updated, 0 skipped, 0 failed", res.Message)
	assert.Empty(t, res.Errors)
	require.NotNil(t, res.DurationSeconds)
	assert.Equal(t, 1, f.vm(t, "h1", "vm-1").Priority)
	assert.Equal(t, 2, f.vm(t, "h1", "vm-2").Priority)

	res = f.orch.TriggerManual(ctx)
	assert.True(t, res.Success)
	assert.Equal(t, "Sync completed: 1 created, 1 updated, 1 skipped, 0 failed", res.Message)
	assert.Equal(t, "poweredOff", f.vm(t, "h1", "vm-1").State)
	assert.Equal(t, 1, f.vm(t, "h1", "vm-1").Priority)
	assert.Equal(t, 3, f.vm(t, "h1", "vm-3").Priority)

	status := f.orch.Status()
	assert.False(t, status.Running)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, models.TriggerManual, status.LastRun.Trigger)
	assert.Equal(t, "dc1", status.LastRun.Endpoint)
	assert.Equal(t, map[string]int{"h1": 3}, status.LastRun.ByParent)

	assert.Len(t, f.history.reports, 2)
	assert.Equal(t, []string{EventRunCompleted, EventRunCompleted}, f.publisher.types)
}

func TestOrchestrator_RejectsWhileRunning(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	source := &fakeSource{fn: func(context.Context, models.Endpoint) (*models.DiscoveryResult, error) {
		close(entered)
		<-release
		return &models.DiscoveryResult{Success: true, Records: []models.DiscoveredVM{
			{ExternalID: "vm-1", ParentID: "h1", Name: "A"},
		}}, nil
	}}
	f := newFixture(t, enabledConfig(), source)
	core, logs := observer.New(zapcore.WarnLevel)
	f.orch.logger = zap.New(core)
	ctx := context.Background()

	done := make(chan models.TriggerResult)
	go func() { done <- f.orch.TriggerManual(ctx) }()
	<-entered

	storeCallsBefore := f.store.calls.Load()

	busy := f.orch.TriggerManual(ctx)
	assert.False(t, busy.Success)
	assert.Equal(t, MsgAlreadyRunning, busy.Message)
	assert.Nil(t, busy.DurationSeconds)

	f.orch.RunScheduled(ctx)

	assert.True(t, f.orch.Status().Running)
	assert.Equal(t, int32(1), f.source.calls.Load(), "rejected triggers must not call discovery")
	assert.Equal(t, storeCallsBefore, f.store.calls.Load(), "rejected triggers must not touch the store")
	assert.Equal(t, 1, logs.FilterMessage("VM sync already running, skipping scheduled run").Len())
	assert.Equal(t, 1, logs.FilterMessage("VM sync already running, rejecting manual trigger").Len())

	close(release)
	res := <-done
	assert.True(t, res.Success)
	assert.False(t, f.orch.Status().Running)
	assert.Len(t, f.history.reports, 1, "rejected triggers are not recorded")
}

func TestOrchestrator_RunScheduled_Disabled(t *testing.T) {
	f := newFixture(t, Config{Enabled: false}, batchSource(nil))

	f.orch.RunScheduled(context.Background())

	assert.Zero(t, f.source.calls.Load())
	assert.Nil(t, f.orch.Status().LastRun)

	// Manual triggers ignore the enabled flag.
	res := f.orch.TriggerManual(context.Background())
	assert.True(t, res.Success)
	assert.Equal(t, int32(1), f.source.calls.Load())
}

func TestOrchestrator_RunScheduled_Records(t *testing.T) {
	f := newFixture(t, enabledConfig(), batchSource([]models.DiscoveredVM{
		{ExternalID: "vm-1", ParentID: "h1", Name: "A"},
		{ExternalID: "vm-9", ParentID: "", Name: "orphan"},
	}))

	f.orch.RunScheduled(context.Background())

	last := f.orch.Status().LastRun
	require.NotNil(t, last)
	assert.Equal(t, models.TriggerScheduled, last.Trigger)
	assert.Equal(t, models.StatusPartial, last.Status)
	assert.Equal(t, map[string]int{"h1": 1, "unknown": 1}, last.ByParent)
	require.Len(t, last.Errors, 1)
	assert.Equal(t, "orphan", last.Errors[0].RecordName)
}

func TestOrchestrator_NoEndpoint(t *testing.T) {
	f := newFixture(t, enabledConfig(), batchSource(nil))
	f.orch.resolver = staticResolver{err: ErrNoEndpoint}

	res := f.orch.TriggerManual(context.Background())

	assert.True(t, res.Success)
	assert.Equal(t, MsgNoEndpoint, res.Message)
	assert.Zero(t, f.source.calls.Load())
	assert.Equal(t, models.StatusSkipped, f.orch.Status().LastRun.Status)
}

func TestOrchestrator_ResolveError(t *testing.T) {
	f := newFixture(t, enabledConfig(), batchSource(nil))
	f.orch.resolver = staticResolver{err: errors.New("db down")}

	res := f.orch.TriggerManual(context.Background())

	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "discovery", res.Errors[0].RecordName)
	assert.Zero(t, f.source.calls.Load())
}

func TestOrchestrator_DiscoveryError(t *testing.T) {
	source := &fakeSource{fn: func(context.Context, models.Endpoint) (*models.DiscoveryResult, error) {
		return nil, errors.New("connection refused")
	}}
	f := newFixture(t, enabledConfig(), source)

	res := f.orch.TriggerManual(context.Background())

	assert.False(t, res.Success)
	assert.Equal(t, "Sync failed: connection refused", res.Message)
	assert.Equal(t, []reconcile.RecordError{{RecordName: "dc1", ErrorMessage: "connection refused"}}, res.Errors)
	assert.Zero(t, f.store.calls.Load())
	assert.Equal(t, models.StatusFailed, f.orch.Status().LastRun.Status)
}

func TestOrchestrator_PanicReleasesGuard(t *testing.T) {
	var calls atomic.Int32
	source := &fakeSource{fn: func(context.Context, models.Endpoint) (*models.DiscoveryResult, error) {
		if calls.Add(1) == 1 {
			panic("driver exploded")
		}
		return &models.DiscoveryResult{Success: true}, nil
	}}
	f := newFixture(t, enabledConfig(), source)

	res := f.orch.TriggerManual(context.Background())
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].ErrorMessage, "driver exploded")
	assert.False(t, f.orch.Status().Running)

	res = f.orch.TriggerManual(context.Background())
	assert.True(t, res.Success, "guard must be free after a panicking run")
	assert.Equal(t, MsgNoVMs, res.Message)
}

func TestOrchestrator_EmptyBatch(t *testing.T) {
	f := newFixture(t, enabledConfig(), batchSource([]models.DiscoveredVM{}))

	res := f.orch.TriggerManual(context.Background())

	assert.True(t, res.Success)
	assert.Equal(t, MsgNoVMs, res.Message)
	assert.Zero(t, f.store.calls.Load())
}

func TestOrchestrator_AllRecordsFailed(t *testing.T) {
	f := newFixture(t, enabledConfig(), batchSource([]models.DiscoveredVM{
		{ExternalID: "vm-1", Name: "no-parent-1"},
		{ExternalID: "vm-2", Name: "no-parent-2"},
	}))

	res := f.orch.TriggerManual(context.Background())

	assert.False(t, res.Success)
	assert.Len(t, res.Errors, 2)
	assert.Equal(t, models.StatusFailed, f.orch.Status().LastRun.Status)
}

func TestOrchestrator_SideChannelFailuresDoNotChangeOutcome(t *testing.T) {
	gs := NewGormStore(setupTestDB(t))
	history := &recordingHistory{err: errors.New("history table locked")}
	archive := &failingArchive{}
	publisher := &recordingPublisher{err: errors.New("nats unavailable")}

	orch := NewOrchestrator(enabledConfig(), Dependencies{
		Resolver: staticResolver{endpoint: testEndpoint},
		Source: batchSource([]models.DiscoveredVM{
			{ExternalID: "vm-1", ParentID: "h1", Name: "A"},
		}),
		Store:     gs,
		History:   history,
		Archive:   archive,
		Publisher: publisher,
		Clock:     func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) },
	})

	res := orch.TriggerManual(context.Background())

	assert.True(t, res.Success)
	assert.Empty(t, res.Errors)
	assert.Len(t, history.reports, 1)
	assert.Equal(t, int32(1), archive.calls.Load())
	require.Len(t, publisher.events, 1)
	run, ok := publisher.events[0].(models.SyncRun)
	require.True(t, ok)
	assert.Equal(t, 1, run.Created)
}

type panickingPublisher struct{}

func (panickingPublisher) Publish(context.Context, string, any) error {
	panic("publisher exploded")
}

type panickingHistory struct{ recordingHistory }

func (*panickingHistory) Record(context.Context, *models.RunReport) error {
	panic("history exploded")
}

func TestOrchestrator_SideChannelPanicsAreContained(t *testing.T) {
	f := newFixture(t, enabledConfig(), batchSource([]models.DiscoveredVM{
		{ExternalID: "vm-1", ParentID: "h1", Name: "A"},
	}))
	core, logs := observer.New(zapcore.ErrorLevel)
	f.orch.logger = zap.New(core)
	f.orch.history = &panickingHistory{}
	f.orch.publisher = panickingPublisher{}
	ctx := context.Background()

	var res models.TriggerResult
	require.NotPanics(t, func() { res = f.orch.TriggerManual(ctx) })
	assert.True(t, res.Success)
	assert.Equal(t, "Sync completed: 1 created, 0 updated, 0 skipped, 0 failed", res.Message)
	assert.False(t, f.orch.Status().Running)

	assert.NotPanics(t, func() { f.orch.RunScheduled(ctx) })
	assert.False(t, f.orch.Status().Running)

	panics := logs.FilterMessage("Sync side channel panicked").All()
	require.Len(t, panics, 4)
	channels := map[string]int{}
	for _, entry := range panics {
		channels[entry.ContextMap()["channel"].(string)]++
	}
	assert.Equal(t, map[string]int{"history": 2, "events": 2}, channels)
}
