package reconcile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Engine converges persisted records toward one discovery batch.
// It processes items one at a time in batch order (grouped by parent) and never
// aborts on a per-item failure; failures are aggregated into the SyncResult.
type Engine[D any, R any] struct {
	adapter     Adapter[D, R]
	store       Store[R]
	logger      *zap.Logger
	now         func() time.Time
	concurrency int
}

// EngineOption customizes an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	now         func() time.Time
	concurrency int
}

// WithClock overrides the time source used for sync timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(o *engineOptions) { o.now = now }
}

// WithConcurrency bounds how many parents are loaded concurrently while
// pre-computing priorities. Values below 1 fall back to the default.
func WithConcurrency(n int) EngineOption {
	return func(o *engineOptions) { o.concurrency = n }
}

// NewEngine creates an engine for the given adapter and store.
func NewEngine[D any, R any](adapter Adapter[D, R], store Store[R], logger *zap.Logger, opts ...EngineOption) *Engine[D, R] {
	o := engineOptions{now: time.Now, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency < 1 {
		o.concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine[D, R]{
		adapter:     adapter,
		store:       store,
		logger:      logger.With(zap.String("adapter", adapter.Name())),
		now:         o.now,
		concurrency: o.concurrency,
	}
}

// group is the slice of a batch that belongs to one parent.
type group[D any] struct {
	parentID string
	items    []D
}

// parentPlan holds the priorities computed for one parent before any write.
type parentPlan struct {
	allocator  *Allocator
	priorities map[Key]int
	err        error
}

// priorityFor returns the pre-computed priority for key. A key that looked
// matched during planning but is gone at write time gets a fresh value from the
// same allocator, which still excludes everything handed out so far.
func (p *parentPlan) priorityFor(key Key) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	if priority, ok := p.priorities[key]; ok {
		return priority, nil
	}
	priority := p.allocator.Next()
	p.priorities[key] = priority
	return priority, nil
}

// Reconcile applies the batch and returns the aggregated result.
// Only store calls block; grouping, allocation and change detection are in memory.
func (e *Engine[D, R]) Reconcile(ctx context.Context, batch []D) *SyncResult {
	result := &SyncResult{Errors: []RecordError{}}
	if len(batch) == 0 {
		return result
	}

	groups := e.groupByParent(batch)
	plans := e.planPriorities(ctx, groups)

	for i, g := range groups {
		for _, item := range g.items {
			e.reconcileOne(ctx, item, plans[i], result)
		}
	}

	return result
}

// groupByParent partitions the batch by parent, keeping first-seen group order
// and the relative order of items inside each group.
func (e *Engine[D, R]) groupByParent(batch []D) []group[D] {
	index := make(map[string]int)
	var groups []group[D]

	for _, item := range batch {
		parent := e.adapter.Key(item).ParentID
		i, ok := index[parent]
		if !ok {
			i = len(groups)
			index[parent] = i
			groups = append(groups, group[D]{parentID: parent})
		}
		groups[i].items = append(groups[i].items, item)
	}

	return groups
}

// planPriorities loads existing records per parent and allocates priorities for
// every natural key that has no match. Parents are independent and are planned
// concurrently; each goroutine writes only its own slot.
func (e *Engine[D, R]) planPriorities(ctx context.Context, groups []group[D]) []*parentPlan {
	plans := make([]*parentPlan, len(groups))

	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for i := range groups {
		g.Go(func() error {
			plans[i] = e.planParent(ctx, groups[i])
			return nil
		})
	}
	_ = g.Wait()

	return plans
}

func (e *Engine[D, R]) planParent(ctx context.Context, g group[D]) *parentPlan {
	if g.parentID == "" {
		// Items without a parent fail key validation before they need a priority.
		return &parentPlan{allocator: NewAllocator(nil), priorities: map[Key]int{}}
	}

	existing, err := e.store.FindAllByParent(ctx, g.parentID)
	if err != nil {
		e.logger.Warn("Failed to load existing records for parent",
			zap.String("parent_id", g.parentID),
			zap.Error(err),
		)
		return &parentPlan{err: fmt.Errorf("load existing records for parent %s: %w", g.parentID, err)}
	}

	inUse := make([]int, 0, len(existing))
	matched := make(map[Key]struct{}, len(existing))
	for _, rec := range existing {
		inUse = append(inUse, e.adapter.Priority(rec))
		matched[e.adapter.RecordKey(rec)] = struct{}{}
	}

	var unmatched []Key
	for _, item := range g.items {
		key := e.adapter.Key(item)
		if !key.Valid() {
			continue
		}
		if _, ok := matched[key]; ok {
			continue
		}
		unmatched = append(unmatched, key)
	}

	allocator := NewAllocator(inUse)
	return &parentPlan{
		allocator:  allocator,
		priorities: allocator.Assign(unmatched),
	}
}

func (e *Engine[D, R]) reconcileOne(ctx context.Context, item D, plan *parentPlan, result *SyncResult) {
	name := e.adapter.DisplayName(item)
	key := e.adapter.Key(item)

	if err := ctx.Err(); err != nil {
		result.fail(name, err)
		return
	}

	if !key.Valid() {
		e.recordFailure(result, name, key, fmt.Errorf("%w: external_id=%q parent_id=%q", ErrMissingKey, key.ExternalID, key.ParentID))
		return
	}

	existing, found, err := e.store.FindByNaturalKey(ctx, key)
	if err != nil {
		e.recordFailure(result, name, key, fmt.Errorf("lookup %s: %w", key, err))
		return
	}

	if found {
		if !e.adapter.HasChanged(existing, item) {
			result.Skipped++
			return
		}
		merged := e.adapter.Merge(existing, item, e.now())
		if _, err := e.store.Update(ctx, merged); err != nil {
			e.recordFailure(result, name, key, fmt.Errorf("update %s: %w", key, err))
			return
		}
		result.Updated++
		return
	}

	priority, err := plan.priorityFor(key)
	if err != nil {
		e.recordFailure(result, name, key, err)
		return
	}

	record := e.adapter.Build(item, priority, e.now())
	if _, err := e.store.Insert(ctx, record); err != nil {
		e.recordFailure(result, name, key, fmt.Errorf("insert %s: %w", key, err))
		return
	}
	result.Created++
}

func (e *Engine[D, R]) recordFailure(result *SyncResult, name string, key Key, err error) {
	e.logger.Warn("Failed to reconcile record",
		zap.String("record", name),
		zap.String("key", key.String()),
		zap.Error(err),
	)
	result.fail(name, err)
}
