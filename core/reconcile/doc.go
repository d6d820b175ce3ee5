// Package reconcile provides a generic engine that converges persisted inventory
// records toward the state observed by an external discovery source.
//
// The engine is driven by an Adapter (model-specific comparisons and record
// construction) and a Store (lookup, insert and update by natural key). It is
// deliberately small: everything that talks to the outside world lives behind
// those two interfaces.
//
// # Architecture
//
// A reconciliation pass over one discovery batch has three steps:
//
// 1. Grouping: the batch is partitioned by parent id. Groups keep the order in
// which their parent was first seen and items keep their relative order.
//
// 2. Priority planning: for every parent the existing records are loaded once,
// unmatched natural keys are identified and the Allocator assigns each of them
// the smallest unused positive priority. Parents are planned concurrently and
// the whole plan is computed before the first write, so a failed insert can
// never hand its priority to another record.
//
// 3. Per-record reconciliation: each item is matched by natural key, skipped
// when unchanged, merged and updated when changed, or inserted with its planned
// priority when new. A failing item is recorded in SyncResult.Errors and the
// loop moves on.
//
// # Exclusivity
//
// Guard is an atomic single-flight flag. Callers that cannot acquire it are
// rejected rather than queued; the release function is meant to be deferred so
// the flag is cleared on every exit path, panics included.
//
// # Usage Example
//
//	engine := reconcile.NewEngine(adapter, store, logger)
//	result := engine.Reconcile(ctx, batch)
//	logger.Info("Reconciled", zap.Int("created", result.Created))
package reconcile
