package reconcile

import (
	"context"
	"time"
)

// Adapter defines the model-specific half of a reconciliation.
// D is the discovered (read-only) item type and R the persisted record type.
// The engine owns ordering, priority allocation and failure aggregation; the
// adapter only answers questions about individual items and records.
type Adapter[D any, R any] interface {
	// Name returns the unique name of this adapter (e.g., "virtual_machines").
	Name() string

	// Key extracts the natural key of a discovered item.
	Key(item D) Key

	// RecordKey extracts the natural key of a persisted record.
	RecordKey(record R) Key

	// DisplayName returns the name reported in RecordError for a discovered item.
	DisplayName(item D) string

	// Priority returns the priority held by a persisted record.
	Priority(record R) int

	// HasChanged reports whether applying item to existing would alter any
	// mutable field.
	HasChanged(existing R, item D) bool

	// Merge applies the mutable fields of item to existing and stamps the sync time.
	// Priority and identity must be left untouched.
	Merge(existing R, item D, now time.Time) R

	// Build constructs a new record for an unseen natural key.
	Build(item D, priority int, now time.Time) R
}

// Store is the persistence surface the engine requires.
// FindByNaturalKey returns found=false with a nil error when no record matches.
type Store[R any] interface {
	FindByNaturalKey(ctx context.Context, key Key) (record R, found bool, err error)
	FindAllByParent(ctx context.Context, parentID string) ([]R, error)
	Insert(ctx context.Context, record R) (R, error)
	Update(ctx context.Context, record R) (R, error)
}
