package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingKey is recorded for discovered items without a complete natural key.
	ErrMissingKey = errors.New("missing natural key")
)

// Key is the natural key used to match discovered items to persisted records.
// Both components are required.
type Key struct {
	// ExternalID is the identifier assigned by the source platform.
	ExternalID string

	// ParentID is the identifier of the owning parent (e.g. the physical server).
	ParentID string
}

// Valid reports whether both key components are present.
func (k Key) Valid() bool {
	return k.ExternalID != "" && k.ParentID != ""
}

// String returns the key in "parent/external" form for logs and error messages.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.ParentID, k.ExternalID)
}

// RecordError describes a single record whose reconciliation failed.
type RecordError struct {
	// RecordName is the display name of the discovered item.
	RecordName string `json:"recordName"`

	// ErrorMessage is the error text returned by the failing step.
	ErrorMessage string `json:"errorMessage"`
}

// SyncResult summarizes one reconciliation pass over a discovery batch.
// Created + Updated + Skipped + Failed always equals the batch size.
type SyncResult struct {
	// Created counts records inserted for previously unseen natural keys.
	Created int `json:"createdCount"`

	// Updated counts existing records that differed and were rewritten.
	Updated int `json:"updatedCount"`

	// Skipped counts existing records that were already up to date.
	Skipped int `json:"skippedCount"`

	// Failed counts records whose lookup or write returned an error.
	Failed int `json:"failedCount"`

	// Errors holds one entry per failed record, in processing order.
	Errors []RecordError `json:"errors"`
}

// Total returns the number of items accounted for by the result.
func (r *SyncResult) Total() int {
	return r.Created + r.Updated + r.Skipped + r.Failed
}

// HasFailures reports whether at least one record failed.
func (r *SyncResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *SyncResult) fail(name string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, RecordError{
		RecordName:   name,
		ErrorMessage: err.Error(),
	})
}
