package catalog

import (
	"context"
	"fmt"
)

// StoreReason classifies a store failure.
type StoreReason string

const (
	// SchemaMismatch means the backing table's columns disagree with Columns.
	// Appending would produce a misaligned row, so the write is refused.
	SchemaMismatch StoreReason = "schema_mismatch"
	// Unavailable covers transport and backend I/O failures.
	Unavailable StoreReason = "unavailable"
)

// StoreError is an infrastructure-side catalog failure.
type StoreError struct {
	Reason StoreReason
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("catalog store error (%s): %v", e.Reason, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Writer appends normalized records to the shared tabular store.
//
// Append is idempotent on Record.RequestID: the store capability only
// guarantees at-least-once delivery, so a record whose request ID already has
// a row returns that row's ID instead of creating a duplicate.
type Writer interface {
	Append(ctx context.Context, rec Record) (rowID string, err error)
	Find(ctx context.Context, requestID string) (rowID string, found bool, err error)
}

// Maintainer is the operator surface of a store backend, driven by the
// store CLI commands rather than the pipeline.
type Maintainer interface {
	EnsureHeaders(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
