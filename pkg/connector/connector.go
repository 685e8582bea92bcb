// Package connector defines the capability contracts every unidb backend
// satisfies and the shared CRUD delegation built on top of them.
//
// The contract has two tiers. Tier 1 (Connector) is basic execution: run SQL,
// probe liveness, close. Tier 2 (CRUDConnector) adds insert, select, update
// and delete, each built by the dialect query builder and dispatched through
// Tier 1. Backends implement Tier 1 natively and obtain Tier 2 by embedding
// CRUD.
//
// Every connector instance moves through exactly two states, Open then
// Closed, in that order and only once. Operations on a closed connector fail
// fast with KindAlreadyClosed before any driver dispatch; Close itself is
// idempotent and returns nil on repeat calls.
package connector

import (
	"context"

	"github.com/unidb-io/unidb/pkg/batch"
	"github.com/unidb-io/unidb/pkg/config"
)

// Outcome reports the result of a mutating operation. Succeeded is true iff
// Message is absent or purely informational; errors never travel inside an
// Outcome, they use the error return.
type Outcome struct {
	RowsAffected uint64
	Succeeded    bool
	Message      string
}

// Success returns a successful outcome for the given row count.
func Success(rowsAffected uint64) Outcome {
	return Outcome{RowsAffected: rowsAffected, Succeeded: true}
}

// Connector is the Tier 1 contract: basic execution against one backend.
// Implementations own a pooled native handle; callers may issue operations
// concurrently up to the pool's capacity, with overflow waiting on a free
// handle.
type Connector interface {
	// Execute runs sql and returns its result set as a columnar batch.
	// Statements without a result set return an empty batch.
	Execute(ctx context.Context, sql string) (*batch.Batch, error)

	// ExecuteUpdate runs a mutating statement and reports affected rows.
	ExecuteUpdate(ctx context.Context, sql string) (Outcome, error)

	// IsAlive probes the backend. It never returns an error: any probe
	// failure, including a closed connector, reports false.
	IsAlive(ctx context.Context) bool

	// Close releases the pooled handle. Closing an already-closed connector
	// is a no-op returning nil.
	Close(ctx context.Context) error

	// IsClosed reports whether Close has completed.
	IsClosed() bool

	// Backend returns the backend tag this connector serves.
	Backend() config.Backend
}

// CRUDConnector is the Tier 2 contract: Connector plus structured CRUD.
type CRUDConnector interface {
	Connector

	// Insert writes every row of rows into table. On a mid-sequence failure
	// the returned outcome carries the rows applied before the failure;
	// already-applied rows are not rolled back by this layer.
	Insert(ctx context.Context, table string, rows *batch.Batch) (Outcome, error)

	// Select reads rows from table. columns nil selects all columns, where
	// is verbatim predicate text, limit <= 0 means no row cap.
	Select(ctx context.Context, table string, columns []string, where string, limit int) (*batch.Batch, error)

	// Update assigns values to every row matching where; an empty where
	// updates all rows.
	Update(ctx context.Context, table string, values map[string]interface{}, where string) (Outcome, error)

	// Delete removes every row matching where; an empty where deletes all
	// rows.
	Delete(ctx context.Context, table string, where string) (Outcome, error)
}
