package connector

import (
	"context"

	"github.com/unidb-io/unidb/pkg/batch"
	"github.com/unidb-io/unidb/pkg/dialect"
	"github.com/unidb-io/unidb/pkg/query"
)

// CRUD provides the Tier 2 operations on top of any Tier 1 implementation.
// Backends embed it with their own Connector and dialect; the closed-state
// check and per-operation timeout live in the backend's Execute and
// ExecuteUpdate, so everything here inherits them.
type CRUD struct {
	Conn    Connector
	Dialect *dialect.Dialect
}

// Insert builds the dialect's INSERT statement(s) for rows and executes
// them in sequence. When a later statement in the sequence fails, the
// returned outcome reports the rows applied by the earlier statements; this
// layer does not roll them back.
func (c *CRUD) Insert(ctx context.Context, table string, rows *batch.Batch) (Outcome, error) {
	statements, err := query.Insert(c.Dialect, table, rows)
	if err != nil {
		return Outcome{}, err
	}

	var applied uint64
	for _, sql := range statements {
		outcome, err := c.Conn.ExecuteUpdate(ctx, sql)
		if err != nil {
			return Outcome{RowsAffected: applied}, err
		}
		applied += outcome.RowsAffected
	}

	return Success(applied), nil
}

// Select builds and executes the dialect's SELECT.
func (c *CRUD) Select(ctx context.Context, table string, columns []string, where string, limit int) (*batch.Batch, error) {
	return c.Conn.Execute(ctx, query.Select(c.Dialect, table, columns, where, limit))
}

// Update builds and executes the dialect's UPDATE.
func (c *CRUD) Update(ctx context.Context, table string, values map[string]interface{}, where string) (Outcome, error) {
	sql, err := query.Update(c.Dialect, table, values, where)
	if err != nil {
		return Outcome{}, err
	}
	return c.Conn.ExecuteUpdate(ctx, sql)
}

// Delete builds and executes the dialect's DELETE.
func (c *CRUD) Delete(ctx context.Context, table string, where string) (Outcome, error) {
	return c.Conn.ExecuteUpdate(ctx, query.Delete(c.Dialect, table, where))
}
