// Package sqlite implements the unidb connector for embedded SQLite
// databases using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strconv"
	"sync"

	"go.uber.org/zap"
	sqlitedriver "modernc.org/sqlite"

	"github.com/unidb-io/unidb/pkg/batch"
	"github.com/unidb-io/unidb/pkg/config"
	"github.com/unidb-io/unidb/pkg/connector"
	"github.com/unidb-io/unidb/pkg/connector/sqlconv"
	"github.com/unidb-io/unidb/pkg/dialect"
	"github.com/unidb-io/unidb/pkg/errors"
	"github.com/unidb-io/unidb/pkg/logger"
)

// Connector is the embedded SQLite backend. It owns a database/sql pool over
// the file (or in-memory) database and the sqlite dialect.
type Connector struct {
	*connector.CRUD

	db             *sql.DB
	timeoutSeconds int
	logger         *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// New opens the database described by desc and verifies connectivity with an
// eager ping. desc must already be validated.
func New(ctx context.Context, desc config.ConnectionDescriptor) (*Connector, error) {
	db, err := sql.Open("sqlite", desc.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConnection, "failed to open sqlite database")
	}

	if desc.Path == config.InMemoryPath {
		// Every pooled connection would otherwise get its own private
		// in-memory database.
		db.SetMaxOpenConns(1)
	} else {
		maxConns := 10
		if raw, ok := desc.Options["max_connections"]; ok {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				maxConns = n
			}
		}
		db.SetMaxOpenConns(maxConns)
	}

	c := &Connector{
		db:             db,
		timeoutSeconds: desc.TimeoutSeconds,
		logger: logger.With(
			zap.String("connector", "sqlite"),
			zap.String("path", desc.Path),
		),
	}
	c.CRUD = &connector.CRUD{Conn: c, Dialect: dialect.SQLite}

	pingCtx, cancel := connector.OpContext(ctx, desc.TimeoutSeconds)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.KindConnection, "failed to open sqlite database").
			WithDetail("path", desc.Path)
	}

	c.logger.Info("sqlite connector ready")
	return c, nil
}

// Execute runs sql and returns the result set as a batch.
func (c *Connector) Execute(ctx context.Context, sqlText string) (*batch.Batch, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	opCtx, cancel := connector.OpContext(ctx, c.timeoutSeconds)
	defer cancel()

	rows, err := c.db.QueryContext(opCtx, sqlText)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	defer rows.Close()

	result, err := sqlconv.RowsToBatch(rows, mapType, nil)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExecuteUpdate runs a mutating statement and reports affected rows.
func (c *Connector) ExecuteUpdate(ctx context.Context, sqlText string) (connector.Outcome, error) {
	if err := c.checkOpen(); err != nil {
		return connector.Outcome{}, err
	}

	opCtx, cancel := connector.OpContext(ctx, c.timeoutSeconds)
	defer cancel()

	result, err := c.db.ExecContext(opCtx, sqlText)
	if err != nil {
		return connector.Outcome{}, mapError(err, "statement failed")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return connector.Outcome{}, mapError(err, "failed to read affected row count")
	}
	return connector.Success(uint64(affected)), nil
}

// IsAlive probes the database. Any failure, including a closed connector,
// reports false.
func (c *Connector) IsAlive(ctx context.Context) bool {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return false
	}

	opCtx, cancel := connector.OpContext(ctx, c.timeoutSeconds)
	defer cancel()
	return c.db.PingContext(opCtx) == nil
}

// Close releases the pool. Repeat calls return nil.
func (c *Connector) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.db.Close(); err != nil {
		return errors.Wrap(err, errors.KindConnection, "failed to close sqlite database")
	}
	c.logger.Info("sqlite connector closed")
	return nil
}

// IsClosed reports whether Close has completed.
func (c *Connector) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Backend returns the sqlite backend tag.
func (c *Connector) Backend() config.Backend {
	return config.BackendSQLite
}

func (c *Connector) checkOpen() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New(errors.KindAlreadyClosed, "sqlite connector is closed")
	}
	return nil
}

// SQLite primary result codes. The extended code's low byte carries the
// primary code.
const (
	codeError      = 1
	codePerm       = 3
	codeBusy       = 5
	codeLocked     = 6
	codeIOErr      = 10
	codeCantOpen   = 14
	codeConstraint = 19
	codeAuth       = 23
)

// mapError converts a driver failure into exactly one taxonomy kind.
func mapError(err error, message string) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.KindTimeout, message)
	}

	var sqliteErr *sqlitedriver.Error
	if stderrors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case codeConstraint:
			return errors.Wrap(err, errors.KindConstraint, message)
		case codeIOErr, codeCantOpen:
			return errors.Wrap(err, errors.KindIO, message)
		case codePerm, codeAuth:
			return errors.Wrap(err, errors.KindConnection, message)
		case codeBusy, codeLocked:
			return errors.Wrap(err, errors.KindConnection, message)
		case codeError:
			return errors.Wrap(err, errors.KindQuery, message)
		}
	}

	return errors.Wrap(err, errors.KindQuery, message)
}
