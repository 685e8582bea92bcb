// Package mssql implements the unidb connector for Microsoft SQL Server
// using github.com/microsoft/go-mssqldb over database/sql.
package mssql

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	mssqldb "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/unidb-io/unidb/pkg/batch"
	"github.com/unidb-io/unidb/pkg/config"
	"github.com/unidb-io/unidb/pkg/connector"
	"github.com/unidb-io/unidb/pkg/connector/sqlconv"
	"github.com/unidb-io/unidb/pkg/dialect"
	"github.com/unidb-io/unidb/pkg/errors"
	"github.com/unidb-io/unidb/pkg/logger"
)

// Connector is the SQL Server backend. It owns a database/sql pool speaking
// TDS and the mssql dialect.
type Connector struct {
	*connector.CRUD

	db             *sql.DB
	timeoutSeconds int
	logger         *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// New opens a pool against the server described by desc and verifies
// connectivity with an eager ping. desc must already be validated.
func New(ctx context.Context, desc config.ConnectionDescriptor) (*Connector, error) {
	db, err := sql.Open("sqlserver", buildDSN(desc))
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConnection, "failed to open sqlserver pool")
	}

	maxConns := 10
	if raw, ok := desc.Options["max_connections"]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			maxConns = n
		}
	}
	db.SetMaxOpenConns(maxConns)

	c := &Connector{
		db:             db,
		timeoutSeconds: desc.TimeoutSeconds,
		logger: logger.With(
			zap.String("connector", "mssql"),
			zap.String("host", desc.Host),
			zap.String("database", desc.Database),
		),
	}
	c.CRUD = &connector.CRUD{Conn: c, Dialect: dialect.MSSQL}

	pingCtx, cancel := connector.OpContext(ctx, desc.TimeoutSeconds)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, mapError(err, "failed to connect to sqlserver")
	}

	c.logger.Info("mssql connector ready")
	return c, nil
}

// buildDSN renders the descriptor as an ADO-style connection string, the
// form go-mssqldb documents for every auth mode.
func buildDSN(desc config.ConnectionDescriptor) string {
	parts := []string{
		"server=" + desc.Host,
		"database=" + desc.Database,
	}
	if desc.Port != 0 {
		parts = append(parts, "port="+strconv.Itoa(desc.Port))
	}
	if desc.IntegratedAuth {
		parts = append(parts, "trusted_connection=yes")
	} else {
		parts = append(parts, "user id="+desc.Username, "password="+desc.Password)
	}
	if desc.TimeoutSeconds > 0 {
		parts = append(parts, fmt.Sprintf("dial timeout=%d", desc.TimeoutSeconds))
	}
	parts = append(parts, "app name=unidb")
	return strings.Join(parts, ";")
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

	result, err := sqlconv.RowsToBatch(rows, mapType, convertValue)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("query executed", zap.Int("rows", result.Rows()))
	return result, nil
}

// ExecuteUpdate runs a statement that returns no rows and reports the
// affected row count.
func (c *Connector) ExecuteUpdate(ctx context.Context, sqlText string) (connector.Outcome, error) {
	if err := c.checkOpen(); err != nil {
		return connector.Outcome{}, err
	}
	opCtx, cancel := connector.OpContext(ctx, c.timeoutSeconds)
	defer cancel()

	res, err := c.db.ExecContext(opCtx, sqlText)
	if err != nil {
		return connector.Outcome{}, mapError(err, "statement failed")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return connector.Outcome{}, mapError(err, "failed to read affected row count")
	}
	c.logger.Debug("statement executed", zap.Int64("rows_affected", affected))
	return connector.Outcome{RowsAffected: uint64(affected), Succeeded: true}, nil
}

// IsAlive reports whether the pool still answers a ping. It never returns
// an error; failure to ping means not alive.
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

// Close releases the pool. Closing an already closed connector is a no-op.
func (c *Connector) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.db.Close(); err != nil {
		return errors.Wrap(err, errors.KindConnection, "failed to close sqlserver pool")
	}
	c.logger.Info("mssql connector closed")
	return nil
}

func (c *Connector) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Connector) Backend() config.Backend {
	return config.BackendMSSQL
}

func (c *Connector) checkOpen() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New(errors.KindAlreadyClosed, "connector is closed")
	}
	return nil
}

// mapError classifies driver errors into the unidb taxonomy using the
// server-side error number carried on mssql.Error.
func mapError(err error, message string) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.KindTimeout, message)
	}

	var srvErr mssqldb.Error
	if stderrors.As(err, &srvErr) {
		kind := kindForNumber(srvErr.Number)
		return errors.Wrap(err, kind, message).
			WithDetail("number", strconv.Itoa(int(srvErr.Number)))
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		if netErr.Timeout() {
			return errors.Wrap(err, errors.KindTimeout, message)
		}
		return errors.Wrap(err, errors.KindConnection, message)
	}

	return errors.Wrap(err, errors.KindQuery, message)
}

func kindForNumber(number int32) errors.Kind {
	switch number {
	case 2627, 2601: // unique or primary key violation
		return errors.KindConstraint
	case 547: // foreign key or check violation
		return errors.KindConstraint
	case 515: // NOT NULL violation
		return errors.KindConstraint
	case 4060, 18456, 18452, 233: // login and database access failures
		return errors.KindConnection
	case 1222, -2: // lock request timeout, client timeout
		return errors.KindTimeout
	default:
		return errors.KindQuery
	}
}
