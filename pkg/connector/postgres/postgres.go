// Package postgres implements the unidb connector for PostgreSQL on top of
// a pgxpool connection pool.
package postgres

import (
	"context"
	stderrors "errors"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/unidb-io/unidb/pkg/batch"
	"github.com/unidb-io/unidb/pkg/config"
	"github.com/unidb-io/unidb/pkg/connector"
	"github.com/unidb-io/unidb/pkg/dialect"
	"github.com/unidb-io/unidb/pkg/errors"
	"github.com/unidb-io/unidb/pkg/logger"
)

// Connector is the PostgreSQL backend. It owns a pgxpool.Pool and the
// postgres dialect.
type Connector struct {
	*connector.CRUD

	pool           *pgxpool.Pool
	timeoutSeconds int
	logger         *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// New creates a pool for the server described by desc and verifies
// connectivity with an eager ping. desc must already be validated.
func New(ctx context.Context, desc config.ConnectionDescriptor) (*Connector, error) {
	poolCfg, err := pgxpool.ParseConfig(buildConnString(desc))
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConfig, "failed to parse postgres connection string")
	}
	if raw, ok := desc.Options["max_connections"]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			poolCfg.MaxConns = int32(n)
		}
	}

	openCtx, cancel := connector.OpContext(ctx, desc.TimeoutSeconds)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(openCtx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConnection, "failed to create postgres pool")
	}

	c := &Connector{
		pool:           pool,
		timeoutSeconds: desc.TimeoutSeconds,
		logger: logger.With(
			zap.String("connector", "postgres"),
			zap.String("host", desc.Host),
			zap.String("database", desc.Database),
		),
	}
	c.CRUD = &connector.CRUD{Conn: c, Dialect: dialect.Postgres}

	if err := pool.Ping(openCtx); err != nil {
		pool.Close()
		return nil, mapError(err, "failed to connect to postgres")
	}

	c.logger.Info("postgres connector ready")
	return c, nil
}

// buildConnString renders the descriptor in libpq keyword form. Integrated
// auth means no explicit credentials; the server then authenticates the
// process identity (peer, GSSAPI or similar).
func buildConnString(desc config.ConnectionDescriptor) string {
	parts := []string{
		"host=" + desc.Host,
		"dbname=" + desc.Database,
	}
	if desc.Port != 0 {
		parts = append(parts, "port="+strconv.Itoa(desc.Port))
	}
	if !desc.IntegratedAuth {
		parts = append(parts, "user="+desc.Username)
		if desc.Password != "" {
			parts = append(parts, "password="+desc.Password)
		}
	}
	if desc.TimeoutSeconds > 0 {
		parts = append(parts, "connect_timeout="+strconv.Itoa(desc.TimeoutSeconds))
	}
	return strings.Join(parts, " ")
}

// Execute runs sql and returns the result set as a batch.
func (c *Connector) Execute(ctx context.Context, sqlText string) (*batch.Batch, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	opCtx, cancel := connector.OpContext(ctx, c.timeoutSeconds)
	defer cancel()

	rows, err := c.pool.Query(opCtx, sqlText)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	defer rows.Close()

	result, err := rowsToBatch(rows)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("query executed", zap.Int("rows", result.Rows()))
	return result, nil
}

// ExecuteUpdate runs a statement that returns no rows and reports the
// affected row count from the command tag.
func (c *Connector) ExecuteUpdate(ctx context.Context, sqlText string) (connector.Outcome, error) {
	if err := c.checkOpen(); err != nil {
		return connector.Outcome{}, err
	}
	opCtx, cancel := connector.OpContext(ctx, c.timeoutSeconds)
	defer cancel()

	tag, err := c.pool.Exec(opCtx, sqlText)
	if err != nil {
		return connector.Outcome{}, mapError(err, "statement failed")
	}
	c.logger.Debug("statement executed", zap.Int64("rows_affected", tag.RowsAffected()))
	return connector.Outcome{RowsAffected: uint64(tag.RowsAffected()), Succeeded: true}, nil
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
	return c.pool.Ping(opCtx) == nil
}

// Close releases the pool. Closing an already closed connector is a no-op.
func (c *Connector) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.pool.Close()
	c.logger.Info("postgres connector closed")
	return nil
}

func (c *Connector) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Connector) Backend() config.Backend {
	return config.BackendPostgres
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
// SQLSTATE class carried on pgconn.PgError.
func mapError(err error, message string) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.KindTimeout, message)
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return errors.Wrap(err, kindForSQLState(pgErr.Code), message).
			WithDetail("sqlstate", pgErr.Code)
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

func kindForSQLState(code string) errors.Kind {
	if code == "57014" { // query_canceled
		return errors.KindTimeout
	}
	if len(code) < 2 {
		return errors.KindQuery
	}
	switch code[:2] {
	case "23": // integrity constraint violation
		return errors.KindConstraint
	case "08", "28", "3D": // connection, authorization, invalid catalog
		return errors.KindConnection
	case "22", "42": // data exception, syntax or access rule violation
		return errors.KindQuery
	case "53", "57": // insufficient resources, operator intervention
		return errors.KindConnection
	default:
		return errors.KindQuery
	}
}
