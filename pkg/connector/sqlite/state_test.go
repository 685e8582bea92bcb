package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unidb-io/unidb/pkg/connector"
	"github.com/unidb-io/unidb/pkg/dialect"
	"github.com/unidb-io/unidb/pkg/errors"
)

// recordingDriver counts every call that reaches the driver layer so tests
// can prove a closed connector never touches the database.
type recordingDriver struct {
	connects int64
	queries  int64
	execs    int64
	pings    int64
}

func (d *recordingDriver) Connect(ctx context.Context) (driver.Conn, error) {
	atomic.AddInt64(&d.connects, 1)
	return &recordingConn{d: d}, nil
}

func (d *recordingDriver) Driver() driver.Driver { return nil }

type recordingConn struct {
	d *recordingDriver
}

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, driver.ErrSkip
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) Begin() (driver.Tx, error) {
	return nil, driver.ErrSkip
}

func (c *recordingConn) Ping(context.Context) error {
	atomic.AddInt64(&c.d.pings, 1)
	return nil
}

func (c *recordingConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	atomic.AddInt64(&c.d.queries, 1)
	return &emptyRows{}, nil
}

func (c *recordingConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	atomic.AddInt64(&c.d.execs, 1)
	return driver.RowsAffected(0), nil
}

type emptyRows struct{}

func (*emptyRows) Columns() []string              { return nil }
func (*emptyRows) Close() error                   { return nil }
func (*emptyRows) Next(dest []driver.Value) error { return io.EOF }

func recordedConnector(rec *recordingDriver) *Connector {
	c := &Connector{
		db:     sql.OpenDB(rec),
		logger: zap.NewNop(),
	}
	c.CRUD = &connector.CRUD{Conn: c, Dialect: dialect.SQLite}
	return c
}

func TestClosedConnectorPerformsNoDriverIO(t *testing.T) {
	ctx := context.Background()
	rec := &recordingDriver{}
	c := recordedConnector(rec)

	require.NoError(t, c.Close(ctx))

	before := atomic.LoadInt64(&rec.connects) + atomic.LoadInt64(&rec.queries) +
		atomic.LoadInt64(&rec.execs) + atomic.LoadInt64(&rec.pings)

	_, err := c.Execute(ctx, "SELECT 1")
	assert.True(t, errors.IsKind(err, errors.KindAlreadyClosed))
	_, err = c.ExecuteUpdate(ctx, "DELETE FROM t")
	assert.True(t, errors.IsKind(err, errors.KindAlreadyClosed))
	assert.False(t, c.IsAlive(ctx))

	after := atomic.LoadInt64(&rec.connects) + atomic.LoadInt64(&rec.queries) +
		atomic.LoadInt64(&rec.execs) + atomic.LoadInt64(&rec.pings)
	assert.Equal(t, before, after, "closed connector must not reach the driver")
}

func TestOpenConnectorReachesDriver(t *testing.T) {
	ctx := context.Background()
	rec := &recordingDriver{}
	c := recordedConnector(rec)

	assert.True(t, c.IsAlive(ctx))
	assert.Equal(t, int64(1), atomic.LoadInt64(&rec.pings))
}
