package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidb-io/unidb/pkg/batch"
	"github.com/unidb-io/unidb/pkg/config"
	"github.com/unidb-io/unidb/pkg/errors"
)

func memoryConnector(t *testing.T) *Connector {
	t.Helper()
	c, err := New(context.Background(), config.ConnectionDescriptor{
		Backend: config.BackendSQLite,
		Path:    config.InMemoryPath,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func itemsBatch(t *testing.T) *batch.Batch {
	t.Helper()
	id := batch.NewInt64Column("id")
	name := batch.NewStringColumn("name")
	for i, n := range []string{"bolt", "nut", "washer"} {
		require.NoError(t, id.Append(int64(i+1)))
		require.NoError(t, name.Append(n))
	}
	b, err := batch.FromColumns(id, name)
	require.NoError(t, err)
	return b
}

func TestInsertSelectRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := memoryConnector(t)

	_, err := c.Execute(ctx, "CREATE TABLE items (id INTEGER, name TEXT)")
	require.NoError(t, err)

	outcome, err := c.Insert(ctx, "items", itemsBatch(t))
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)
	assert.Equal(t, uint64(3), outcome.RowsAffected)

	result, err := c.Select(ctx, "items", nil, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Rows())
	assert.Equal(t, []string{"id", "name"}, result.ColumnNames())
	assert.Equal(t, batch.TypeInt64, result.Column("id").Type())
	assert.Equal(t, batch.TypeString, result.Column("name").Type())
	assert.Equal(t, int64(2), result.Value("id", 1))
	assert.Equal(t, "washer", result.Value("name", 2))
}

func TestSelectWithPredicateAndLimit(t *testing.T) {
	ctx := context.Background()
	c := memoryConnector(t)

	_, err := c.Execute(ctx, "CREATE TABLE items (id INTEGER, name TEXT)")
	require.NoError(t, err)
	_, err = c.Insert(ctx, "items", itemsBatch(t))
	require.NoError(t, err)

	result, err := c.Select(ctx, "items", []string{"name"}, "id >= 2", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows())
	assert.Equal(t, "nut", result.Value("name", 0))
}

func TestUpdateAllRowsReportsCount(t *testing.T) {
	ctx := context.Background()
	c := memoryConnector(t)

	_, err := c.Execute(ctx, "CREATE TABLE counters (n INTEGER)")
	require.NoError(t, err)
	n := batch.NewInt64Column("n")
	for i := 0; i < 5; i++ {
		require.NoError(t, n.Append(int64(i)))
	}
	rows, err := batch.FromColumns(n)
	require.NoError(t, err)
	_, err = c.Insert(ctx, "counters", rows)
	require.NoError(t, err)

	outcome, err := c.Update(ctx, "counters", map[string]interface{}{"n": 0}, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), outcome.RowsAffected)
}

func TestDeleteWithoutPredicateRemovesAllRows(t *testing.T) {
	ctx := context.Background()
	c := memoryConnector(t)

	_, err := c.Execute(ctx, "CREATE TABLE items (id INTEGER, name TEXT)")
	require.NoError(t, err)
	_, err = c.Insert(ctx, "items", itemsBatch(t))
	require.NoError(t, err)

	outcome, err := c.Delete(ctx, "items", "")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), outcome.RowsAffected)

	result, err := c.Select(ctx, "items", nil, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Rows())
}

func TestUniqueViolationMapsToConstraint(t *testing.T) {
	ctx := context.Background()
	c := memoryConnector(t)

	_, err := c.Execute(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT UNIQUE)")
	require.NoError(t, err)
	_, err = c.Execute(ctx, "INSERT INTO users (id, email) VALUES (1, 'a@example.com')")
	require.NoError(t, err)

	_, err = c.ExecuteUpdate(ctx, "INSERT INTO users (id, email) VALUES (2, 'a@example.com')")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConstraint), err)
	assert.False(t, errors.IsKind(err, errors.KindQuery))
}

func TestMalformedSQLMapsToQuery(t *testing.T) {
	c := memoryConnector(t)
	_, err := c.Execute(context.Background(), "SELEC nonsense")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindQuery), err)
}

func TestNullValuesSurviveRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := memoryConnector(t)

	_, err := c.Execute(ctx, "CREATE TABLE notes (id INTEGER, body TEXT)")
	require.NoError(t, err)

	id := batch.NewInt64Column("id")
	body := batch.NewStringColumn("body")
	require.NoError(t, id.Append(int64(1)))
	require.NoError(t, body.Append(nil))
	rows, err := batch.FromColumns(id, body)
	require.NoError(t, err)
	_, err = c.Insert(ctx, "notes", rows)
	require.NoError(t, err)

	result, err := c.Select(ctx, "notes", nil, "", 0)
	require.NoError(t, err)
	assert.True(t, result.Column("body").IsNull(0))
}

func TestCloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := memoryConnector(t)

	require.NoError(t, c.Close(ctx))
	assert.True(t, c.IsClosed())

	require.NoError(t, c.Close(ctx))
	assert.True(t, c.IsClosed())
}

func TestOperationsAfterCloseFailFast(t *testing.T) {
	ctx := context.Background()
	c := memoryConnector(t)
	require.NoError(t, c.Close(ctx))

	_, err := c.Execute(ctx, "SELECT 1")
	assert.True(t, errors.IsKind(err, errors.KindAlreadyClosed))

	_, err = c.ExecuteUpdate(ctx, "DELETE FROM x")
	assert.True(t, errors.IsKind(err, errors.KindAlreadyClosed))

	_, err = c.Select(ctx, "x", nil, "", 0)
	assert.True(t, errors.IsKind(err, errors.KindAlreadyClosed))

	assert.False(t, c.IsAlive(ctx))
}

func TestIsAlive(t *testing.T) {
	c := memoryConnector(t)
	assert.True(t, c.IsAlive(context.Background()))
	assert.Equal(t, config.BackendSQLite, c.Backend())
}

func TestTypeMapTotality(t *testing.T) {
	tests := []struct {
		declared string
		want     batch.ColumnType
	}{
		{"INTEGER", batch.TypeInt64},
		{"BIGINT", batch.TypeInt64},
		{"SMALLINT", batch.TypeInt64},
		{"REAL", batch.TypeFloat64},
		{"DOUBLE PRECISION", batch.TypeFloat64},
		{"NUMERIC(10,2)", batch.TypeFloat64},
		{"TEXT", batch.TypeString},
		{"VARCHAR(80)", batch.TypeString},
		{"BOOLEAN", batch.TypeBool},
		{"DATE", batch.TypeDate},
		{"DATETIME", batch.TypeTimestamp},
		{"TIMESTAMP", batch.TypeTimestamp},
		{"BLOB", batch.TypeBytes},
		{"UUID", batch.TypeString},
		{"SOME EXOTIC TYPE", batch.TypeString},
		{"", batch.TypeString},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapType(tt.declared), tt.declared)
	}
}
