package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndGet(t *testing.T) {
	col := NewInt64Column("id")
	require.NoError(t, col.Append(int64(1)))
	require.NoError(t, col.Append(nil))
	require.NoError(t, col.Append(int64(3)))

	assert.Equal(t, 3, col.Len())
	assert.Equal(t, int64(1), col.Get(0))
	assert.Nil(t, col.Get(1))
	assert.True(t, col.IsNull(1))
	assert.False(t, col.IsNull(2))
}

func TestAppendTypeMismatch(t *testing.T) {
	col := NewBoolColumn("active")
	assert.Error(t, col.Append("yes"))
	assert.NoError(t, col.Append(true))
}

func TestIntWidening(t *testing.T) {
	col := NewInt64Column("n")
	require.NoError(t, col.Append(int32(7)))
	require.NoError(t, col.Append(int16(8)))
	require.NoError(t, col.Append(9))
	assert.Equal(t, int64(7), col.Get(0))
	assert.Equal(t, int64(9), col.Get(2))
}

func TestDateNormalizedToMidnightUTC(t *testing.T) {
	col := NewDateColumn("day")
	loc := time.FixedZone("X", 3*3600)
	require.NoError(t, col.Append(time.Date(2024, 5, 17, 15, 30, 0, 0, loc)))

	got := col.Get(0).(time.Time)
	assert.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), got)
}

func TestTimestampKeepsTime(t *testing.T) {
	col := NewTimestampColumn("at")
	ts := time.Date(2024, 5, 17, 15, 30, 45, 0, time.UTC)
	require.NoError(t, col.Append(ts))
	assert.Equal(t, ts, col.Get(0))
}

func TestNullColumn(t *testing.T) {
	col := NewNullColumn("ghost")
	require.NoError(t, col.Append(nil))
	require.NoError(t, col.Append(nil))
	assert.Equal(t, 2, col.Len())
	assert.True(t, col.IsNull(0))
	assert.Error(t, col.Append("value"))
}

func TestBatchRowCountInvariant(t *testing.T) {
	a := NewInt64Column("a")
	require.NoError(t, a.Append(int64(1)))
	require.NoError(t, a.Append(int64(2)))

	b := NewStringColumn("b")
	require.NoError(t, b.Append("only one"))

	_, err := FromColumns(a, b)
	assert.Error(t, err)
}

func TestBatchDuplicateColumn(t *testing.T) {
	a := NewInt64Column("a")
	b := NewInt64Column("a")
	_, err := FromColumns(a, b)
	assert.Error(t, err)
}

func TestBatchAccessors(t *testing.T) {
	id := NewInt64Column("id")
	name := NewStringColumn("name")
	for i, s := range []string{"ada", "grace", "edsger"} {
		require.NoError(t, id.Append(int64(i+1)))
		require.NoError(t, name.Append(s))
	}

	b, err := FromColumns(id, name)
	require.NoError(t, err)

	assert.Equal(t, 3, b.Rows())
	assert.Equal(t, 2, b.NumColumns())
	assert.Equal(t, []string{"id", "name"}, b.ColumnNames())
	assert.Equal(t, "grace", b.Value("name", 1))
	assert.Nil(t, b.Column("missing"))
}

func TestBatchMarshalJSON(t *testing.T) {
	id := NewInt64Column("id")
	require.NoError(t, id.Append(int64(1)))
	require.NoError(t, id.Append(nil))

	b, err := FromColumns(id)
	require.NoError(t, err)

	data, err := b.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":[1,null]}`, string(data))
}
