package postgres

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidb-io/unidb/pkg/batch"
	"github.com/unidb-io/unidb/pkg/config"
	"github.com/unidb-io/unidb/pkg/errors"
)

func TestBuildConnString(t *testing.T) {
	desc := config.ConnectionDescriptor{
		Backend:        config.BackendPostgres,
		Host:           "db.example.com",
		Port:           5432,
		Database:       "analytics",
		Username:       "svc",
		Password:       "hunter2",
		TimeoutSeconds: 10,
	}
	assert.Equal(t,
		"host=db.example.com dbname=analytics port=5432 user=svc password=hunter2 connect_timeout=10",
		buildConnString(desc))

	desc = config.ConnectionDescriptor{
		Backend:        config.BackendPostgres,
		Host:           "localhost",
		Database:       "d",
		IntegratedAuth: true,
	}
	assert.Equal(t, "host=localhost dbname=d", buildConnString(desc))
}

func TestKindForSQLState(t *testing.T) {
	tests := []struct {
		code string
		want errors.Kind
	}{
		{"23505", errors.KindConstraint}, // unique_violation
		{"23503", errors.KindConstraint}, // foreign_key_violation
		{"23502", errors.KindConstraint}, // not_null_violation
		{"28P01", errors.KindConnection}, // invalid_password
		{"08006", errors.KindConnection}, // connection_failure
		{"3D000", errors.KindConnection}, // invalid_catalog_name
		{"42601", errors.KindQuery},      // syntax_error
		{"42P01", errors.KindQuery},      // undefined_table
		{"22012", errors.KindQuery},      // division_by_zero
		{"57014", errors.KindTimeout},    // query_canceled
		{"53300", errors.KindConnection}, // too_many_connections
		{"", errors.KindQuery},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, kindForSQLState(tt.code), "sqlstate %q", tt.code)
	}
}

func TestMapErrorClassifiesPgErrors(t *testing.T) {
	err := mapError(&pgconn.PgError{Code: "23505", Message: "duplicate key"}, "insert failed")
	assert.True(t, errors.IsKind(err, errors.KindConstraint))

	err = mapError(context.DeadlineExceeded, "query failed")
	assert.True(t, errors.IsKind(err, errors.KindTimeout))

	err = mapError(assert.AnError, "query failed")
	assert.True(t, errors.IsKind(err, errors.KindQuery))
}

func TestMapOID(t *testing.T) {
	tests := []struct {
		oid  uint32
		want batch.ColumnType
	}{
		{pgtype.Int2OID, batch.TypeInt64},
		{pgtype.Int8OID, batch.TypeInt64},
		{pgtype.Float8OID, batch.TypeFloat64},
		{pgtype.NumericOID, batch.TypeFloat64},
		{pgtype.BoolOID, batch.TypeBool},
		{pgtype.DateOID, batch.TypeDate},
		{pgtype.TimestamptzOID, batch.TypeTimestamp},
		{pgtype.ByteaOID, batch.TypeBytes},
		{pgtype.TextOID, batch.TypeString},
		{pgtype.UUIDOID, batch.TypeString},
		{pgtype.JSONBOID, batch.TypeString},
		{999999, batch.TypeString},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapOID(tt.oid), "oid %d", tt.oid)
	}
}

func TestCoercePgx(t *testing.T) {
	v, err := coercePgx(batch.TypeInt64, int32(7))
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)

	num := pgtype.Numeric{Int: big.NewInt(12345), Exp: -2, Valid: true}
	v, err = coercePgx(batch.TypeFloat64, num)
	require.NoError(t, err)
	assert.InDelta(t, 123.45, v, 1e-9)

	id := [16]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	v, err = coercePgx(batch.TypeString, id)
	require.NoError(t, err)
	assert.Equal(t, "01020304-0506-0708-090a-0b0c0d0e0f10", v)

	now := time.Now()
	v, err = coercePgx(batch.TypeTimestamp, now)
	require.NoError(t, err)
	assert.Equal(t, now, v)

	v, err = coercePgx(batch.TypeString, nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}
