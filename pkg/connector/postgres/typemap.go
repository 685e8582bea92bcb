package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/unidb-io/unidb/pkg/batch"
	"github.com/unidb-io/unidb/pkg/errors"
)

// mapOID maps a result field's data type OID to a column type. Unknown OIDs
// fall back to string.
func mapOID(oid uint32) batch.ColumnType {
	switch oid {
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID:
		return batch.TypeInt64
	case pgtype.Float4OID, pgtype.Float8OID, pgtype.NumericOID:
		return batch.TypeFloat64
	case pgtype.BoolOID:
		return batch.TypeBool
	case pgtype.DateOID:
		return batch.TypeDate
	case pgtype.TimestampOID, pgtype.TimestamptzOID:
		return batch.TypeTimestamp
	case pgtype.ByteaOID:
		return batch.TypeBytes
	default:
		// text, varchar, uuid, json, arrays and everything else.
		return batch.TypeString
	}
}

// rowsToBatch drains a pgx result into a batch. The caller keeps ownership
// of rows and must close it.
func rowsToBatch(rows pgx.Rows) (*batch.Batch, error) {
	fields := rows.FieldDescriptions()
	columns := make([]batch.Column, len(fields))
	for i, fd := range fields {
		columns[i] = batch.NewColumn(fd.Name, mapOID(fd.DataTypeOID))
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errors.Wrap(err, errors.KindQuery, "failed to decode row")
		}
		for i, col := range columns {
			coerced, err := coercePgx(col.Type(), values[i])
			if err != nil {
				return nil, errors.Wrap(err, errors.KindQuery, "failed to convert column value").
					WithDetail("column", col.Name())
			}
			if err := col.Append(coerced); err != nil {
				return nil, errors.Wrap(err, errors.KindQuery, "failed to append column value")
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating result rows")
	}

	return batch.FromColumns(columns...)
}

// coercePgx adapts a pgx-decoded value to the concrete type its target
// column stores. pgx hands back native Go types for the common OIDs; the
// remaining cases are numeric, uuid and the string fallback.
func coercePgx(target batch.ColumnType, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	switch target {
	case batch.TypeInt64:
		return v, nil // int16/int32/int64, widened by the column
	case batch.TypeFloat64:
		if n, ok := v.(pgtype.Numeric); ok {
			f, err := n.Float64Value()
			if err != nil {
				return nil, err
			}
			if !f.Valid {
				return nil, nil
			}
			return f.Float64, nil
		}
		return v, nil
	case batch.TypeBool, batch.TypeBytes:
		return v, nil
	case batch.TypeDate, batch.TypeTimestamp:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
		if t, ok := v.(pgtype.InfinityModifier); ok {
			return nil, fmt.Errorf("cannot represent %s timestamp", t)
		}
		return v, nil
	case batch.TypeString:
		switch x := v.(type) {
		case string:
			return x, nil
		case [16]byte: // uuid wire value
			return uuid.UUID(x).String(), nil
		case []byte:
			return string(x), nil
		default:
			return fmt.Sprint(x), nil
		}
	}
	return v, nil
}
