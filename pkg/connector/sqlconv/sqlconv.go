// Package sqlconv converts database/sql result sets into columnar batches.
// It is shared by the backends that speak through database/sql (mssql and
// sqlite); the postgres backend converts pgx rows directly.
package sqlconv

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/unidb-io/unidb/pkg/batch"
	"github.com/unidb-io/unidb/pkg/errors"
)

// TypeMapper maps a driver-reported database type name (as returned by
// sql.ColumnType.DatabaseTypeName) to a batch column type. Mappers are total:
// unrecognized names map to TypeString, never to an error.
type TypeMapper func(databaseTypeName string) batch.ColumnType

// Convert optionally pre-converts a scanned driver value before it is
// appended to a column. Backends use it for driver-specific encodings such as
// SQL Server's uniqueidentifier byte order. Returning ok=false leaves the
// value to the generic coercion rules.
type Convert func(databaseTypeName string, value interface{}) (interface{}, bool)

// RowsToBatch drains rows into a batch. Column order and names follow the
// result set. The caller keeps ownership of rows and must close it.
func RowsToBatch(rows *sql.Rows, mapType TypeMapper, convert Convert) (*batch.Batch, error) {
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.Wrap(err, errors.KindQuery, "failed to read result metadata")
	}

	names := make([]string, len(columnTypes))
	dbTypes := make([]string, len(columnTypes))
	columns := make([]batch.Column, len(columnTypes))
	for i, ct := range columnTypes {
		names[i] = ct.Name()
		dbTypes[i] = ct.DatabaseTypeName()
		columns[i] = batch.NewColumn(ct.Name(), mapType(dbTypes[i]))
	}

	values := make([]interface{}, len(columns))
	scan := make([]interface{}, len(columns))
	for i := range values {
		scan[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, errors.Wrap(err, errors.KindQuery, "failed to scan row")
		}
		for i, col := range columns {
			v := values[i]
			if convert != nil && v != nil {
				if converted, ok := convert(dbTypes[i], v); ok {
					v = converted
				}
			}
			coerced, err := coerce(col.Type(), v)
			if err != nil {
				return nil, errors.Wrap(err, errors.KindQuery, "failed to convert column value").
					WithDetail("column", col.Name()).
					WithDetail("db_type", dbTypes[i])
			}
			if err := col.Append(coerced); err != nil {
				return nil, errors.Wrap(err, errors.KindQuery, "failed to append column value")
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.KindQuery, "error iterating result rows")
	}

	return batch.FromColumns(columns...)
}

// coerce adapts a driver value to the concrete type its target column
// stores. Drivers disagree on representations: sqlite reports booleans as
// integers, timestamps may arrive as text, and text may arrive as []byte.
func coerce(target batch.ColumnType, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	switch target {
	case batch.TypeInt64:
		switch x := v.(type) {
		case int64:
			return x, nil
		case []byte:
			return strconv.ParseInt(string(x), 10, 64)
		case string:
			return strconv.ParseInt(x, 10, 64)
		}
	case batch.TypeFloat64:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		case []byte:
			return strconv.ParseFloat(string(x), 64)
		case string:
			return strconv.ParseFloat(x, 64)
		}
	case batch.TypeBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		}
	case batch.TypeDate, batch.TypeTimestamp:
		switch x := v.(type) {
		case time.Time:
			return x, nil
		case []byte:
			return parseTime(string(x))
		case string:
			return parseTime(x)
		}
	case batch.TypeBytes:
		if x, ok := v.([]byte); ok {
			return x, nil
		}
	case batch.TypeNull:
		return nil, nil
	case batch.TypeString:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		default:
			// Fallback columns accept anything representable as text.
			return fmt.Sprint(x), nil
		}
	}

	return nil, fmt.Errorf("cannot store %T in %s column", v, target)
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time value %q", s)
}
