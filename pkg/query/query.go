// Package query builds backend-specific SQL text for the CRUD operations.
// Every function is pure: the same request and dialect always produce the
// same SQL, and nothing here touches a connection.
//
// Predicate text supplied by the caller is inserted verbatim after WHERE; the
// builder does not parse or sanitize it.
package query

import (
	"encoding/hex"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unidb-io/unidb/pkg/batch"
	"github.com/unidb-io/unidb/pkg/dialect"
	"github.com/unidb-io/unidb/pkg/errors"
)

// Insert builds INSERT statements for every row of b. Rows are grouped into
// a single multi-row statement up to the dialect's per-statement row limit;
// batches above the limit produce a sequence of statements. When a statement
// in the sequence fails, rows applied by earlier statements are not rolled
// back by this layer.
func Insert(d *dialect.Dialect, table string, b *batch.Batch) ([]string, error) {
	if b == nil || b.NumColumns() == 0 {
		return nil, errors.New(errors.KindInvalidParameter, "insert requires at least one column")
	}
	rows := b.Rows()
	if rows == 0 {
		return nil, nil
	}

	columns := b.Columns()
	var header strings.Builder
	header.WriteString("INSERT INTO ")
	header.WriteString(d.QuoteIdentifier(table))
	header.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			header.WriteString(", ")
		}
		header.WriteString(d.QuoteIdentifier(col.Name()))
	}
	header.WriteString(") VALUES ")

	chunk := d.MaxInsertRows
	if chunk <= 0 {
		chunk = rows
	}

	var statements []string
	for start := 0; start < rows; start += chunk {
		end := start + chunk
		if end > rows {
			end = rows
		}

		var sb strings.Builder
		sb.WriteString(header.String())
		for row := start; row < end; row++ {
			if row > start {
				sb.WriteString(", ")
			}
			sb.WriteString("(")
			for i, col := range columns {
				if i > 0 {
					sb.WriteString(", ")
				}
				lit, err := RenderValue(d, col.Get(row))
				if err != nil {
					return nil, err
				}
				sb.WriteString(lit)
			}
			sb.WriteString(")")
		}
		statements = append(statements, sb.String())
	}

	return statements, nil
}

// Select builds a SELECT. An empty column list selects all columns. A
// positive limit renders the dialect's pagination clause: exactly one of the
// prefix (TOP) or suffix (LIMIT) forms, chosen by the dialect.
func Select(d *dialect.Dialect, table string, columns []string, where string, limit int) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")

	if limit > 0 && d.Pagination == dialect.PaginationPrefix {
		sb.WriteString("TOP ")
		sb.WriteString(strconv.Itoa(limit))
		sb.WriteString(" ")
	}

	if len(columns) == 0 {
		sb.WriteString("*")
	} else {
		for i, col := range columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.QuoteIdentifier(col))
		}
	}

	sb.WriteString(" FROM ")
	sb.WriteString(d.QuoteIdentifier(table))

	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	if limit > 0 && d.Pagination == dialect.PaginationSuffix {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(limit))
	}

	return sb.String()
}

// Update builds an UPDATE over the given column→value assignments. Columns
// render in sorted name order so the generated SQL is deterministic. An
// empty where clause updates every row.
func Update(d *dialect.Dialect, table string, values map[string]interface{}, where string) (string, error) {
	if len(values) == 0 {
		return "", errors.New(errors.KindInvalidParameter, "update requires at least one assignment")
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(d.QuoteIdentifier(table))
	sb.WriteString(" SET ")
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		lit, err := RenderValue(d, values[name])
		if err != nil {
			return "", err
		}
		sb.WriteString(d.QuoteIdentifier(name))
		sb.WriteString(" = ")
		sb.WriteString(lit)
	}

	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	return sb.String(), nil
}

// Delete builds a DELETE. An empty where clause deletes every row; that is
// intentional and not guarded here.
func Delete(d *dialect.Dialect, table string, where string) string {
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(d.QuoteIdentifier(table))
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	return sb.String()
}

// RenderValue renders a Go value as a SQL literal for the dialect. nil
// renders as NULL. Values with no safe textual representation for the
// backend are rejected with KindInvalidParameter.
func RenderValue(d *dialect.Dialect, v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		return d.BoolLiteral(x), nil
	case int:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float32:
		return renderFloat(float64(x))
	case float64:
		return renderFloat(x)
	case string:
		return quoteString(x), nil
	case time.Time:
		return "'" + x.UTC().Format("2006-01-02 15:04:05") + "'", nil
	case []byte:
		return renderBytes(d, x), nil
	case uuid.UUID:
		return quoteString(x.String()), nil
	default:
		return "", errors.Newf(errors.KindInvalidParameter, "no SQL representation for %T", v)
	}
}

func renderFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errors.Newf(errors.KindInvalidParameter, "non-finite float %v", f)
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func renderBytes(d *dialect.Dialect, b []byte) string {
	h := hex.EncodeToString(b)
	switch d {
	case dialect.Postgres:
		return `'\x` + h + "'"
	case dialect.MSSQL:
		return "0x" + h
	default:
		return "X'" + h + "'"
	}
}
