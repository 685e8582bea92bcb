package sqlite

import (
	"strings"

	"github.com/unidb-io/unidb/pkg/batch"
)

// mapType maps a declared SQLite column type to a batch column type using
// the engine's type-affinity rules. SQLite columns are dynamically typed, so
// the declared type is a hint; the mapping is total and unrecognized
// declarations fall back to text.
func mapType(declared string) batch.ColumnType {
	t := strings.ToUpper(declared)

	switch {
	case t == "BOOLEAN" || t == "BOOL":
		return batch.TypeBool
	case t == "DATE":
		return batch.TypeDate
	case t == "DATETIME" || t == "TIMESTAMP":
		return batch.TypeTimestamp
	case strings.Contains(t, "INT"):
		return batch.TypeInt64
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"),
		strings.Contains(t, "UUID"), strings.Contains(t, "GUID"):
		return batch.TypeString
	case strings.Contains(t, "BLOB"):
		return batch.TypeBytes
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"),
		strings.Contains(t, "NUMERIC"), strings.Contains(t, "DECIMAL"):
		return batch.TypeFloat64
	default:
		// Expression results carry no declared type; text is always safe.
		return batch.TypeString
	}
}
