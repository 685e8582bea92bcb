package mssql

import (
	"strings"

	"github.com/google/uuid"

	"github.com/unidb-io/unidb/pkg/batch"
)

// mapType maps SQL Server type names reported by the driver to column
// types. Unknown names fall back to string.
func mapType(dbType string) batch.ColumnType {
	switch strings.ToUpper(dbType) {
	case "INT", "BIGINT", "SMALLINT", "TINYINT":
		return batch.TypeInt64
	case "FLOAT", "REAL", "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
		return batch.TypeFloat64
	case "BIT":
		return batch.TypeBool
	case "DATE":
		return batch.TypeDate
	case "DATETIME", "DATETIME2", "SMALLDATETIME", "DATETIMEOFFSET":
		return batch.TypeTimestamp
	case "BINARY", "VARBINARY", "IMAGE":
		return batch.TypeBytes
	default:
		// CHAR, VARCHAR, NCHAR, NVARCHAR, TEXT, NTEXT, XML, TIME,
		// UNIQUEIDENTIFIER and anything unrecognized.
		return batch.TypeString
	}
}

// convertValue rewrites driver encodings that do not scan cleanly into the
// mapped column type. SQL Server stores the first three GUID groups
// little-endian, so raw uniqueidentifier bytes must be reordered before
// formatting.
func convertValue(dbType string, value interface{}) (interface{}, bool) {
	if strings.EqualFold(dbType, "UNIQUEIDENTIFIER") {
		raw, ok := value.([]byte)
		if !ok || len(raw) != 16 {
			return nil, false
		}
		var b [16]byte
		copy(b[:], raw)
		b[0], b[1], b[2], b[3] = raw[3], raw[2], raw[1], raw[0]
		b[4], b[5] = raw[5], raw[4]
		b[6], b[7] = raw[7], raw[6]
		id, err := uuid.FromBytes(b[:])
		if err != nil {
			return nil, false
		}
		return id.String(), true
	}
	return nil, false
}
