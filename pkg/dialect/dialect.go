// Package dialect captures the syntactic differences between the SQL
// surfaces of the supported backends: pagination form, boolean literals,
// identifier quoting, and parameter placeholders. Each backend has one
// process-wide immutable descriptor; nothing in unidb re-derives dialect
// rules per call.
package dialect

import (
	"strconv"
	"strings"

	"github.com/unidb-io/unidb/pkg/config"
	"github.com/unidb-io/unidb/pkg/errors"
)

// PaginationStyle selects where a row cap is rendered in a SELECT.
type PaginationStyle int

const (
	// PaginationSuffix appends `LIMIT n` after the full statement.
	PaginationSuffix PaginationStyle = iota
	// PaginationPrefix wraps the column list with `TOP n`.
	PaginationPrefix
)

// PlaceholderStyle selects the bound-parameter syntax.
type PlaceholderStyle int

const (
	// PlaceholderQuestion renders every parameter as `?`.
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar renders 1-based `$1`, `$2`, ...
	PlaceholderDollar
	// PlaceholderNamed renders 1-based `@p1`, `@p2`, ...
	PlaceholderNamed
)

// Dialect describes one backend's SQL conventions. Instances are package
// constants; callers never construct or mutate them.
type Dialect struct {
	Name         string
	Pagination   PaginationStyle
	BoolTrue     string
	BoolFalse    string
	QuoteOpen    string
	QuoteClose   string
	Placeholders PlaceholderStyle
	// MaxInsertRows caps the rows per multi-row INSERT statement;
	// 0 means unlimited.
	MaxInsertRows int
}

var (
	// Postgres is the PostgreSQL dialect: LIMIT pagination, keyword boolean
	// literals, double-quoted identifiers, $N placeholders.
	Postgres = &Dialect{
		Name:         "postgres",
		Pagination:   PaginationSuffix,
		BoolTrue:     "TRUE",
		BoolFalse:    "FALSE",
		QuoteOpen:    `"`,
		QuoteClose:   `"`,
		Placeholders: PlaceholderDollar,
	}

	// MSSQL is the SQL Server dialect: TOP pagination, BIT boolean literals,
	// bracket-quoted identifiers, @pN placeholders.
	MSSQL = &Dialect{
		Name:         "mssql",
		Pagination:   PaginationPrefix,
		BoolTrue:     "1",
		BoolFalse:    "0",
		QuoteOpen:    "[",
		QuoteClose:   "]",
		Placeholders: PlaceholderNamed,
		// SQL Server rejects VALUES lists above 1000 row groups.
		MaxInsertRows: 1000,
	}

	// SQLite is the embedded dialect: LIMIT pagination, keyword boolean
	// literals, double-quoted identifiers, ? placeholders.
	SQLite = &Dialect{
		Name:         "sqlite",
		Pagination:   PaginationSuffix,
		BoolTrue:     "TRUE",
		BoolFalse:    "FALSE",
		QuoteOpen:    `"`,
		QuoteClose:   `"`,
		Placeholders: PlaceholderQuestion,
	}
)

// ForBackend returns the dialect for a backend tag.
func ForBackend(b config.Backend) (*Dialect, error) {
	switch b {
	case config.BackendPostgres:
		return Postgres, nil
	case config.BackendMSSQL:
		return MSSQL, nil
	case config.BackendSQLite:
		return SQLite, nil
	default:
		return nil, errors.Newf(errors.KindUnsupportedBackend, "no dialect for backend %q", string(b))
	}
}

// QuoteIdentifier quotes a table or column name, doubling any embedded
// closing quote character.
func (d *Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.QuoteClose, d.QuoteClose+d.QuoteClose)
	return d.QuoteOpen + escaped + d.QuoteClose
}

// BoolLiteral renders a boolean using the dialect's literal pair.
func (d *Dialect) BoolLiteral(v bool) string {
	if v {
		return d.BoolTrue
	}
	return d.BoolFalse
}

// Placeholder renders the bound-parameter marker for the 1-based index n.
// The query builders render literals only; Placeholder serves callers that
// prepare parameterized statements against a connector's native handle.
func (d *Dialect) Placeholder(n int) string {
	switch d.Placeholders {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(n)
	case PlaceholderNamed:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}
