// Package config defines the connection descriptor consumed by the unidb
// factory, its validation rules, and its URI round-trip form. A descriptor is
// validated once at the construction boundary and treated as immutable
// afterwards; connectors derive their own connection parameters from it and
// keep no reference to it.
package config

import (
	"strings"

	"github.com/unidb-io/unidb/pkg/errors"
)

// Backend tags the database engine a descriptor points at.
type Backend string

const (
	// BackendPostgres is a server-based PostgreSQL instance.
	BackendPostgres Backend = "postgres"
	// BackendMSSQL is a server-based Microsoft SQL Server instance.
	BackendMSSQL Backend = "mssql"
	// BackendSQLite is an embedded single-file SQLite database.
	BackendSQLite Backend = "sqlite"
)

// InMemoryPath is the SQLite sentinel for an in-memory database.
const InMemoryPath = ":memory:"

// String returns the canonical backend name.
func (b Backend) String() string {
	return string(b)
}

// ParseBackend resolves a backend name, accepting common aliases.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "postgres", "postgresql":
		return BackendPostgres, nil
	case "mssql", "sqlserver":
		return BackendMSSQL, nil
	case "sqlite":
		return BackendSQLite, nil
	default:
		return "", errors.Newf(errors.KindUnsupportedBackend, "unknown backend %q", s)
	}
}

// ConnectionDescriptor describes how to reach one database instance. Exactly
// one of the network fields (Host) or the file field (Path) is populated,
// selected by the Backend tag.
type ConnectionDescriptor struct {
	// Backend selects the engine and therefore the connector implementation.
	Backend Backend `mapstructure:"type"`
	// Host is the server address for postgres and mssql.
	Host string `mapstructure:"host"`
	// Port is the server port; 0 means the backend default.
	Port int `mapstructure:"port"`
	// Database is the database name for postgres and mssql.
	Database string `mapstructure:"database"`
	// Username and Password are explicit credentials.
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// Path is the database file path for sqlite, or InMemoryPath.
	Path string `mapstructure:"path"`
	// IntegratedAuth selects platform-integrated authentication instead of
	// explicit credentials.
	IntegratedAuth bool `mapstructure:"integrated_auth"`
	// TimeoutSeconds bounds each operation; 0 means no per-operation timeout.
	TimeoutSeconds int `mapstructure:"timeout"`
	// Options carries backend-specific tuning keys. Options entries do not
	// survive the URI round trip.
	Options map[string]string `mapstructure:"options"`
}

// Validate checks the descriptor. Rules are evaluated in order and the first
// failure wins: tag-specific required fields, then range checks on port and
// timeout, then the credentials / integrated-auth exclusivity check.
func (d ConnectionDescriptor) Validate() error {
	switch d.Backend {
	case BackendPostgres:
		if d.Host == "" {
			return errors.New(errors.KindConfig, "postgres: host is required")
		}
		if d.Database == "" {
			return errors.New(errors.KindConfig, "postgres: database is required")
		}
		if d.Username == "" && !d.IntegratedAuth {
			return errors.New(errors.KindConfig, "postgres: username or integrated_auth is required")
		}
	case BackendMSSQL:
		if d.Host == "" {
			return errors.New(errors.KindConfig, "mssql: host is required")
		}
		if d.Database == "" {
			return errors.New(errors.KindConfig, "mssql: database is required")
		}
		if d.Username == "" && !d.IntegratedAuth {
			return errors.New(errors.KindConfig, "mssql: username or integrated_auth is required")
		}
	case BackendSQLite:
		if d.Path == "" {
			return errors.New(errors.KindConfig, "sqlite: path is required (use :memory: for an in-memory database)")
		}
		if d.Host != "" || d.Port != 0 {
			return errors.New(errors.KindConfig, "sqlite: network address fields must be empty")
		}
	default:
		return errors.Newf(errors.KindUnsupportedBackend, "unknown backend %q", string(d.Backend))
	}

	if d.Port != 0 && (d.Port < 1 || d.Port > 65535) {
		return errors.Newf(errors.KindConfig, "port %d out of range 1-65535", d.Port)
	}
	if d.TimeoutSeconds < 0 {
		return errors.Newf(errors.KindConfig, "timeout %d must be non-negative", d.TimeoutSeconds)
	}

	if d.IntegratedAuth && (d.Username != "" || d.Password != "") {
		return errors.New(errors.KindConfig, "integrated_auth and explicit credentials are mutually exclusive")
	}

	return nil
}
