// Package factory creates the right connector for a connection descriptor.
// It is the only package that links every backend together; callers that
// want a single backend can import its package directly.
package factory

import (
	"context"

	"github.com/unidb-io/unidb/pkg/config"
	"github.com/unidb-io/unidb/pkg/connector"
	"github.com/unidb-io/unidb/pkg/connector/mssql"
	"github.com/unidb-io/unidb/pkg/connector/postgres"
	"github.com/unidb-io/unidb/pkg/connector/sqlite"
	"github.com/unidb-io/unidb/pkg/errors"
)

// New validates desc, dispatches on its backend and returns a live
// connector. Every backend connects eagerly, so a non-nil connector has
// already answered a ping.
func New(ctx context.Context, desc config.ConnectionDescriptor) (connector.CRUDConnector, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	switch desc.Backend {
	case config.BackendPostgres:
		return postgres.New(ctx, desc)
	case config.BackendMSSQL:
		return mssql.New(ctx, desc)
	case config.BackendSQLite:
		return sqlite.New(ctx, desc)
	default:
		return nil, errors.Newf(errors.KindUnsupportedBackend, "unsupported backend %q", desc.Backend)
	}
}

// FromURI parses uri into a descriptor and opens a connector for it.
func FromURI(ctx context.Context, uri string) (connector.CRUDConnector, error) {
	desc, err := config.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	return New(ctx, desc)
}
