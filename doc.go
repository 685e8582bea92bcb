// Package unidb is a unifying connector layer for PostgreSQL, Microsoft SQL
// Server and embedded SQLite. One connection descriptor, one polymorphic
// connector contract and one columnar result format cover all three
// backends.
//
// Most callers start at pkg/factory, which turns a validated descriptor (or
// a connection URI) into a live connector:
//
//	desc := config.ConnectionDescriptor{Backend: config.BackendSQLite, Path: ":memory:"}
//	conn, err := factory.New(ctx, desc)
//
// Backend-specific packages live under pkg/connector and can be imported
// directly when only one backend is wanted.
package unidb
