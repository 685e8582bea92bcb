package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidb-io/unidb/pkg/config"
	"github.com/unidb-io/unidb/pkg/errors"
)

func TestNewSQLite(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, config.ConnectionDescriptor{
		Backend: config.BackendSQLite,
		Path:    config.InMemoryPath,
	})
	require.NoError(t, err)
	defer c.Close(ctx)

	assert.Equal(t, config.BackendSQLite, c.Backend())
	assert.True(t, c.IsAlive(ctx))
}

func TestNewRejectsInvalidDescriptor(t *testing.T) {
	_, err := New(context.Background(), config.ConnectionDescriptor{
		Backend: config.BackendSQLite,
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfig))
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.ConnectionDescriptor{
		Backend: config.Backend("oracle"),
		Host:    "h",
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnsupportedBackend))
}

func TestFromURI(t *testing.T) {
	ctx := context.Background()
	c, err := FromURI(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	defer c.Close(ctx)
	assert.Equal(t, config.BackendSQLite, c.Backend())

	_, err = FromURI(ctx, "oracle://host/db")
	require.Error(t, err)
}
