package metadata

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/photolib/photolib/pkg/db"
)

func TestMigrations_RootedForMigrator(t *testing.T) {
	t.Parallel()

	// The migrator globs the FS root; the embedded directory must not leak
	// into the paths.
	matches, err := fs.Glob(Migrations, db.MigrationsGlob)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	require.Contains(t, matches, "00001_init.sql")

	data, err := fs.ReadFile(Migrations, "00001_init.sql")
	require.NoError(t, err)
	require.Contains(t, string(data), "-- +goose Up")
	require.Contains(t, string(data), "-- +goose Down")
}
