package db

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	migFS, err := getMigrationsFS()
	require.NoError(t, err)

	entries, err := fs.ReadDir(migFS, ".")
	require.NoError(t, err)
	assert.Len(t, entries, 4, "each migration has an up and a down file")

	latest, err := LatestMigrationVersion(migFS)
	require.NoError(t, err)
	assert.Equal(t, uint(2), latest)
}

func TestLatestMigrationVersion(t *testing.T) {
	migFS := fstest.MapFS{
		"000001_a.up.sql":   {Data: []byte("SELECT 1;")},
		"000001_a.down.sql": {Data: []byte("SELECT 1;")},
		"000010_b.up.sql":   {Data: []byte("SELECT 1;")},
		"README.md":         {Data: []byte("notes")},
		"junk_c.up.sql":     {Data: []byte("SELECT 1;")},
	}
	got, err := LatestMigrationVersion(migFS)
	require.NoError(t, err)
	assert.Equal(t, uint(10), got)

	_, err = LatestMigrationVersion(fstest.MapFS{})
	assert.Error(t, err)
}

func TestMigrateUpDownCycle(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "cycle.db"))
	require.NoError(t, err)
	defer db.Close()

	migFS, err := getMigrationsFS()
	require.NoError(t, err)

	version, _, err := db.MigrateVersion(migFS)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	require.NoError(t, db.MigrateUp(migFS))
	require.NoError(t, db.MigrateUp(migFS), "second up is a no-op")

	require.NoError(t, db.MigrateDown(migFS))
	version, dirty, err := db.MigrateVersion(migFS)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name='controller_runs'`).Scan(&n))
	assert.Zero(t, n)

	require.NoError(t, db.MigrateForce(migFS, 2))
	version, _, err = db.MigrateVersion(migFS)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestRunMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")

	t.Run("no action", func(t *testing.T) {
		var out bytes.Buffer
		assert.Error(t, runMigrate(&out, nil, path))
		assert.Contains(t, out.String(), "Usage: garage migrate")
	})

	t.Run("help", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, runMigrate(&out, []string{"help"}, path))
		assert.Contains(t, out.String(), "force <version>")
	})

	t.Run("status before up", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, runMigrate(&out, []string{"status"}, path))
		assert.Contains(t, out.String(), "current version: 0")
		assert.Contains(t, out.String(), "2 migration(s) pending")
	})

	t.Run("up then status", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, runMigrate(&out, []string{"up"}, path))
		out.Reset()
		require.NoError(t, runMigrate(&out, []string{"status"}, path))
		assert.Contains(t, out.String(), "database is up to date")
	})

	t.Run("down", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, runMigrate(&out, []string{"down"}, path))
		assert.Contains(t, out.String(), "rolled back")
	})

	t.Run("force", func(t *testing.T) {
		var out bytes.Buffer
		assert.Error(t, runMigrate(&out, []string{"force"}, path))
		assert.Error(t, runMigrate(&out, []string{"force", "two"}, path))
		require.NoError(t, runMigrate(&out, []string{"force", "2"}, path))
		assert.Contains(t, out.String(), "forced to 2")
	})

	t.Run("unknown", func(t *testing.T) {
		var out bytes.Buffer
		err := runMigrate(&out, []string{"sideways"}, path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sideways")
	})
}
