package db

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/garage.gate/internal/garage"
)

func TestAttachAdminRoutes_Registers(t *testing.T) {
	db := newTestDB(t)
	mux := http.NewServeMux()
	debug, err := db.AttachAdminRoutes(mux)
	require.NoError(t, err)
	require.NotNil(t, debug)

	for _, path := range []string{"/debug/backup", "/debug/tailsql/"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			// Debug routes may answer 403 to non-local callers, but they exist.
			assert.NotEqual(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestServeBackup(t *testing.T) {
	db := newTestDB(t)
	_, err := db.RecordEvent("run-1", event(garage.EventEntry, 2, t0))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	db.serveBackup(w, httptest.NewRequest(http.MethodGet, "/debug/backup", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "garage-backup-")

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)

	restored := filepath.Join(t.TempDir(), "restored.db")
	require.NoError(t, os.WriteFile(restored, raw, 0o600))

	backup, err := OpenDB(restored)
	require.NoError(t, err)
	defer backup.Close()

	events, err := backup.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "run-1", events[0].RunID)
}

func TestBackupTo(t *testing.T) {
	db := newTestDB(t)
	_, err := db.RecordEvent("run-1", event(garage.EventExit, 3, t0))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "copy.db")
	require.NoError(t, db.BackupTo(path))
	assert.Error(t, db.BackupTo(path), "existing target is not overwritten")

	backup, err := OpenDB(path)
	require.NoError(t, err)
	defer backup.Close()
	events, err := backup.RecentEvents(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, garage.EventExit, events[0].Kind)
}
