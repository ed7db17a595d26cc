package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izerwaren/catalog-importer/internal/models"
)

func TestCheckpointSaveLoadRoundTrip(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "nested", "state.json"))

	state := &models.ImportState{
		ID:        "run-1",
		Status:    models.ImportStatusInProgress,
		Phase:     "products",
		Batch:     models.BatchProgress{Current: 3, Total: 10, Processed: 70, Failed: 2},
		StartedAt: time.Now().Add(-time.Minute).UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	state.AddError(models.ErrorKindProduct, "IZW-0001", "deadlock detected")

	require.NoError(t, store.Save(state))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "run-1", loaded.ID)
	assert.Equal(t, models.ImportStatusInProgress, loaded.Status)
	assert.Equal(t, 3, loaded.Batch.Current)
	assert.Equal(t, 70, loaded.Batch.Processed)
	require.Len(t, loaded.Errors, 1)
	assert.Equal(t, models.ErrorKindProduct, loaded.Errors[0].Kind)
}

func TestCheckpointLoadMissingFile(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "absent.json"))

	state, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestCheckpointSaveOverwritesPrevious(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "state.json"))

	require.NoError(t, store.Save(&models.ImportState{ID: "run-1", Status: models.ImportStatusInProgress}))
	require.NoError(t, store.Save(&models.ImportState{ID: "run-2", Status: models.ImportStatusCompleted}))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "run-2", loaded.ID)
	assert.Equal(t, models.ImportStatusCompleted, loaded.Status)

	// The temp file from the atomic rename must not linger.
	_, err = os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestCheckpointRejectsNilState(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "state.json"))
	assert.Error(t, store.Save(nil))
}

func TestCheckpointLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewCheckpointStore(path)
	_, err := store.Load()
	assert.Error(t, err)
}

func TestCheckpointCheckWritable(t *testing.T) {
	dir := t.TempDir()
	store := NewCheckpointStore(filepath.Join(dir, "state.json"))
	require.NoError(t, store.CheckWritable())

	// The probe must not leave artifacts behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
