package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/izerwaren/catalog-importer/internal/models"
)

// CheckpointStore durably persists the run state snapshot as a JSON document
// at a well-known path. Each save overwrites the previous snapshot; history
// lives inside the state itself (error log, statistics).
type CheckpointStore struct {
	path string
}

// NewCheckpointStore creates a CheckpointStore writing to path.
func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{path: path}
}

// Path returns the snapshot location.
func (c *CheckpointStore) Path() string {
	return c.path
}

// Save writes a full snapshot atomically: the document is written to a temp
// file in the same directory and renamed over the previous snapshot, so a
// crash mid-write can never leave a torn checkpoint behind.
func (c *CheckpointStore) Save(state *models.ImportState) error {
	if state == nil {
		return errors.New("nil import state")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal import state: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}
	return nil
}

// Load returns the last saved snapshot, or (nil, nil) when no checkpoint
// exists yet — an absent file is a valid initial state, not an error.
func (c *CheckpointStore) Load() (*models.ImportState, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var state models.ImportState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return &state, nil
}

// CheckWritable verifies the checkpoint directory can be written, used for
// prerequisite validation before a run starts.
func (c *CheckpointStore) CheckWritable() error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("checkpoint directory not creatable: %w", err)
	}
	probe := filepath.Join(dir, ".write_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("checkpoint directory not writable: %w", err)
	}
	return os.Remove(probe)
}
