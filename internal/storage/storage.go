package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/connpass-attendance/internal/roster"
)

// DefaultDataDir is used when no data directory is configured.
const DefaultDataDir = "~/.local/share/connpass-attendance"

const snapshotFile = "snapshot.json"

// Storage handles persistence of crawl snapshots
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Path returns the snapshot file location.
func (s *Storage) Path() string {
	return filepath.Join(s.dataDir, snapshotFile)
}

// LoadSnapshot loads the previous snapshot. A missing file yields an empty
// snapshot.
func (s *Storage) LoadSnapshot() (*roster.Snapshot, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return roster.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot roster.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	if snapshot.Attendance == nil {
		snapshot.Attendance = roster.NewMatrix(nil, 0)
	}

	return &snapshot, nil
}

// SaveSnapshot stamps and writes the snapshot to disk
func (s *Storage) SaveSnapshot(snapshot *roster.Snapshot) error {
	snapshot.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.WriteFile(s.Path(), data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// GetMember looks a member up by ID in the stored snapshot.
func (s *Storage) GetMember(id string) (*roster.Member, error) {
	snapshot, err := s.LoadSnapshot()
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	for i := range snapshot.Members {
		if snapshot.Members[i].ID == id {
			return &snapshot.Members[i], nil
		}
	}

	return nil, fmt.Errorf("member not found: %s", id)
}
