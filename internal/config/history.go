package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fenilsonani/fileflow/internal/filelock"
)

// RunRecord summarizes one organize, duplicate removal or sweep run
type RunRecord struct {
	ID           string    `json:"id"`
	Operation    string    `json:"operation"`
	Root         string    `json:"root,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	DryRun       bool      `json:"dry_run"`
	Files        int       `json:"files"`
	Bytes        int64     `json:"bytes"`
	Failed       int       `json:"failed"`
	ManifestPath string    `json:"manifest_path,omitempty"`
}

// HistoryStore keeps one JSON file per run
type HistoryStore struct {
	dir string
}

// NewHistoryStore creates a store in dir, or in ~/.config/fileflow/history
// when dir is empty
func NewHistoryStore(dir string) (*HistoryStore, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".config", "fileflow", "history")
	}
	return &HistoryStore{dir: dir}, nil
}

// Dir returns the history directory
func (hs *HistoryStore) Dir() string {
	return hs.dir
}

// Save writes rec, filling in a timestamp and ID when missing
func (hs *HistoryStore) Save(rec *RunRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("run_%d", rec.Timestamp.UnixNano())
	}
	if strings.ContainsAny(rec.ID, `/\`) {
		return fmt.Errorf("invalid run id: %s", rec.ID)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	if err := filelock.WriteAtomic(hs.path(rec.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write run record: %w", err)
	}
	return nil
}

// Load reads the record with id
func (hs *HistoryStore) Load(id string) (*RunRecord, error) {
	data, err := os.ReadFile(hs.path(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read run record: %w", err)
	}

	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse run record: %w", err)
	}
	return &rec, nil
}

// List returns all records, newest first. A missing directory is an empty
// history; unreadable records are skipped.
func (hs *HistoryStore) List() ([]*RunRecord, error) {
	entries, err := os.ReadDir(hs.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*RunRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	records := make([]*RunRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		rec, err := hs.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

// Latest returns the most recent record
func (hs *HistoryStore) Latest() (*RunRecord, error) {
	records, err := hs.List()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no runs recorded")
	}
	return records[0], nil
}

// Delete removes the record with id
func (hs *HistoryStore) Delete(id string) error {
	if err := os.Remove(hs.path(id)); err != nil {
		return fmt.Errorf("failed to delete run record: %w", err)
	}
	return nil
}

// Prune removes records older than days and returns how many were removed
func (hs *HistoryStore) Prune(days int) (int, error) {
	records, err := hs.List()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	removed := 0
	for _, rec := range records {
		if rec.Timestamp.Before(cutoff) {
			if err := hs.Delete(rec.ID); err != nil {
				continue
			}
			removed++
		}
	}
	return removed, nil
}

func (hs *HistoryStore) path(id string) string {
	return filepath.Join(hs.dir, id+".json")
}
