package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/amterp/tally/internal/config"
	"github.com/amterp/tally/internal/model"
)

// FileCounterStore implements CounterStore as a single JSON array on disk.
type FileCounterStore struct {
	paths *config.Paths
}

// NewCounterStore creates a new counter store.
func NewCounterStore(paths *config.Paths) *FileCounterStore {
	return &FileCounterStore{paths: paths}
}

// Path returns the counters.json location.
func (s *FileCounterStore) Path() string {
	return s.paths.CountersPath()
}

// Load reads every counter from disk in file order.
// A missing file surfaces as an error satisfying os.IsNotExist.
func (s *FileCounterStore) Load() ([]*model.Counter, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return nil, err
	}
	counters, err := DecodeCounters(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.Path(), err)
	}
	return counters, nil
}

// Save overwrites the file with the given collection.
// There is no temp-file swap; a crash mid-write can leave a truncated file.
func (s *FileCounterStore) Save(counters []*model.Counter) error {
	data, err := EncodeCounters(counters)
	if err != nil {
		return err
	}

	path := s.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write counters file: %w", err)
	}
	return nil
}

// EncodeCounters renders the collection in the on-disk format: an indented
// JSON array, never null.
func EncodeCounters(counters []*model.Counter) ([]byte, error) {
	if counters == nil {
		counters = []*model.Counter{}
	}
	data, err := json.MarshalIndent(counters, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal counters: %w", err)
	}
	return data, nil
}

// DecodeCounters parses the on-disk format. A JSON null decodes to an empty
// collection; null array entries are dropped.
func DecodeCounters(data []byte) ([]*model.Counter, error) {
	var raw []*model.Counter
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	counters := make([]*model.Counter, 0, len(raw))
	for _, c := range raw {
		if c != nil {
			counters = append(counters, c)
		}
	}
	return counters, nil
}
