package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/amterp/tally/internal/config"
	"github.com/amterp/tally/internal/model"
)

// TestCounter returns a counter with sensible test defaults.
func TestCounter(id, name string) *model.Counter {
	return &model.Counter{
		ID:           id,
		Name:         name,
		InitialValue: 0,
		Value:        0,
		ColorName:    model.DefaultColorName,
		ColorHex:     model.ColorHex(model.DefaultColorName),
	}
}

// TempDataDir creates a temporary data directory for testing.
// Returns the dir path and a cleanup function.
func TempDataDir(t *testing.T) (string, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "tally-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	cleanup := func() {
		os.RemoveAll(dir)
	}

	return dir, cleanup
}

// WriteCountersFile writes raw contents to counters.json in dataDir,
// for tests that need a file the store would never produce.
func WriteCountersFile(t *testing.T, dataDir, contents string) string {
	t.Helper()

	path := filepath.Join(dataDir, config.CountersFileName)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write counters file: %v", err)
	}
	return path
}

// NewTestPaths creates a Paths for testing with the given temp directory.
func NewTestPaths(dataDir string) *config.Paths {
	return config.NewPaths(dataDir)
}
