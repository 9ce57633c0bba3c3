package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amterp/tally/internal/model"
)

func TestFileGlobalStore_LoadMissingReturnsEmpty(t *testing.T) {
	store := NewGlobalStoreAt(filepath.Join(t.TempDir(), "config.toml"))

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataLocation != "" || cfg.LogLevel != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestFileGlobalStore_SaveStampsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	store := NewGlobalStoreAt(path)

	cfg := &model.GlobalConfig{DataLocation: "/tmp/tally", LogLevel: "debug", ServePort: 4000}
	if err := store.Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), `tally_schema = "global/1"`) {
		t.Errorf("schema not stamped:\n%s", data)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded %+v, want %+v", loaded, cfg)
	}
}

func TestFileGlobalStore_LoadRejectsMissingSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`log_level = "info"`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewGlobalStoreAt(path).Load(); err == nil {
		t.Fatal("expected schema error")
	}
}

func TestFileGlobalStore_LoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "tally_schema = \"global/1\"\nlog_level = \"chatty\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewGlobalStoreAt(path).Load()
	if err == nil || !strings.Contains(err.Error(), "log_level") {
		t.Fatalf("expected log_level validation error, got %v", err)
	}
}

func TestFileGlobalStore_EnsureExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	store := NewGlobalStoreAt(path)

	if err := store.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	// Second call must not clobber edits
	if err := os.WriteFile(path, []byte("tally_schema = \"global/1\"\nserve_port = 9000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := store.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServePort != 9000 {
		t.Errorf("ServePort = %d, want 9000", cfg.ServePort)
	}
}
