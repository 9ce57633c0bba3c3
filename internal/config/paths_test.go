package config

import (
	"path/filepath"
	"testing"
)

func TestPaths_CustomDataDir(t *testing.T) {
	p := NewPaths("/data/tally")
	if got := p.DataDir(); got != "/data/tally" {
		t.Errorf("DataDir() = %q", got)
	}
	if got := p.CountersPath(); got != filepath.Join("/data/tally", "counters.json") {
		t.Errorf("CountersPath() = %q", got)
	}
}

func TestPaths_DefaultDataDir(t *testing.T) {
	p := NewPaths("")
	if got := p.DataDir(); got != DefaultDataDir() {
		t.Errorf("DataDir() = %q, want %q", got, DefaultDataDir())
	}
	if filepath.Base(p.CountersPath()) != CountersFileName {
		t.Errorf("CountersPath() = %q", p.CountersPath())
	}
}

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	got := GlobalConfigPath()
	if filepath.Base(got) != ConfigFileName {
		t.Errorf("GlobalConfigPath() = %q", got)
	}
	if filepath.Base(filepath.Dir(got)) != AppDirName {
		t.Errorf("GlobalConfigPath() dir = %q", filepath.Dir(got))
	}
}
