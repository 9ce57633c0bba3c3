package config

import (
	"os"
	"path/filepath"
)

const (
	AppDirName       = "tally"
	CountersFileName = "counters.json"
	ConfigFileName   = "config.toml"
	GlobalConfigDir  = ".config/tally"
)

// Paths provides path resolution for tally data files.
type Paths struct {
	dataDir string
}

// NewPaths creates a Paths resolver. An empty dataDir selects the platform
// application-data directory.
func NewPaths(dataDir string) *Paths {
	return &Paths{dataDir: dataDir}
}

// DataDir returns the directory holding counters.json.
func (p *Paths) DataDir() string {
	if p.dataDir != "" {
		return p.dataDir
	}
	return DefaultDataDir()
}

// CountersPath returns the file the counter collection is persisted to.
func (p *Paths) CountersPath() string {
	return filepath.Join(p.DataDir(), CountersFileName)
}

// DefaultDataDir returns the platform application-data directory for tally,
// falling back to the working directory when none can be determined.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppDirName)
	}
	return "."
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, ConfigFileName)
}
