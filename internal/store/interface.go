package store

import "github.com/amterp/tally/internal/model"

// CounterStore handles persistence of the whole counter collection.
type CounterStore interface {
	Load() ([]*model.Counter, error)
	Save(counters []*model.Counter) error
	Path() string // Location of the persisted file
}

// GlobalStore handles global config persistence.
type GlobalStore interface {
	Load() (*model.GlobalConfig, error)
	Save(config *model.GlobalConfig) error
	EnsureExists() error
}
