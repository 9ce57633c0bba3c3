package service

import (
	"bytes"
	"context"
	"os"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/amterp/tally/internal/id"
	"github.com/amterp/tally/internal/logging"
	"github.com/amterp/tally/internal/metrics"
	"github.com/amterp/tally/internal/model"
	"github.com/amterp/tally/internal/store"
)

// Operation names reported to metrics and logs.
const (
	OpAdd       = "add"
	OpIncrement = "increment"
	OpDecrement = "decrement"
	OpReset     = "reset"
	OpDelete    = "delete"
	OpEdit      = "edit"
	OpLoad      = "load"
)

// CounterService owns the ordered counter collection.
//
// Every mutation updates memory synchronously and then requests a write of
// the whole collection. Writes run on a single background goroutine and
// their failures are logged and dropped; callers never see them. Use Flush
// or Close before exiting to make sure pending writes reach disk.
type CounterService struct {
	store   store.CounterStore
	logger  *log.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	counters []*model.Counter

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int

	saveMu      sync.Mutex
	writeMu     sync.Mutex
	lastWritten []byte // encoding of the last collection this process wrote or loaded

	persister *persister
}

// Option configures a CounterService.
type Option func(*CounterService)

// WithLogger sets the logger used for swallowed load/save failures.
func WithLogger(logger *log.Logger) Option {
	return func(s *CounterService) {
		s.logger = logger
	}
}

// WithMetrics enables operation and persistence metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *CounterService) {
		s.metrics = m
	}
}

// NewCounterService creates a service with an empty collection backed by
// the given store. Call Load to read the persisted collection.
func NewCounterService(counterStore store.CounterStore, opts ...Option) *CounterService {
	s := &CounterService{
		store:    counterStore,
		logger:   logging.Discard(),
		counters: []*model.Counter{},
		subs:     make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.persister = newPersister(s.writeSnapshot)
	return s
}

// Load replaces the collection with the persisted one.
//
// Failures (missing file, unreadable file, malformed JSON) are logged and
// leave the current collection untouched. Loaded counters get their colors
// normalized and missing IDs assigned; if that changed anything, the
// normalized collection is written back so IDs stay stable across runs.
func (s *CounterService) Load() {
	loaded, err := s.store.Load()
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("No counters file yet", "path", s.store.Path())
		} else {
			s.logger.Warn("Failed to load counters, keeping current collection", "path", s.store.Path(), "err", err)
		}
		return
	}

	s.replace(loaded)
}

// ReloadIfChanged re-reads the persisted file and replaces the collection
// when the file holds something other than what this process last wrote.
// Used when another process rewrites counters.json while a server runs.
// Returns true if the collection was replaced.
func (s *CounterService) ReloadIfChanged() bool {
	loaded, err := s.store.Load()
	if err != nil {
		s.logger.Debug("Ignoring unreadable counters file change", "err", err)
		return false
	}

	data, err := store.EncodeCounters(loaded)
	if err != nil {
		return false
	}
	s.writeMu.Lock()
	same := bytes.Equal(data, s.lastWritten)
	s.writeMu.Unlock()
	if same {
		return false
	}

	s.logger.Info("Counters file changed on disk, reloading", "path", s.store.Path())
	s.replace(loaded)
	return true
}

func (s *CounterService) replace(loaded []*model.Counter) {
	if data, err := store.EncodeCounters(loaded); err == nil {
		s.writeMu.Lock()
		s.lastWritten = data
		s.writeMu.Unlock()
	}

	normalized := false
	seen := make(map[string]bool, len(loaded))
	for _, c := range loaded {
		before := *c
		c.NormalizeLoaded()
		// Later duplicates get a fresh ID so every counter stays addressable.
		if id.Missing(c.ID) || seen[c.ID] {
			c.ID = freshID(seen)
		}
		seen[c.ID] = true
		if *c != before {
			normalized = true
		}
	}

	s.mu.Lock()
	s.counters = loaded
	count := len(s.counters)
	s.mu.Unlock()

	s.metrics.ObserveOperation(OpLoad)
	s.metrics.SetCounterCount(count)
	s.notify()
	if normalized {
		s.persist()
	}
}

// GetAll returns a snapshot of the collection in order.
func (s *CounterService) GetAll() []model.Counter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Counter, len(s.counters))
	for i, c := range s.counters {
		out[i] = *c
	}
	return out
}

// Get returns a copy of the counter with the given ID.
func (s *CounterService) Get(counterID string) (model.Counter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(counterID); i >= 0 {
		return *s.counters[i], true
	}
	return model.Counter{}, false
}

// AvailableColors returns the palette names in display order.
func (s *CounterService) AvailableColors() []string {
	return model.AvailableColors()
}

// Add creates a counter from raw input and appends it to the collection.
// See model.NewCounter for the defaulting rules; Add never fails.
func (s *CounterService) Add(name, initialValueText, colorName string) model.Counter {
	c := model.NewCounter(name, initialValueText, colorName)

	s.mu.Lock()
	taken := make(map[string]bool, len(s.counters))
	for _, existing := range s.counters {
		taken[existing.ID] = true
	}
	c.ID = freshID(taken)
	s.counters = append(s.counters, c)
	added := *c
	count := len(s.counters)
	s.mu.Unlock()

	s.changed(OpAdd, count)
	return added
}

// Increment adds one to the counter's value.
// Returns false, changing nothing, when no counter has the ID.
func (s *CounterService) Increment(counterID string) (model.Counter, bool) {
	return s.mutate(counterID, OpIncrement, func(c *model.Counter) bool {
		c.Value++
		return true
	})
}

// Decrement subtracts one from the counter's value.
func (s *CounterService) Decrement(counterID string) (model.Counter, bool) {
	return s.mutate(counterID, OpDecrement, func(c *model.Counter) bool {
		c.Value--
		return true
	})
}

// Reset sets the counter's value back to its initial value.
func (s *CounterService) Reset(counterID string) (model.Counter, bool) {
	return s.mutate(counterID, OpReset, func(c *model.Counter) bool {
		if c.Value == c.InitialValue {
			return false
		}
		c.Value = c.InitialValue
		return true
	})
}

// EditCounterInput holds optional field changes; nil fields are left alone.
type EditCounterInput struct {
	Name             *string
	ColorName        *string
	InitialValueText *string
}

// Edit applies field changes using the same defaulting rules as Add.
// Changing the initial value does not touch the current value.
func (s *CounterService) Edit(counterID string, input EditCounterInput) (model.Counter, bool) {
	return s.mutate(counterID, OpEdit, func(c *model.Counter) bool {
		before := *c
		if input.Name != nil {
			c.Name = model.NormalizeName(*input.Name)
		}
		if input.ColorName != nil {
			c.SetColor(*input.ColorName)
		}
		if input.InitialValueText != nil {
			c.InitialValue = model.ParseInitialValue(*input.InitialValueText)
		}
		return *c != before
	})
}

// Delete removes the counter, keeping the order of the rest.
// Returns false when no counter has the ID.
func (s *CounterService) Delete(counterID string) bool {
	s.mu.Lock()
	i := s.indexOf(counterID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.counters = slices.Delete(s.counters, i, i+1)
	count := len(s.counters)
	s.mu.Unlock()

	s.changed(OpDelete, count)
	return true
}

// Save writes the current collection and waits for the write to finish.
// The write goes through the background writer, so it never overlaps
// another one. Failures are logged and dropped, like background writes.
func (s *CounterService) Save() {
	if s.persister.request() {
		if err := s.persister.flush(context.Background()); err == nil {
			return
		}
	}
	// Closed: no background writer is left to race with
	s.writeSnapshot()
}

// Subscribe returns a channel that receives a signal after every change to
// the collection, plus a function to stop the subscription. Signals
// coalesce: a slow reader sees one pending signal, not one per change.
func (s *CounterService) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subMu.Lock()
	key := s.nextSub
	s.nextSub++
	s.subs[key] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, key)
			s.subMu.Unlock()
		})
	}
}

// Flush waits for every write requested so far to finish.
func (s *CounterService) Flush(ctx context.Context) error {
	return s.persister.flush(ctx)
}

// Close writes any pending changes and stops the background writer.
// Mutations after Close update memory only.
func (s *CounterService) Close() error {
	s.persister.close()
	return nil
}

func (s *CounterService) mutate(counterID, op string, fn func(c *model.Counter) bool) (model.Counter, bool) {
	s.mu.Lock()
	i := s.indexOf(counterID)
	if i < 0 {
		s.mu.Unlock()
		return model.Counter{}, false
	}
	c := s.counters[i]
	modified := fn(c)
	result := *c
	count := len(s.counters)
	s.mu.Unlock()

	if modified {
		s.changed(op, count)
	}
	return result, true
}

func freshID(taken map[string]bool) string {
	for {
		if v := id.New(); !taken[v] {
			return v
		}
	}
}

// indexOf must be called with s.mu held.
func (s *CounterService) indexOf(counterID string) int {
	if counterID == "" {
		return -1
	}
	return slices.IndexFunc(s.counters, func(c *model.Counter) bool {
		return c.ID == counterID
	})
}

func (s *CounterService) changed(op string, count int) {
	s.metrics.ObserveOperation(op)
	s.metrics.SetCounterCount(count)
	s.logger.Debug("Counter collection changed", "op", op, "count", count)
	s.notify()
	s.persist()
}

func (s *CounterService) persist() {
	if !s.persister.request() {
		s.logger.Debug("Service closed, change kept in memory only")
	}
}

func (s *CounterService) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// writeSnapshot serializes the collection as it is right now.
// saveMu keeps store.Save calls from overlapping.
func (s *CounterService) writeSnapshot() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snapshot := s.snapshot()

	err := s.store.Save(snapshot)
	s.metrics.ObservePersist(err)
	if err != nil {
		s.logger.Warn("Failed to save counters", "path", s.store.Path(), "err", err)
		return
	}

	if data, err := store.EncodeCounters(snapshot); err == nil {
		s.writeMu.Lock()
		s.lastWritten = data
		s.writeMu.Unlock()
	}
}

func (s *CounterService) snapshot() []*model.Counter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Counter, len(s.counters))
	for i, c := range s.counters {
		cp := *c
		out[i] = &cp
	}
	return out
}
