package cli

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/amterp/tally/internal/config"
	tallyerr "github.com/amterp/tally/internal/errors"
	"github.com/amterp/tally/internal/logging"
	"github.com/amterp/tally/internal/metrics"
	"github.com/amterp/tally/internal/model"
	"github.com/amterp/tally/internal/prompt"
	"github.com/amterp/tally/internal/resolver"
	"github.com/amterp/tally/internal/service"
	"github.com/amterp/tally/internal/store"
)

// closeTimeout bounds how long a command waits for the final write on exit.
const closeTimeout = 5 * time.Second

// appOptions carries the global flags every command shares.
type appOptions struct {
	Interactive bool
	DataDir     string

	// Metrics enables instrumentation; only long-running commands want it.
	Metrics bool
	// LogTimestamps adds timestamps to log lines, for serve.
	LogTimestamps bool
	// SkipLoad leaves the collection empty. Loading normalizes and may
	// rewrite the file, which doctor must see untouched.
	SkipLoad bool
}

// App holds all the dependencies for the CLI.
// Uses interfaces for testability.
type App struct {
	GlobalStore     store.GlobalStore
	GlobalConfig    *model.GlobalConfig
	Paths           *config.Paths
	CounterStore    store.CounterStore
	Prompter        prompt.Prompter
	Logger          *log.Logger
	Metrics         *metrics.Metrics
	CounterService  *service.CounterService
	DoctorService   *service.DoctorService
	CounterResolver *resolver.CounterResolver
}

// NewApp creates a new App with all dependencies wired up and the counter
// collection loaded. If interactive is false, uses NoopPrompter that fails
// on prompts.
func NewApp(opts appOptions) *App {
	globalStore := store.NewGlobalStore()

	// Load global config with warnings (don't silently ignore errors)
	globalCfg, err := globalStore.Load()
	if err != nil {
		PrintWarning("failed to load global config: %v", err)
		globalCfg = &model.GlobalConfig{}
	}

	logger := logging.New(logging.Options{
		Level:           globalCfg.EffectiveLogLevel(),
		ReportTimestamp: opts.LogTimestamps,
	})

	paths := config.NewPaths(resolveDataDir(opts.DataDir, globalCfg))
	counterStore := store.NewCounterStore(paths)

	var m *metrics.Metrics
	if opts.Metrics {
		m = metrics.New()
	}

	var prompter prompt.Prompter
	if opts.Interactive {
		prompter = prompt.NewHuhPrompter()
	} else {
		prompter = &prompt.NoopPrompter{}
	}

	counterService := service.NewCounterService(counterStore,
		service.WithLogger(logger),
		service.WithMetrics(m),
	)
	if !opts.SkipLoad {
		counterService.Load()
	}

	logger.Debug("Loaded counters", "path", paths.CountersPath(), "count", len(counterService.GetAll()))

	return &App{
		GlobalStore:     globalStore,
		GlobalConfig:    globalCfg,
		Paths:           paths,
		CounterStore:    counterStore,
		Prompter:        prompter,
		Logger:          logger,
		Metrics:         m,
		CounterService:  counterService,
		DoctorService:   service.NewDoctorService(counterStore),
		CounterResolver: resolver.NewCounterResolver(counterService),
	}
}

// resolveDataDir picks the data directory: the --data-dir flag wins over
// data_location in the global config. Empty selects the platform default.
func resolveDataDir(flagValue string, cfg *model.GlobalConfig) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg != nil {
		return cfg.DataLocation
	}
	return ""
}

// Close waits for pending writes so short-lived commands persist before exit.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := a.CounterService.Flush(ctx); err != nil {
		a.Logger.Warn("Timed out waiting for counters to save", "err", err)
	}
	_ = a.CounterService.Close()
}

func isNonInteractive(err error) bool {
	return errors.Is(err, prompt.ErrNonInteractive)
}

func isCancelled(err error) bool {
	return errors.Is(err, prompt.ErrCancelled)
}

// Fatal prints an error and exits.
func Fatal(err error) {
	PrintError("Error: %v", err)
	os.Exit(exitCode(err))
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case tallyerr.IsNotFound(err):
		return 3
	case tallyerr.IsValidationError(err):
		return 2
	default:
		return 1
	}
}
