package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/amterp/ra"

	"github.com/amterp/tally/internal/config"
	"github.com/amterp/tally/internal/model"
	"github.com/amterp/tally/internal/store"
	"github.com/amterp/tally/internal/util"
)

// completionCtx provides lightweight store access for shell completion.
// Completion functions run during ParseOrExit, before NewApp() is called,
// so we can't use the full App. This reads counters.json directly without
// the normalization a full load would persist.
type completionCtx struct {
	once     sync.Once
	counters []*model.Counter
	err      error
}

var compCtx completionCtx

func initCompletionCtx() {
	compCtx.once.Do(func() {
		globalCfg, err := store.NewGlobalStore().Load()
		if err != nil {
			// Graceful degradation: fall back to the default data dir
			globalCfg = nil
		}

		paths := config.NewPaths(resolveDataDir(dataDirFromArgs(os.Args), globalCfg))
		compCtx.counters, compCtx.err = store.NewCounterStore(paths).Load()
	})
}

// completeCounters returns counter IDs, positions and name slugs matching
// the given prefix.
func completeCounters(toComplete string) ([]string, ra.CompletionDirective) {
	initCompletionCtx()
	if compCtx.err != nil {
		return nil, ra.CompletionDirectiveNoFileComp
	}
	return counterCandidates(compCtx.counters, toComplete), ra.CompletionDirectiveNoFileComp
}

// counterCandidates lists every reference form the resolver accepts for
// each counter, filtered by prefix.
func counterCandidates(counters []*model.Counter, toComplete string) []string {
	var result []string
	seen := make(map[string]bool)
	add := func(candidate string) {
		if candidate == "" || seen[candidate] || !strings.HasPrefix(candidate, toComplete) {
			return
		}
		seen[candidate] = true
		result = append(result, candidate)
	}

	for i, c := range counters {
		add(util.Slugify(c.Name))
		add(c.ID)
		add(strconv.Itoa(i + 1))
	}
	return result
}

// completeColors returns palette names matching the given prefix, ignoring case.
func completeColors(toComplete string) ([]string, ra.CompletionDirective) {
	var result []string
	for _, name := range model.AvailableColors() {
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(toComplete)) {
			result = append(result, name)
		}
	}
	return result, ra.CompletionDirectiveNoFileComp
}

// dataDirFromArgs scans the argument list for an explicit -d/--data-dir flag value.
func dataDirFromArgs(args []string) string {
	for i, arg := range args {
		// --data-dir=value or -d=value (skip empty values so fallback logic runs)
		if strings.HasPrefix(arg, "--data-dir=") {
			if v := strings.TrimPrefix(arg, "--data-dir="); v != "" {
				return v
			}
		}
		if strings.HasPrefix(arg, "-d=") {
			if v := strings.TrimPrefix(arg, "-d="); v != "" {
				return v
			}
		}
		// --data-dir value or -d value
		if (arg == "--data-dir" || arg == "-d") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// registerCompletion adds the "tally completion <shell>" command.
func registerCompletion(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("completion")
	cmd.SetDescription("Output shell completion script")

	ctx.CompletionShell, _ = ra.NewString("shell").
		SetUsage("Shell type").
		SetEnumConstraint([]string{"bash", "zsh"}).
		Register(cmd)

	ctx.CompletionUsed, _ = parent.RegisterCmd(cmd)
}

// runCompletion outputs the shell completion script to stdout.
func runCompletion(shell string, rootCmd *ra.Cmd) {
	var err error
	switch shell {
	case "bash":
		err = rootCmd.GenBashCompletion(os.Stdout)
	case "zsh":
		err = rootCmd.GenZshCompletion(os.Stdout)
	default:
		Fatal(fmt.Errorf("unsupported shell: %s (supported: bash, zsh)", shell))
	}
	if err != nil {
		Fatal(fmt.Errorf("failed to generate completion script: %w", err))
	}
}
