package cli

import (
	"os"

	"github.com/amterp/ra"
)

// CommandContext holds parsed values and used flags for all commands.
type CommandContext struct {
	// Global flags
	NonInteractive *bool
	Json           *bool
	DataDir        *string

	// add command
	AddUsed    *bool
	AddName    *string
	AddInitial *string
	AddColor   *string

	// list command
	ListUsed *bool

	// inc / dec / reset commands
	IncUsed      *bool
	IncCounter   *string
	DecUsed      *bool
	DecCounter   *string
	ResetUsed    *bool
	ResetCounter *string

	// edit command
	EditUsed    *bool
	EditCounter *string
	EditName    *string
	EditColor   *string
	EditInitial *string

	// delete command
	DeleteUsed    *bool
	DeleteCounter *string
	DeleteForce   *bool

	// colors command
	ColorsUsed *bool

	// doctor command
	DoctorUsed   *bool
	DoctorFix    *bool
	DoctorDryRun *bool

	// serve command
	ServeUsed *bool
	ServePort *int

	// tui command
	TuiUsed *bool

	// completion command
	CompletionUsed  *bool
	CompletionShell *string
}

// Run is the main entry point for the CLI.
func Run() {
	ctx := &CommandContext{}

	cmd := ra.NewCmd("tally")
	cmd.SetDescription("A list of named, colored counters")

	// Global flag for non-interactive mode
	ctx.NonInteractive, _ = ra.NewBool("non-interactive").
		SetShort("I").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Fail instead of prompting for missing input").
		Register(cmd, ra.WithGlobal(true))

	ctx.Json, _ = ra.NewBool("json").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Print machine-readable JSON").
		Register(cmd, ra.WithGlobal(true))

	ctx.DataDir, _ = ra.NewString("data-dir").
		SetShort("d").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Directory holding counters.json (overrides data_location)").
		Register(cmd, ra.WithGlobal(true))

	// Register all subcommands
	registerAdd(cmd, ctx)
	registerList(cmd, ctx)
	registerStep(cmd, ctx)
	registerEdit(cmd, ctx)
	registerDelete(cmd, ctx)
	registerColors(cmd, ctx)
	registerDoctor(cmd, ctx)
	registerServe(cmd, ctx)
	registerTui(cmd, ctx)
	registerCompletion(cmd, ctx)

	// Parse command line
	cmd.ParseOrExit(os.Args[1:])

	// Execute the appropriate command
	executeCommand(ctx, cmd)
}

func executeCommand(ctx *CommandContext, rootCmd *ra.Cmd) {
	opts := appOptions{
		Interactive: !*ctx.NonInteractive,
		DataDir:     *ctx.DataDir,
	}
	jsonOutput := *ctx.Json

	switch {
	case *ctx.AddUsed:
		runAdd(opts, *ctx.AddName, *ctx.AddInitial, *ctx.AddColor, jsonOutput)

	case *ctx.ListUsed:
		runList(opts, jsonOutput)

	case *ctx.IncUsed:
		runStep(opts, stepIncrement, *ctx.IncCounter, jsonOutput)

	case *ctx.DecUsed:
		runStep(opts, stepDecrement, *ctx.DecCounter, jsonOutput)

	case *ctx.ResetUsed:
		runStep(opts, stepReset, *ctx.ResetCounter, jsonOutput)

	case *ctx.EditUsed:
		runEdit(opts, *ctx.EditCounter, *ctx.EditName, *ctx.EditColor, *ctx.EditInitial, jsonOutput)

	case *ctx.DeleteUsed:
		runDelete(opts, *ctx.DeleteCounter, *ctx.DeleteForce, jsonOutput)

	case *ctx.ColorsUsed:
		runColors(jsonOutput)

	case *ctx.DoctorUsed:
		runDoctor(opts, *ctx.DoctorFix, *ctx.DoctorDryRun, jsonOutput)

	case *ctx.ServeUsed:
		if jsonOutput {
			warnJsonNotSupported("serve")
		}
		runServe(opts, *ctx.ServePort)

	case *ctx.TuiUsed:
		if jsonOutput {
			warnJsonNotSupported("tui")
		}
		runTui(opts)

	case *ctx.CompletionUsed:
		runCompletion(*ctx.CompletionShell, rootCmd)
	}
}
