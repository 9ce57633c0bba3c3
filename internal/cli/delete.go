package cli

import (
	"fmt"

	"github.com/amterp/ra"

	tallyerr "github.com/amterp/tally/internal/errors"
)

func registerDelete(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("delete")
	cmd.SetDescription("Delete a counter")

	ctx.DeleteCounter, _ = ra.NewString("counter").
		SetUsage("Counter ID, position or name").
		SetCompletionFunc(completeCounters).
		Register(cmd)

	ctx.DeleteForce, _ = ra.NewBool("force").
		SetShort("f").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Skip confirmation (required in non-interactive mode)").
		Register(cmd)

	ctx.DeleteUsed, _ = parent.RegisterCmd(cmd)
}

func runDelete(opts appOptions, ref string, force, jsonOutput bool) {
	app := NewApp(opts)
	defer app.Close()

	counter, err := app.CounterResolver.Resolve(ref)
	if err != nil {
		Fatal(err)
	}
	position := positionOf(app.CounterService.GetAll(), counter.ID)

	if !force {
		if !opts.Interactive {
			Fatal(tallyerr.InvalidField("force",
				fmt.Sprintf("deleting counter %q (%s) requires --force in non-interactive mode", counter.Name, counter.ID)))
		}

		confirmed, err := app.Prompter.Confirm(
			fmt.Sprintf("Delete counter %q (value %d)?", counter.Name, counter.Value),
			false,
		)
		if err != nil {
			Fatal(err)
		}
		if !confirmed {
			PrintInfo("Cancelled")
			return
		}
	}

	if !app.CounterService.Delete(counter.ID) {
		Fatal(tallyerr.CounterNotFound(ref))
	}

	if jsonOutput {
		if err := printJson(DeleteOutput{Deleted: counterToJson(counter, position)}); err != nil {
			Fatal(err)
		}
		return
	}

	PrintSuccess("Deleted counter %q (%s)", counter.Name, RenderID(counter.ID))
}
