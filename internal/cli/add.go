package cli

import (
	"fmt"
	"strings"

	"github.com/amterp/ra"

	"github.com/amterp/tally/internal/model"
)

func registerAdd(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("add")
	cmd.SetDescription("Add a new counter")

	ctx.AddName, _ = ra.NewString("name").
		SetOptional(true).
		SetUsage("Counter name (prompts when omitted)").
		Register(cmd)

	ctx.AddInitial, _ = ra.NewString("initial").
		SetShort("i").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Starting value; anything that isn't a whole number starts at 0").
		Register(cmd)

	ctx.AddColor, _ = ra.NewString("color").
		SetShort("c").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Palette color (default Blue)").
		SetCompletionFunc(completeColors).
		Register(cmd)

	ctx.AddUsed, _ = parent.RegisterCmd(cmd)
}

func runAdd(opts appOptions, name, initial, color string, jsonOutput bool) {
	app := NewApp(opts)
	defer app.Close()

	draft, err := buildDraft(app, name, initial, color)
	if isCancelled(err) {
		PrintInfo("Cancelled")
		return
	}
	if err != nil {
		Fatal(err)
	}

	counter := app.CounterService.Add(draft.Name, draft.InitialText, draft.ColorName)
	position := len(app.CounterService.GetAll())

	if jsonOutput {
		if err := printJson(NewCounterOutput(counter, position)); err != nil {
			Fatal(err)
		}
		return
	}

	PrintSuccess("Added %s %s", RenderBold(counter.Name), RenderID(counter.ID))
	fmt.Println(FormatCounterLine(counter, position, len(counter.Name), 1))
	if color != "" && !strings.EqualFold(strings.TrimSpace(color), counter.ColorName) {
		PrintWarning("unknown color %q, using %s", color, counter.ColorName)
	}
}

// buildDraft collects new-counter input. Flags fill the draft directly; with
// no name and no flags an interactive session gets the add form instead.
func buildDraft(app *App, name, initial, color string) (model.Draft, error) {
	draft := model.NewDraft()
	if initial != "" {
		draft.InitialText = initial
	}
	if color != "" {
		draft.ColorName = model.CanonicalColorName(color)
	}
	draft.Name = name

	if name != "" || initial != "" || color != "" {
		return draft, nil
	}

	err := app.Prompter.CounterDraft(&draft, app.CounterService.AvailableColors())
	if err == nil {
		return draft, nil
	}
	if isNonInteractive(err) {
		// Nothing to prompt with: create a counter from the defaults
		return model.NewDraft(), nil
	}
	return draft, err
}
