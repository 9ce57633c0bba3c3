package cli

import (
	"fmt"
	"strconv"

	"github.com/amterp/ra"

	tallyerr "github.com/amterp/tally/internal/errors"
	"github.com/amterp/tally/internal/model"
	"github.com/amterp/tally/internal/service"
)

// Fields offered by the interactive edit menu.
const (
	editFieldName    = "name"
	editFieldColor   = "color"
	editFieldInitial = "initial value"
)

func registerEdit(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("edit")
	cmd.SetDescription("Change a counter's name, color or initial value")

	ctx.EditCounter, _ = ra.NewString("counter").
		SetUsage("Counter ID, position or name").
		SetCompletionFunc(completeCounters).
		Register(cmd)

	ctx.EditName, _ = ra.NewString("name").
		SetShort("n").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("New name").
		Register(cmd)

	ctx.EditColor, _ = ra.NewString("color").
		SetShort("c").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("New palette color").
		SetCompletionFunc(completeColors).
		Register(cmd)

	ctx.EditInitial, _ = ra.NewString("initial").
		SetShort("i").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("New initial value (used by reset)").
		Register(cmd)

	ctx.EditUsed, _ = parent.RegisterCmd(cmd)
}

func runEdit(opts appOptions, ref, name, color, initial string, jsonOutput bool) {
	app := NewApp(opts)
	defer app.Close()

	counter, err := app.CounterResolver.Resolve(ref)
	if err != nil {
		Fatal(err)
	}

	input := editInputFromFlags(name, color, initial)
	if input == (service.EditCounterInput{}) {
		input, err = promptEdit(app, counter)
		if isCancelled(err) {
			PrintInfo("Cancelled")
			return
		}
		if isNonInteractive(err) {
			Fatal(tallyerr.InvalidField("edit", "pass --name, --color or --initial in non-interactive mode"))
		}
		if err != nil {
			Fatal(err)
		}
	}

	updated, ok := app.CounterService.Edit(counter.ID, input)
	if !ok {
		Fatal(tallyerr.CounterNotFound(ref))
	}

	position := positionOf(app.CounterService.GetAll(), updated.ID)
	if jsonOutput {
		if err := printJson(NewCounterOutput(updated, position)); err != nil {
			Fatal(err)
		}
		return
	}

	PrintSuccess("Updated %s", RenderID(updated.ID))
	printCounterDetail(updated)
	if input.ColorName != nil && *input.ColorName != updated.ColorName {
		PrintWarning("unknown color %q, using %s", *input.ColorName, updated.ColorName)
	}
}

// editInputFromFlags builds an edit from the flags that were given.
// Empty flags mean "leave unchanged".
func editInputFromFlags(name, color, initial string) service.EditCounterInput {
	var input service.EditCounterInput
	if name != "" {
		input.Name = &name
	}
	if color != "" {
		canonical := model.CanonicalColorName(color)
		input.ColorName = &canonical
	}
	if initial != "" {
		input.InitialValueText = &initial
	}
	return input
}

// promptEdit asks which field to change and then for its new value.
func promptEdit(app *App, counter model.Counter) (service.EditCounterInput, error) {
	var input service.EditCounterInput

	field, err := app.Prompter.Select("Select field to edit", []string{editFieldName, editFieldColor, editFieldInitial})
	if err != nil {
		return input, err
	}

	switch field {
	case editFieldName:
		name, err := app.Prompter.Input("Name", counter.Name)
		if err != nil {
			return input, err
		}
		input.Name = &name
	case editFieldColor:
		color, err := app.Prompter.Select("Color", app.CounterService.AvailableColors())
		if err != nil {
			return input, err
		}
		input.ColorName = &color
	case editFieldInitial:
		initial, err := app.Prompter.Input("Initial value", strconv.FormatInt(counter.InitialValue, 10))
		if err != nil {
			return input, err
		}
		input.InitialValueText = &initial
	default:
		return input, fmt.Errorf("unknown field %q", field)
	}
	return input, nil
}

func printCounterDetail(c model.Counter) {
	const labelWidth = 8
	fmt.Println(LabelValue("Name", RenderBold(c.Name), labelWidth))
	fmt.Println(LabelValue("Value", fmt.Sprintf("%d", c.Value), labelWidth))
	fmt.Println(LabelValue("Initial", fmt.Sprintf("%d", c.InitialValue), labelWidth))
	fmt.Println(LabelValue("Color", fmt.Sprintf("%s %s %s", ColorSwatch(c.ColorHex), c.ColorName, RenderMuted(c.ColorHex)), labelWidth))
	fmt.Println(LabelValue("ID", RenderID(c.ID), labelWidth))
}
