package cli

import (
	"fmt"

	"github.com/amterp/ra"

	tallyerr "github.com/amterp/tally/internal/errors"
	"github.com/amterp/tally/internal/model"
)

// stepOp names one of the single-counter value operations.
type stepOp string

const (
	stepIncrement stepOp = "inc"
	stepDecrement stepOp = "dec"
	stepReset     stepOp = "reset"
)

func registerStep(parent *ra.Cmd, ctx *CommandContext) {
	ctx.IncCounter, ctx.IncUsed = registerStepCmd(parent, stepIncrement, "Add one to a counter")
	ctx.DecCounter, ctx.DecUsed = registerStepCmd(parent, stepDecrement, "Subtract one from a counter")
	ctx.ResetCounter, ctx.ResetUsed = registerStepCmd(parent, stepReset, "Set a counter back to its initial value")
}

func registerStepCmd(parent *ra.Cmd, op stepOp, description string) (*string, *bool) {
	cmd := ra.NewCmd(string(op))
	cmd.SetDescription(description)

	counter, _ := ra.NewString("counter").
		SetUsage("Counter ID, position or name").
		SetCompletionFunc(completeCounters).
		Register(cmd)

	used, _ := parent.RegisterCmd(cmd)
	return counter, used
}

func runStep(opts appOptions, op stepOp, ref string, jsonOutput bool) {
	app := NewApp(opts)
	defer app.Close()

	counter, err := applyStep(app, op, ref)
	if err != nil {
		Fatal(err)
	}

	position := positionOf(app.CounterService.GetAll(), counter.ID)
	if jsonOutput {
		if err := printJson(NewCounterOutput(counter, position)); err != nil {
			Fatal(err)
		}
		return
	}

	fmt.Println(FormatCounterLine(counter, position, len(counter.Name), 1))
}

// applyStep resolves ref and applies op to the matching counter.
func applyStep(app *App, op stepOp, ref string) (model.Counter, error) {
	target, err := app.CounterResolver.Resolve(ref)
	if err != nil {
		return model.Counter{}, err
	}

	var (
		counter model.Counter
		ok      bool
	)
	switch op {
	case stepIncrement:
		counter, ok = app.CounterService.Increment(target.ID)
	case stepDecrement:
		counter, ok = app.CounterService.Decrement(target.ID)
	case stepReset:
		counter, ok = app.CounterService.Reset(target.ID)
	default:
		return model.Counter{}, fmt.Errorf("unknown operation %q", op)
	}
	if !ok {
		return model.Counter{}, tallyerr.CounterNotFound(ref)
	}

	app.Logger.Debug("Applied counter operation", "op", op, "id", counter.ID, "value", counter.Value)
	return counter, nil
}

// positionOf returns the 1-based position of id, or 0 when absent.
func positionOf(counters []model.Counter, id string) int {
	for i, c := range counters {
		if c.ID == id {
			return i + 1
		}
	}
	return 0
}
