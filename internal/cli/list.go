package cli

import (
	"fmt"
	"strconv"

	"github.com/amterp/ra"
	"github.com/charmbracelet/lipgloss"

	"github.com/amterp/tally/internal/model"
)

func registerList(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("list")
	cmd.SetDescription("List counters in order")

	ctx.ListUsed, _ = parent.RegisterCmd(cmd)
}

func runList(opts appOptions, jsonOutput bool) {
	app := NewApp(opts)
	defer app.Close()

	counters := app.CounterService.GetAll()

	if jsonOutput {
		if err := printJson(NewListOutput(counters)); err != nil {
			Fatal(err)
		}
		return
	}

	if len(counters) == 0 {
		PrintInfo("No counters yet. Create one with 'tally add <name>'")
		return
	}

	printCounterList(counters)
}

func printCounterList(counters []model.Counter) {
	nameWidth, valueWidth := columnWidths(counters)
	for i, c := range counters {
		fmt.Println(FormatCounterLine(c, i+1, nameWidth, valueWidth))
	}
}

// columnWidths returns the widest name and value so list lines align.
func columnWidths(counters []model.Counter) (int, int) {
	nameWidth, valueWidth := 0, 0
	for _, c := range counters {
		nameWidth = max(nameWidth, lipgloss.Width(c.Name))
		valueWidth = max(valueWidth, len(strconv.FormatInt(c.Value, 10)))
	}
	return nameWidth, valueWidth
}
