package cli

import (
	"fmt"

	"github.com/amterp/ra"

	"github.com/amterp/tally/internal/model"
)

func registerColors(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("colors")
	cmd.SetDescription("List the colors a counter can use")

	ctx.ColorsUsed, _ = parent.RegisterCmd(cmd)
}

func runColors(jsonOutput bool) {
	names := model.AvailableColors()

	if jsonOutput {
		if err := printJson(NewColorsOutput(names)); err != nil {
			Fatal(err)
		}
		return
	}

	for _, name := range names {
		hex := model.ColorHex(name)
		label := name
		if name == model.DefaultColorName {
			label += RenderMuted(" (default)")
		}
		fmt.Printf("  %s %s  %s\n", ColorSwatch(hex), RenderMuted(hex), label)
	}
}
