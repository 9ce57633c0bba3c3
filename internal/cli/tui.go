package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/amterp/ra"

	"github.com/amterp/tally/internal/tui"
)

func registerTui(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("tui")
	cmd.SetDescription("Open the interactive counter board")

	ctx.TuiUsed, _ = parent.RegisterCmd(cmd)
}

func runTui(opts appOptions) {
	app := NewApp(opts)
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	if err := tui.Run(ctx, app.CounterService); err != nil {
		app.Close()
		Fatal(err)
	}
}
