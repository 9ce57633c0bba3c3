package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/amterp/ra"

	"github.com/amterp/tally/internal/api"
)

const defaultServePort = 3000

func registerServe(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("serve")
	cmd.SetDescription("Serve the counter list over HTTP with live updates")

	ctx.ServePort, _ = ra.NewInt("port").
		SetOptional(true).
		SetDefault(0).
		SetShort("p").
		SetFlagOnly(true).
		SetUsage("Port to listen on (default serve_port or 3000; tries the next ports if in use)").
		Register(cmd)

	ctx.ServeUsed, _ = parent.RegisterCmd(cmd)
}

func runServe(opts appOptions, port int) {
	opts.Metrics = true
	opts.LogTimestamps = true
	app := NewApp(opts)
	defer app.Close()

	if port == 0 {
		port = app.GlobalConfig.ServePort
	}
	if port == 0 {
		port = defaultServePort
	}

	// Find an available port starting from the requested one
	actualPort := findAvailablePort(port)

	server := api.NewServer(api.ServerConfig{
		Counters: app.CounterService,
		Metrics:  app.Metrics,
		Logger:   app.Logger,
		Port:     actualPort,
		DataDir:  app.Paths.DataDir(),
	})

	url := fmt.Sprintf("http://localhost:%d", actualPort)
	PrintSuccess("Tally API running at %s", RenderURL(url+"/api/v1/counters"))
	PrintInfo("Live updates at %s, metrics at %s", RenderURL(url+"/api/v1/ws"), RenderURL(url+"/metrics"))
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		app.Close()
		Fatal(err)
	}
	app.Logger.Info("Server stopped")
}

// findAvailablePort tries ports starting from startPort until it finds one that's available.
func findAvailablePort(startPort int) int {
	maxAttempts := 100
	for i := 0; i < maxAttempts; i++ {
		port := startPort + i
		if isPortAvailable(port) {
			return port
		}
	}
	// If we couldn't find a port after maxAttempts, return the original and let it fail naturally
	return startPort
}

// isPortAvailable checks if a port is available by attempting to listen on it.
func isPortAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}
