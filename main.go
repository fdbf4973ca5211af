// Package main provides the entry point for VPN Tray.
// VPN Tray keeps the NordVPN command line client one click away: it shows
// the connection state in the system tray and runs the client's commands
// from the tray menu, one at a time.
//
// Usage:
//
//	vpn-tray [command] [flags]
//
// Environment:
//
//	The nordvpn client must be installed, or its path given with --tool,
//	VPNTRAY_TOOL_PATH or tool_path in the config file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yllada/vpn-tray/cli"
	"github.com/yllada/vpn-tray/common"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandler(cancel)

	version := appVersion
	if buildTime != "unknown" {
		version += " (build " + buildTime + ", commit " + commitSHA + ")"
	}

	code := cli.Execute(ctx, version, os.Args[1:])
	cancel()
	os.Exit(code)
}

// setupSignalHandler cancels the context on SIGINT/SIGTERM so that running
// invocations are stopped and the tray exits cleanly.
func setupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		common.LogInfo("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	}()
}
