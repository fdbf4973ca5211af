// Package cli implements the vpn-tray command line. Without a sub-command
// it runs the tray application; the sub-commands script the same pipeline
// from a terminal.
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/yllada/vpn-tray/app"
	"github.com/yllada/vpn-tray/common"
	"github.com/yllada/vpn-tray/config"
	"github.com/yllada/vpn-tray/tray"
)

// environment carries the global flags and what they resolve to.
type environment struct {
	configPath string
	verbose    bool
	tool       string
	interval   time.Duration

	cfg *config.Config
	log *common.AppLogger
}

// load reads the configuration and applies the flag overrides.
func (e *environment) load(cmd *cobra.Command) error {
	level := common.LevelWarn
	if e.verbose {
		level = common.LevelDebug
	}
	e.log = common.NewAppLogger(cmd.ErrOrStderr(), level)

	if e.configPath == "" {
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		e.configPath = path
	}

	cfg, err := config.LoadFrom(e.configPath)
	if err != nil {
		return err
	}
	if e.tool != "" {
		cfg.ToolPath = e.tool
	}
	if e.interval > 0 {
		cfg.PollIntervalMS = int(e.interval / time.Millisecond)
	}
	e.cfg = cfg
	return nil
}

// dataDir holds actions, history and credentials next to the config file.
func (e *environment) dataDir() string {
	return filepath.Dir(e.configPath)
}

// enableFileLogging switches a long-running command to file logging.
// console receives a copy of every line.
func (e *environment) enableFileLogging(console io.Writer) {
	if !e.verbose {
		e.log.SetLevel(common.LevelInfo)
	}
	e.log.SetOutput(console)
	if err := e.log.EnableFileLogging(common.GetLogDir()); err != nil {
		e.log.Warn("Could not initialize file logging: %v", err)
	}
}

// newApp builds the application. One-shot commands pass notify=false.
func (e *environment) newApp(notify bool, opts app.Options) (*app.App, error) {
	cfg := *e.cfg
	if !notify {
		cfg.ShowNotifications = false
	}
	opts.Dir = e.dataDir()
	opts.Log = e.log
	return app.New(&cfg, opts)
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	e := &environment{}

	cmd := &cobra.Command{
		Use:   "vpn-tray",
		Short: "System tray front end for the NordVPN command line client",
		Long: `vpn-tray shows the NordVPN connection state in the system tray and
runs the client's commands from its menu, one at a time.

Quick start:
  vpn-tray                       # Run the tray application
  vpn-tray status                # Print the current status
  vpn-tray run connect           # Run an action by id or title
  vpn-tray token set             # Store the access token used by "Log in"
  vpn-tray watch                 # Terminal status monitor`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTray(cmd.Context(), e, cmd.ErrOrStderr())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&e.configPath, "config", "", "config file (default ~/.config/vpn-tray/config.yaml)")
	flags.BoolVarP(&e.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&e.tool, "tool", "", "path to the VPN client (default: nordvpn in PATH)")
	flags.DurationVar(&e.interval, "interval", 0, "status polling interval, e.g. 2s")

	cmd.AddCommand(newStatusCommand(e))
	cmd.AddCommand(newRunCommand(e))
	cmd.AddCommand(newActionsCommand(e))
	cmd.AddCommand(newHistoryCommand(e))
	cmd.AddCommand(newTokenCommand(e))
	cmd.AddCommand(newWatchCommand(e))

	return cmd
}

func runTray(ctx context.Context, e *environment, console io.Writer) error {
	e.enableFileLogging(console)
	defer e.log.Close()

	a, err := e.newApp(true, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	e.log.Info("Starting %s (tool: %s)", common.AppName, a.Catalog.ToolPath())
	indicator := tray.New(a.Catalog, a.Dispatcher, a.Checker, a.Bus, e.log.WithComponent("tray"))
	return a.Run(ctx, indicator.Run)
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, version string, args []string) int {
	root := NewRootCommand(version)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}
