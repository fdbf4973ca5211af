package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/yllada/vpn-tray/app"
	"github.com/yllada/vpn-tray/tui"
)

func newWatchCommand(e *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Monitor the VPN status in the terminal",
		Long: `Monitor the VPN status in the terminal.

Keys: c check now, p toggle polling, q quit. Logs go to the log file only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e.enableFileLogging(io.Discard)
			defer e.log.Close()

			a, err := e.newApp(false, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Run(cmd.Context(), func(ctx context.Context) error {
				return tui.Run(ctx, a.Bus, a.Checker)
			})
		},
	}
}
