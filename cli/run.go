package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yllada/vpn-tray/action"
	"github.com/yllada/vpn-tray/app"
	"github.com/yllada/vpn-tray/events"
)

func newRunCommand(e *environment) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "run <action>",
		Short: "Run an action by id or title and print its output",
		Long: `Run an action by id or title and print its output.

The action goes through the same single-file lane as the tray. With --force
the result is also shown as a desktop notification.

Example:
  vpn-tray run connect
  vpn-tray run builtin.killswitch.on
  vpn-tray run "Account" --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.newApp(force, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			desc, err := a.Catalog.Lookup(args[0])
			if err != nil {
				return err
			}
			if _, ok := desc.Scope.(action.SystemScope); ok {
				return fmt.Errorf("%q only works while the tray application is running", desc.Title)
			}

			ctx := cmd.Context()
			a.Serializer.Start(ctx)
			defer a.Serializer.Stop()

			done := make(chan events.ActionPerformed, 1)
			if err := a.Dispatcher.DispatchWith(desc.ID, force, func(ev events.ActionPerformed) {
				done <- ev
			}); err != nil {
				return err
			}

			var ev events.ActionPerformed
			select {
			case ev = <-done:
			case <-ctx.Done():
				return ctx.Err()
			}

			if ev.Text != "" {
				fmt.Fprintln(cmd.OutOrStdout(), ev.Text)
			}
			e.log.Info("%s", ev.Description)
			if !ev.OK {
				return errors.New(ev.Description)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "also show the result as a desktop notification")
	return cmd
}
