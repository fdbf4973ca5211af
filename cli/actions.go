package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yllada/vpn-tray/action"
	"github.com/yllada/vpn-tray/common"
)

func newActionsCommand(e *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List and manage menu actions",
		Long: `List and manage menu actions.

Built-in actions wrap the VPN client's sub-commands. User actions run any
executable and are stored in actions.yaml next to the config file.`,
	}

	cmd.AddCommand(newActionsListCommand(e))
	cmd.AddCommand(newActionsAddCommand(e))
	cmd.AddCommand(newActionsRemoveCommand(e))
	return cmd
}

func (e *environment) openActions() (*action.Store, error) {
	return action.NewStore(filepath.Join(e.dataDir(), common.ActionsFileName))
}

func newActionsListCommand(e *environment) *cobra.Command {
	var userOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := e.openActions()
			if err != nil {
				return err
			}

			list := store.List()
			if !userOnly {
				list = action.NewCatalog(e.cfg.ResolveToolPath(), e.cfg.Favorites, store).All()
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No user actions defined.")
				fmt.Fprintln(out, `Add one with: vpn-tray actions add --title "Speed test" --exec /usr/bin/speedtest`)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tSCOPE\tMENU\tCOMMAND")
			fmt.Fprintln(w, "--\t-----\t-----\t----\t-------")
			for _, d := range list {
				menu := d.Anchor.String()
				if d.Group != "" {
					menu += ": " + d.Group
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					d.ID, d.Title, action.ScopeName(d.Scope), menu, d.Request().CommandLine())
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&userOnly, "user", false, "only list user-defined actions")
	return cmd
}

func newActionsAddCommand(e *environment) *cobra.Command {
	var (
		d       action.Descriptor
		anchor  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user action",
		Long: `Add a user action.

Example:
  vpn-tray actions add --title "Meshnet peers" --exec /usr/bin/nordvpn --arg meshnet --arg peer --arg list --force-display
  vpn-tray actions add --title "Speed test" --exec /usr/bin/speedtest --anchor own-submenu --group Tools`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := action.ParseAnchor(anchor)
			if err != nil {
				return err
			}
			d.Anchor = a
			d.Timeout = timeout

			store, err := e.openActions()
			if err != nil {
				return err
			}
			added, err := store.Add(d)
			if err != nil {
				return err
			}
			if err := common.CheckExecutable(added.Executable); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added action %q (%s)\n", added.Title, added.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&d.Title, "title", "", "menu title (required)")
	flags.StringVar(&d.Executable, "exec", "", "executable to run")
	flags.StringArrayVar(&d.Args, "arg", nil, "argument, repeat for more; {token} is replaced by the stored token")
	flags.DurationVar(&timeout, "timeout", 0, "per-output wait timeout (default from config)")
	flags.BoolVar(&d.ForceDisplay, "force-display", false, "always show the output")
	flags.StringVar(&anchor, "anchor", action.AnchorCommon.String(), "menu placement: common, own-submenu or hidden")
	flags.StringVar(&d.Group, "group", "", "submenu title for own-submenu actions")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newActionsRemoveCommand(e *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id|title>",
		Short: "Remove a user action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := e.openActions()
			if err != nil {
				return err
			}

			d, err := store.Get(args[0])
			if errors.Is(err, common.ErrActionNotFound) {
				d, err = store.GetByTitle(args[0])
			}
			if err != nil {
				return err
			}
			if err := store.Remove(d.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed action %q\n", d.Title)
			return nil
		},
	}
}
