package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yllada/vpn-tray/app"
	"github.com/yllada/vpn-tray/status"
)

func newStatusCommand(e *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the VPN status once and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.newApp(false, app.Options{NoHistory: true})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			a.Serializer.Start(ctx)
			defer a.Serializer.Stop()

			req := a.Catalog.Status().Request()
			req.Timeout = e.cfg.ActionTimeout()
			res, err := a.Serializer.SubmitWait(ctx, req)
			if err != nil {
				return fmt.Errorf("status check failed: %w", err)
			}
			if !res.Outcome.Ran() {
				return fmt.Errorf("status check failed: %w", res.Err)
			}

			printStatus(cmd.OutOrStdout(), status.Parse(res.Stdout))
			return nil
		},
	}
}

func printStatus(out io.Writer, st status.ConnectionStatus) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Status:\t%s\n", st.State)
	rows := []struct{ label, value string }{
		{"Server", st.Server},
		{"Location", st.Location()},
		{"IP", st.IP},
		{"Technology", st.Technology},
		{"Protocol", st.Protocol},
		{"Traffic", st.Traffic},
		{"Uptime", st.Uptime},
	}
	for _, row := range rows {
		if row.value != "" {
			fmt.Fprintf(w, "%s:\t%s\n", row.label, row.value)
		}
	}
	w.Flush()
}
