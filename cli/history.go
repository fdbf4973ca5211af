package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yllada/vpn-tray/common"
	"github.com/yllada/vpn-tray/history"
)

func newHistoryCommand(e *environment) *cobra.Command {
	var (
		limit    int
		actionID string
		prune    bool
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently performed actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := history.OpenAt(filepath.Join(e.dataDir(), common.HistoryFileName))
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if prune {
				n, err := repo.DeleteOlderThan(ctx, e.cfg.HistoryRetention())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted %d entries older than %d days\n", n, e.cfg.HistoryRetentionDays)
				return nil
			}

			var entries []history.Entry
			if actionID != "" {
				entries, err = repo.ListForAction(ctx, actionID, limit)
			} else {
				entries, err = repo.ListRecent(ctx, limit)
			}
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Fprintln(out, "No actions recorded yet.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tACTION\tOUTCOME\tEXIT\tELAPSED")
			for _, entry := range entries {
				outcome := entry.Outcome
				if !entry.OK && outcome == "completed" {
					outcome = "failed"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					entry.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					entry.Title, outcome, entry.ExitCode, entry.Elapsed.Round(time.Millisecond))
				if verbose && entry.Output != "" {
					fmt.Fprintf(w, "\t%s\t\t\t\n", strings.ReplaceAll(entry.Output, "\n", " | "))
				}
			}
			return w.Flush()
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	flags.StringVar(&actionID, "action", "", "only show entries for this action id")
	flags.BoolVar(&prune, "prune", false, "delete entries older than the retention period")
	flags.BoolVar(&verbose, "output", false, "include captured output")
	return cmd
}
