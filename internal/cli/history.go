package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	var (
		user  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent reconciliation runs from the history store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.hist == nil {
				return fmt.Errorf("history is not enabled in the config")
			}
			runs, err := a.hist.RecentRuns(cmd.Context(), user, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"AT", "USER", "ENTRIES", "WROTE", "REMOVED", "TOOK", "ERROR"})
			for _, r := range runs {
				tw.AppendRow(table.Row{
					r.At.Format(time.RFC3339),
					r.User,
					r.Entries,
					r.Wrote,
					r.Removed,
					fmt.Sprintf("%dms", r.TookMS),
					r.Error,
				})
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "filter by user")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to show")
	return cmd
}
