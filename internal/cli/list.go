package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"cronsync/internal/crontab"
)

func listCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the cron entries currently present in the stored tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			users := []string{user}
			if user == "" {
				users = declaredUsers(a)
				if len(users) == 0 {
					fmt.Println("no users declared in config; use --user")
					return nil
				}
			}

			rec := a.ag.Reconciler()
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"USER", "NAME", "MINUTE", "HOUR", "MONTHDAY", "MONTH", "WEEKDAY", "COMMAND"})

			total := 0
			for _, u := range users {
				if _, err := rec.Retrieve(ctx, u); err != nil {
					return err
				}
				t := rec.Registry().Lookup(u)
				if t == nil {
					continue
				}
				for _, e := range t.Entries() {
					cmdText, _ := e.Command()
					tw.AppendRow(table.Row{
						u, e.Name,
						e.FieldText(crontab.FieldMinute),
						e.FieldText(crontab.FieldHour),
						e.FieldText(crontab.FieldMonthDay),
						e.FieldText(crontab.FieldMonth),
						e.FieldText(crontab.FieldWeekday),
						cmdText,
					})
					total++
				}
			}
			if total == 0 {
				fmt.Println("no entries found")
				return nil
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "list a single user's table")
	return cmd
}

// declaredUsers collects the users owning at least one declared job, plus
// the purge list, sorted.
func declaredUsers(a *app) []string {
	set := map[string]bool{}
	for _, j := range a.cfg.Jobs {
		if u := a.cfg.JobUser(j); u != "" {
			set[u] = true
		}
	}
	for _, u := range a.cfg.Agent.PurgeUsers {
		if u != "" {
			set[u] = true
		}
	}
	users := make([]string, 0, len(set))
	for u := range set {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}
