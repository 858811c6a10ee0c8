package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func removeCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Delete a user's entire crontab",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return fmt.Errorf("--user is required")
			}
			a, err := bootstrap(cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ag.Reconciler().Remove(cmd.Context(), user); err != nil {
				return err
			}
			fmt.Printf("crontab for %s removed\n", user)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "user whose table is removed")
	return cmd
}
