package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func applyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Reconcile all declared crontabs once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := a.ag.ValidateConfig(ctx, a.cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			sum, err := a.ag.ApplyOnce(ctx, a.cfg)
			fmt.Printf("reconciled %d user(s): %d written, %d removed, %d failed\n",
				sum.Users, sum.Wrote, sum.Removed, sum.Errors)
			return err
		},
	}
}
