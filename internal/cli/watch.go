package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cronsync/internal/config"
	"cronsync/pkg/logx"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reconcile continuously: on config changes and on the resync schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := a.ag.ValidateConfig(ctx, a.cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			// Reject bad hot-reloads before they are committed or published.
			a.mgr.SetValidator(func(c context.Context, cfg *config.Config) error {
				return a.ag.ValidateConfig(c, cfg)
			})

			watchErr := make(chan error, 1)
			go func() { watchErr <- a.mgr.Watch(ctx) }()

			a.log.Info("watch mode started", logx.String("config", cfgPath))
			err = a.ag.Run(ctx, a.mgr, a.logs)
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			if werr := <-watchErr; werr != nil && !errors.Is(werr, context.Canceled) && err == nil {
				err = werr
			}
			return err
		},
	}
}
