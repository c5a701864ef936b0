package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func NewRunCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Report traffic on the configured schedule until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			scheduler, err := a.Scheduler(ctx)
			if err != nil {
				return err
			}

			zerolog.Ctx(ctx).Info().
				Str("daily", a.Config.Schedule.Daily).
				Str("weekly", a.Config.Schedule.Weekly).
				Str("timezone", a.Location.String()).
				Msg("scheduler started")
			scheduler.Start(ctx)
			return nil
		},
	}
}
