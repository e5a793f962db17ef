package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mentormatch/mentor-match-go/internal/service"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.db.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().Int("applied", n).Msg("migrations complete")
			return nil
		},
	}
}

// newRecomputeMetricsCmd repairs aggregates after a recompute that failed
// behind a committed transition.
func newRecomputeMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute-metrics [profileID...]",
		Short: "Recompute mentor aggregates (all mentors when no id is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			repos := a.buildRepositories()
			metrics := service.NewMetricsService(repos.profiles, a.featuredCache())

			n, err := metrics.RecomputeAll(cmd.Context(), args...)
			if err != nil {
				return fmt.Errorf("recomputed %d before failing: %w", n, err)
			}
			log.Info().Int("profiles", n).Msg("metrics recomputed")
			return nil
		},
	}
}
