package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/tutor-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show learner memory statistics",
		Long: "Show database size, totals for profiles, concepts and trajectories (with how many were " +
			"enriched by the memory agent), and a per-learner breakdown.",
		Run: runStats,
	}

	cmd.Flags().StringP("subject", "s", "", "Only break down this subject")

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	subject, _ := cmd.Flags().GetString("subject")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), store.StatsParams{
		DBPath:    getDBPath(),
		SubjectID: subject,
	})
	if err != nil {
		exitErr("stats", err)
	}

	printOut(cmd, stats)
}
