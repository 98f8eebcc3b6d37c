package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/tutor-memory/internal/model"
	"github.com/rcliao/tutor-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "trajectories",
		Short: "List recorded turns, newest first",
		Run:   runTrajectories,
	}

	cmd.Flags().StringP("subject", "s", "", "Filter by subject id")
	cmd.Flags().String("dialog", "", "Filter by dialog id")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runTrajectories(cmd *cobra.Command, args []string) {
	subject, _ := cmd.Flags().GetString("subject")
	dialog, _ := cmd.Flags().GetString("dialog")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	rows, err := s.ListTrajectories(cmd.Context(), store.ListTrajectoriesParams{
		SubjectID: subject,
		DialogID:  dialog,
		Limit:     limit,
	})
	if err != nil {
		exitErr("trajectories", err)
	}

	if rows == nil {
		rows = []model.Trajectory{}
	}
	printOut(cmd, rows)
}
