package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/tutor-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Assemble what a tutor should know about a learner",
		Long:  "Pack the profile, the weakest concepts and recent learning summaries into a token budget.",
		Run:   runSnapshot,
	}

	cmd.Flags().StringP("subject", "s", "", "Subject id (required)")
	cmd.Flags().StringP("topic", "t", "", "Only include concepts of this topic")
	cmd.Flags().IntP("budget", "b", 1000, "Max tokens in output")
	cmd.MarkFlagRequired("subject")

	RootCmd.AddCommand(cmd)
}

func runSnapshot(cmd *cobra.Command, args []string) {
	subject, _ := cmd.Flags().GetString("subject")
	topic, _ := cmd.Flags().GetString("topic")
	budget, _ := cmd.Flags().GetInt("budget")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	result, err := s.Snapshot(cmd.Context(), store.SnapshotParams{
		SubjectID: subject,
		TopicID:   topic,
		Budget:    budget,
	})
	if err != nil {
		exitErr("snapshot", err)
	}

	printOut(cmd, result)
}
