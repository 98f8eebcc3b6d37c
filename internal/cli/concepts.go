package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/tutor-memory/internal/model"
	"github.com/rcliao/tutor-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "concepts",
		Short: "List concept understanding, weakest first",
		Run:   runConcepts,
	}

	cmd.Flags().StringP("subject", "s", "", "Subject id (required)")
	cmd.Flags().StringP("topic", "t", "", "Filter by topic")
	cmd.Flags().IntP("limit", "l", 100, "Max results")
	cmd.Flags().Bool("names-only", false, "Only output topic/concept pairs")
	cmd.MarkFlagRequired("subject")

	RootCmd.AddCommand(cmd)
}

func runConcepts(cmd *cobra.Command, args []string) {
	subject, _ := cmd.Flags().GetString("subject")
	topic, _ := cmd.Flags().GetString("topic")
	limit, _ := cmd.Flags().GetInt("limit")
	namesOnly, _ := cmd.Flags().GetBool("names-only")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	concepts, err := s.ListConcepts(cmd.Context(), store.ListConceptsParams{
		SubjectID: subject,
		TopicID:   topic,
		Limit:     limit,
	})
	if err != nil {
		exitErr("concepts", err)
	}

	if namesOnly {
		for _, c := range concepts {
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\n", c.TopicID, c.Name)
		}
		return
	}

	if concepts == nil {
		concepts = []model.Concept{}
	}
	printOut(cmd, concepts)
}
