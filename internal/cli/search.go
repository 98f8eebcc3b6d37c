package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/tutor-memory/internal/model"
	"github.com/rcliao/tutor-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search recorded turns by keyword",
		Long:  "Search query, response and learning summaries for matching text.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("subject", "s", "", "Filter by subject id")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	subject, _ := cmd.Flags().GetString("subject")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.SearchTrajectories(cmd.Context(), store.SearchParams{
		SubjectID: subject,
		Query:     query,
		Limit:     limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	if results == nil {
		results = []model.Trajectory{}
	}
	printOut(cmd, results)
}
