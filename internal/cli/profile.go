package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show a learner profile",
		Run:   runProfile,
	}

	cmd.Flags().StringP("subject", "s", "", "Subject id (required)")
	cmd.MarkFlagRequired("subject")

	RootCmd.AddCommand(cmd)
}

func runProfile(cmd *cobra.Command, args []string) {
	subject, _ := cmd.Flags().GetString("subject")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	p, err := s.GetProfile(cmd.Context(), subject)
	if err != nil {
		exitErr("profile", err)
	}

	printOut(cmd, p)
}
