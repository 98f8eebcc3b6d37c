package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Delete all records of a learner",
		Long:  "Permanently delete a learner's profile, concepts, trajectories and cached memory blocks.",
		Run:   runRm,
	}

	cmd.Flags().StringP("subject", "s", "", "Subject id (required)")
	cmd.MarkFlagRequired("subject")

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	subject, _ := cmd.Flags().GetString("subject")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	n, err := s.DeleteSubject(cmd.Context(), subject)
	if err != nil {
		exitErr("rm", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"subject_id":%q,"deleted":%d}`+"\n", subject, n)
}
