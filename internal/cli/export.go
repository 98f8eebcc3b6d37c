package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export everything stored about a learner",
		Run:   runExport,
	}

	cmd.Flags().StringP("subject", "s", "", "Subject id (required)")
	cmd.MarkFlagRequired("subject")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	subject, _ := cmd.Flags().GetString("subject")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	out, err := s.ExportSubject(cmd.Context(), subject)
	if err != nil {
		exitErr("export", err)
	}

	printOut(cmd, out)
}
