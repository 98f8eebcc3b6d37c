package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/tutor-memory/internal/memsync"
)

func init() {
	cmd := &cobra.Command{
		Use:   "resync",
		Short: "Re-apply learning summaries from a memory blob",
		Long: "Parse a learning memory blob (stdin or --file) and set learning summaries on trajectories " +
			"that already exist. Never creates rows. Prints one {id, matched} item per entry.",
		Run: runResync,
	}

	cmd.Flags().String("file", "", "Read the blob from a file instead of stdin")

	RootCmd.AddCommand(cmd)
}

func runResync(cmd *cobra.Command, args []string) {
	file, _ := cmd.Flags().GetString("file")

	blob, err := readInput(file)
	if err != nil {
		exitErr("read input", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	log, closer := newLogger()
	defer closer.Close()

	items, err := memsync.New(s, nil, memsync.WithLogger(log)).Resync(cmd.Context(), blob)
	if err != nil {
		exitErr("resync", err)
	}

	printOut(cmd, items)
}
