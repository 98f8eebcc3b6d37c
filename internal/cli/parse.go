package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/tutor-memory/internal/block"
	"github.com/rcliao/tutor-memory/internal/model"
)

type parsedEntry struct {
	Header string            `json:"header,omitempty" yaml:"header,omitempty"`
	Fields map[string]string `json:"fields" yaml:"fields"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a memory block and print its entries",
		Long:  "Parse a memory block from stdin (or --file) without touching the database. Useful for checking agent output.",
		Run:   runParse,
	}

	cmd.Flags().StringP("kind", "k", string(model.KindUnderstanding), "Block kind: profile, understanding, learning")
	cmd.Flags().String("file", "", "Read the block from a file instead of stdin")

	RootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) {
	kind, _ := cmd.Flags().GetString("kind")
	file, _ := cmd.Flags().GetString("file")

	if !model.ValidKinds[model.BlockKind(kind)] {
		exitErr("parse", fmt.Errorf("invalid kind %q (must be profile, understanding or learning)", kind))
	}

	text, err := readInput(file)
	if err != nil {
		exitErr("read input", err)
	}

	out := []parsedEntry{}
	for _, e := range block.Parse(text, model.BlockKind(kind)) {
		out = append(out, parsedEntry{Header: e.Header, Fields: e.Fields})
	}
	printOut(cmd, out)
}
