// Package cli implements the tutor-memory CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/tutor-memory/internal/agent"
	"github.com/rcliao/tutor-memory/internal/config"
	"github.com/rcliao/tutor-memory/internal/logging"
	"github.com/rcliao/tutor-memory/internal/memsync"
	"github.com/rcliao/tutor-memory/internal/store"
)

var (
	dbPath     string
	configPath string
	formatFlag string

	cfg *config.Config
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "tutor-memory",
	Short: "Learner memory for AI tutors",
	Long: "Records tutoring turns and reconciles the memory agent's free-text blocks into " +
		"learner profiles, concept understanding and learning trajectories. SQLite-backed, single binary.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if formatFlag != "json" && formatFlag != "yaml" {
			return fmt.Errorf("invalid --format %q (must be json or yaml)", formatFlag)
		}
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $TUTOR_MEMORY_DB or ~/.tutor-memory/memory.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.tutor-memory/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or yaml")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.DB
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func newLogger() (zerolog.Logger, io.Closer) {
	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		exitErr("logger", err)
	}
	return log, closer
}

// newAgent builds the configured memory agent. The Claude agent keeps its
// blocks in the same database as everything else.
func newAgent(st *store.SQLiteStore) agent.Agent {
	a := cfg.Agent
	switch a.Kind {
	case config.AgentHTTP:
		return agent.NewHTTPAgent(a.BaseURL, a.APIKey, a.AgentID, a.Timeout)
	case config.AgentClaude:
		opts := []option.RequestOption{option.WithRequestTimeout(a.Timeout)}
		if a.APIKey != "" {
			opts = append(opts, option.WithAPIKey(a.APIKey))
		}
		if a.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(a.BaseURL))
		}
		return agent.NewClaudeAgent(st, a.Model, a.MaxTokens, opts...)
	}
	return agent.Nop{}
}

func newSyncer(st *store.SQLiteStore, log zerolog.Logger) *memsync.Syncer {
	return memsync.New(st, newAgent(st),
		memsync.WithLogger(log),
		memsync.WithInstruction(cfg.Sync.Instruction),
		memsync.WithSummaryMaxRunes(cfg.Sync.SummaryMaxRunes),
	)
}

// readInput returns the named file, or piped stdin when file is empty.
func readInput(file string) (string, error) {
	if file != "" {
		b, err := os.ReadFile(file)
		return string(b), err
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return "", nil
	}
	b, err := io.ReadAll(os.Stdin)
	return string(b), err
}

// printOut writes v in the selected output format.
func printOut(cmd *cobra.Command, v any) {
	var (
		b   []byte
		err error
	)
	if formatFlag == "yaml" {
		b, err = yaml.Marshal(v)
	} else {
		b, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		exitErr("encode output", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(b), "\n"))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
