package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/tutor-memory/internal/model"
)

// syncInput is the stdin form of a sync request.
type syncInput struct {
	SubjectID string `json:"subject_id"`
	TopicID   string `json:"topic_id"`
	DialogID  string `json:"dialog_id"`
	User      string `json:"user"`
	Reply     string `json:"reply"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Record a tutoring turn and sync learner memory",
		Long: "Record one learner/tutor exchange, then ask the memory agent to analyze it and apply the " +
			"updated memory blocks. Input comes from flags or a JSON object on stdin " +
			`({"subject_id","topic_id","dialog_id","user","reply"}). Enrichment failures never fail the command.`,
		Run: runSync,
	}

	cmd.Flags().StringP("subject", "s", "", "Subject (learner) id")
	cmd.Flags().StringP("topic", "t", "", "Topic or book id")
	cmd.Flags().String("dialog", "", "External dialog id")
	cmd.Flags().StringP("user", "u", "", "Learner turn text")
	cmd.Flags().StringP("reply", "r", "", "Tutor turn text")

	RootCmd.AddCommand(cmd)
}

func runSync(cmd *cobra.Command, args []string) {
	var in syncInput
	in.SubjectID, _ = cmd.Flags().GetString("subject")
	in.TopicID, _ = cmd.Flags().GetString("topic")
	in.DialogID, _ = cmd.Flags().GetString("dialog")
	in.User, _ = cmd.Flags().GetString("user")
	in.Reply, _ = cmd.Flags().GetString("reply")

	if in.User == "" && in.Reply == "" {
		data, err := readInput("")
		if err != nil {
			exitErr("read stdin", err)
		}
		if strings.TrimSpace(data) != "" {
			var piped syncInput
			if err := json.Unmarshal([]byte(data), &piped); err != nil {
				exitErr("parse json", err)
			}
			in = mergeInput(in, piped)
		}
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	log, closer := newLogger()
	defer closer.Close()

	res, err := newSyncer(s, log).Sync(cmd.Context(),
		model.Context{SubjectID: in.SubjectID, TopicID: in.TopicID, DialogID: in.DialogID},
		model.Turn{UserText: in.User, AgentText: in.Reply})
	if err != nil {
		exitErr("sync", err)
	}

	printOut(cmd, res)
}

// mergeInput fills unset flag values from piped JSON.
func mergeInput(flags, piped syncInput) syncInput {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return syncInput{
		SubjectID: pick(flags.SubjectID, piped.SubjectID),
		TopicID:   pick(flags.TopicID, piped.TopicID),
		DialogID:  pick(flags.DialogID, piped.DialogID),
		User:      piped.User,
		Reply:     piped.Reply,
	}
}

