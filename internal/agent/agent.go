// Package agent provides clients for the external memory agent that turns
// conversation turns into free-text memory blocks.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rcliao/tutor-memory/internal/model"
)

var (
	// ErrNoAgent is returned by Nop; no analysis was attempted.
	ErrNoAgent = errors.New("no memory agent configured")
	// ErrNoUpdate means the agent ran but produced nothing to fetch.
	ErrNoUpdate = errors.New("memory agent reported no update")
)

// Agent analyzes conversation turns and exposes the resulting memory blocks.
// Analyze and Blocks are separate calls: the agent may update its blocks
// asynchronously, and a fetch may see an older version.
type Agent interface {
	// Analyze hands one turn to the agent. c names the subject, and the topic
	// and dialog the turn belongs to, so the agent can key its entries.
	Analyze(ctx context.Context, c model.Context, instruction string, turn model.Turn) error
	Blocks(ctx context.Context, subjectID string) (map[model.BlockKind]string, error)
}

// BlockStore persists memory blocks for agents that do not keep their own.
type BlockStore interface {
	GetBlocks(ctx context.Context, subjectID string) (map[model.BlockKind]string, error)
	PutBlock(ctx context.Context, subjectID string, kind model.BlockKind, value string) error
}

// Nop is the agent used when none is configured.
type Nop struct{}

func (Nop) Analyze(context.Context, model.Context, string, model.Turn) error { return ErrNoAgent }

func (Nop) Blocks(context.Context, string) (map[model.BlockKind]string, error) {
	return nil, ErrNoAgent
}

// FormatTurn renders a turn the way both clients send it to the agent. The
// ids come first so the agent can copy them into dialog_id and book_id.
func FormatTurn(c model.Context, turn model.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "subject_id: %s\n", c.SubjectID)
	if c.TopicID != "" {
		fmt.Fprintf(&b, "book_id: %s\n", c.TopicID)
	}
	if c.DialogID != "" {
		fmt.Fprintf(&b, "dialog_id: %s\n", c.DialogID)
	}
	fmt.Fprintf(&b, "\nLearner:\n%s\n\nTutor:\n%s", strings.TrimSpace(turn.UserText), strings.TrimSpace(turn.AgentText))
	return b.String()
}
