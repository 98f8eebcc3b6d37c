package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/rcliao/tutor-memory/internal/model"
)

const claudeSystemPrompt = `You maintain three memory blocks about a learner for a tutoring system.
Rewrite each block you want to change in full and wrap it in its tag:
<profile>...</profile>, <understanding>...</understanding>, <learning>...</learning>.
Omit a block entirely to leave it unchanged.

Block formats, one "field: value" per line:
- profile: flat fields such as name, learning_goal, learning_style, interests, math_skill (0-10), exam_date (YYYY-MM-DD).
- understanding: one entry per concept starting with "- concept_name: <name>", then understanding_score (1-5),
  understanding_summary, misconceptions, description and optionally book_id.
- learning: one entry per dialog starting with "- dialog_id: <id>", then learning_summary.
Use the subject_id, book_id and dialog_id given with the exchange verbatim; never invent ids.`

var sectionPatterns = func() map[model.BlockKind]*regexp.Regexp {
	m := make(map[model.BlockKind]*regexp.Regexp, len(model.BlockKinds))
	for _, kind := range model.BlockKinds {
		m[kind] = regexp.MustCompile(`(?s)<` + string(kind) + `>(.*?)</` + string(kind) + `>`)
	}
	return m
}()

// ClaudeAgent uses the Anthropic Messages API as the memory agent. Blocks are
// kept in a BlockStore: Analyze rewrites them, Blocks reads them back.
type ClaudeAgent struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	blocks    BlockStore
}

// NewClaudeAgent creates a Claude-backed agent. Request options such as
// option.WithAPIKey or option.WithBaseURL are passed to the SDK client.
func NewClaudeAgent(blocks BlockStore, model string, maxTokens int64, opts ...option.RequestOption) *ClaudeAgent {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &ClaudeAgent{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		blocks:    blocks,
	}
}

func (a *ClaudeAgent) Analyze(ctx context.Context, c model.Context, instruction string, turn model.Turn) error {
	current, err := a.blocks.GetBlocks(ctx, c.SubjectID)
	if err != nil {
		return fmt.Errorf("load blocks: %w", err)
	}

	var prompt strings.Builder
	prompt.WriteString(instruction)
	prompt.WriteString("\n\nCurrent memory blocks:\n")
	for _, kind := range model.BlockKinds {
		fmt.Fprintf(&prompt, "<%s>\n%s\n</%s>\n", kind, current[kind], kind)
	}
	prompt.WriteString("\nLatest exchange:\n")
	prompt.WriteString(FormatTurn(c, turn))

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: claudeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.String())),
		},
	})
	if err != nil {
		return fmt.Errorf("claude api error: %w", err)
	}

	var reply string
	for _, block := range resp.Content {
		if block.Type == "text" {
			reply += block.Text
		}
	}

	sections := ExtractSections(reply)
	if len(sections) == 0 {
		return ErrNoUpdate
	}
	for _, kind := range model.BlockKinds {
		value, ok := sections[kind]
		if !ok {
			continue
		}
		if err := a.blocks.PutBlock(ctx, c.SubjectID, kind, value); err != nil {
			return fmt.Errorf("save %s block: %w", kind, err)
		}
	}
	return nil
}

func (a *ClaudeAgent) Blocks(ctx context.Context, subjectID string) (map[model.BlockKind]string, error) {
	return a.blocks.GetBlocks(ctx, subjectID)
}

// ExtractSections pulls tagged block sections out of a model reply. When a
// tag appears more than once the last one wins.
func ExtractSections(reply string) map[model.BlockKind]string {
	out := map[model.BlockKind]string{}
	for _, kind := range model.BlockKinds {
		matches := sectionPatterns[kind].FindAllStringSubmatch(reply, -1)
		if len(matches) == 0 {
			continue
		}
		out[kind] = strings.TrimSpace(matches[len(matches)-1][1])
	}
	return out
}
