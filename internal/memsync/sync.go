// Package memsync reconciles memory blocks from the external memory agent
// into profile, concept and trajectory records.
//
// A sync runs a fixed pipeline of named stages. Only the first, recording the
// raw turn, must succeed; every later stage is best effort and its failure is
// logged and reported in the Result without failing the sync.
package memsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rcliao/tutor-memory/internal/agent"
	"github.com/rcliao/tutor-memory/internal/block"
	"github.com/rcliao/tutor-memory/internal/model"
	"github.com/rcliao/tutor-memory/internal/store"
)

var (
	ErrMissingSubject  = errors.New("subject id is required")
	ErrMissingTurnText = errors.New("user and agent turn text are required")
)

// DefaultInstruction is sent to the memory agent with every turn, followed
// by the ids of the turn being synced.
const DefaultInstruction = `Update your memory of this learner from the exchange below.
Keep the profile block as flat "field: value" lines.
In the understanding block, keep one entry per concept starting with "- concept_name: <name>" and rate understanding_score from 1 to 5.
In the learning block, keep one entry per dialog starting with "- dialog_id: <id>" with a one-sentence learning_summary.`

// Stage names in pipeline order.
const (
	StageRecordTurn    = "record-turn"
	StageAnalyze       = "invoke-analysis"
	StageFetch         = "fetch-blocks"
	StageProfile       = "upsert-profile"
	StageUnderstanding = "upsert-understanding"
	StageLearning      = "upsert-learning"
)

// StageStatus is the outcome of one stage.
type StageStatus string

const (
	StatusOK      StageStatus = "ok"
	StatusFailed  StageStatus = "failed"
	StatusSkipped StageStatus = "skipped"
)

// StageResult records what one stage attempted and what it achieved.
type StageResult struct {
	Name    string      `json:"name" yaml:"name"`
	Status  StageStatus `json:"status" yaml:"status"`
	Applied int         `json:"applied,omitempty" yaml:"applied,omitempty"`
	Dropped int         `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	Failed  int         `json:"failed,omitempty" yaml:"failed,omitempty"`
	Error   string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result is the outcome of a sync. OK is true whenever the turn was recorded.
type Result struct {
	OK           bool          `json:"ok" yaml:"ok"`
	RunID        string        `json:"run_id" yaml:"run_id"`
	TrajectoryID string        `json:"trajectory_id,omitempty" yaml:"trajectory_id,omitempty"`
	Stages       []StageResult `json:"stages" yaml:"stages"`
}

// Stage returns the result of the named stage, or nil if it never ran.
func (r *Result) Stage(name string) *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Name == name {
			return &r.Stages[i]
		}
	}
	return nil
}

// Syncer runs sync and resync against a store and a memory agent.
type Syncer struct {
	store           store.Store
	agent           agent.Agent
	log             zerolog.Logger
	instruction     string
	summaryMaxRunes int
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Syncer) { s.log = l }
}

// WithInstruction replaces DefaultInstruction. Empty keeps the default.
func WithInstruction(text string) Option {
	return func(s *Syncer) {
		if strings.TrimSpace(text) != "" {
			s.instruction = text
		}
	}
}

// WithSummaryMaxRunes caps the stored query and response summaries.
// Zero disables truncation.
func WithSummaryMaxRunes(n int) Option {
	return func(s *Syncer) { s.summaryMaxRunes = n }
}

// New creates a Syncer. A nil agent behaves like agent.Nop.
func New(st store.Store, ag agent.Agent, opts ...Option) *Syncer {
	if ag == nil {
		ag = agent.Nop{}
	}
	s := &Syncer{
		store:           st,
		agent:           ag,
		log:             zerolog.Nop(),
		instruction:     DefaultInstruction,
		summaryMaxRunes: 1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync records one conversational turn and then tries to enrich the
// subject's records from the memory agent. It returns an error only for
// invalid input or when the turn itself cannot be recorded.
func (s *Syncer) Sync(ctx context.Context, c model.Context, turn model.Turn) (*Result, error) {
	if strings.TrimSpace(c.SubjectID) == "" {
		return nil, ErrMissingSubject
	}
	if strings.TrimSpace(turn.UserText) == "" || strings.TrimSpace(turn.AgentText) == "" {
		return nil, ErrMissingTurnText
	}

	res := &Result{RunID: uuid.NewString()}
	log := s.log.With().Str("run_id", res.RunID).Str("subject_id", c.SubjectID).Logger()

	traj, err := s.store.CreateTrajectory(ctx, store.CreateTrajectoryParams{
		SubjectID:       c.SubjectID,
		TopicID:         c.TopicID,
		DialogID:        c.DialogID,
		QuerySummary:    summarize(turn.UserText, s.summaryMaxRunes),
		ResponseSummary: summarize(turn.AgentText, s.summaryMaxRunes),
	})
	if err != nil {
		log.Error().Err(err).Str("stage", StageRecordTurn).Msg("record turn failed")
		return nil, fmt.Errorf("record turn: %w", err)
	}
	res.OK = true
	res.TrajectoryID = traj.ID
	res.Stages = append(res.Stages, StageResult{Name: StageRecordTurn, Status: StatusOK, Applied: 1})
	log.Debug().Str("stage", StageRecordTurn).Str("trajectory_id", traj.ID).Msg("turn recorded")

	blocks := s.enrich(ctx, log, c, turn, res)

	s.applyStage(ctx, log, res, StageProfile, blocks, model.KindProfile, c)
	s.applyStage(ctx, log, res, StageUnderstanding, blocks, model.KindUnderstanding, c)
	s.applyStage(ctx, log, res, StageLearning, blocks, model.KindLearning, c)

	log.Info().Int("stages", len(res.Stages)).Msg("sync done")
	return res, nil
}

// enrich runs the analysis and fetch stages and returns the fetched blocks,
// or nil when there is nothing to apply.
func (s *Syncer) enrich(ctx context.Context, log zerolog.Logger, c model.Context, turn model.Turn, res *Result) map[model.BlockKind]string {
	err := guard(func() error {
		return s.agent.Analyze(ctx, c, instructionFor(s.instruction, c), turn)
	})
	switch {
	case errors.Is(err, agent.ErrNoAgent):
		res.Stages = append(res.Stages,
			StageResult{Name: StageAnalyze, Status: StatusSkipped, Error: err.Error()},
			StageResult{Name: StageFetch, Status: StatusSkipped})
		log.Debug().Str("stage", StageAnalyze).Msg("no memory agent configured")
		return nil
	case errors.Is(err, agent.ErrNoUpdate):
		res.Stages = append(res.Stages,
			StageResult{Name: StageAnalyze, Status: StatusOK},
			StageResult{Name: StageFetch, Status: StatusSkipped})
		log.Debug().Str("stage", StageAnalyze).Msg("memory agent reported no update")
		return nil
	case err != nil:
		res.Stages = append(res.Stages,
			StageResult{Name: StageAnalyze, Status: StatusFailed, Error: err.Error()},
			StageResult{Name: StageFetch, Status: StatusSkipped})
		log.Warn().Err(err).Str("stage", StageAnalyze).Msg("memory agent analysis failed")
		return nil
	}
	res.Stages = append(res.Stages, StageResult{Name: StageAnalyze, Status: StatusOK})

	var blocks map[model.BlockKind]string
	err = guard(func() error {
		var err error
		blocks, err = s.agent.Blocks(ctx, c.SubjectID)
		return err
	})
	if err != nil {
		res.Stages = append(res.Stages, StageResult{Name: StageFetch, Status: StatusFailed, Error: err.Error()})
		log.Warn().Err(err).Str("stage", StageFetch).Msg("fetch memory blocks failed")
		return nil
	}
	res.Stages = append(res.Stages, StageResult{Name: StageFetch, Status: StatusOK, Applied: len(blocks)})
	log.Debug().Str("stage", StageFetch).Int("blocks", len(blocks)).Msg("memory blocks fetched")
	return blocks
}

// applyStage parses one block kind and writes its records. Each entry is its
// own failure domain: a failed write is counted and the next entry proceeds.
func (s *Syncer) applyStage(ctx context.Context, log zerolog.Logger, res *Result, name string, blocks map[model.BlockKind]string, kind model.BlockKind, c model.Context) {
	text, ok := blocks[kind]
	if !ok || strings.TrimSpace(text) == "" {
		res.Stages = append(res.Stages, StageResult{Name: name, Status: StatusSkipped})
		return
	}

	log = log.With().Str("stage", name).Logger()
	sr := StageResult{Name: name, Status: StatusOK}

	err := guard(func() error {
		for _, e := range s.parse(text, kind) {
			rec, reason := resolve(e, kind, c)
			if reason != "" {
				sr.Dropped++
				log.Info().Str("kind", string(kind)).Str("header", e.Header).Str("reason", string(reason)).Msg("entry dropped")
				continue
			}
			if p, ok := rec.(ProfileRecord); ok && len(p.Unknown) > 0 {
				log.Debug().Strs("fields", p.Unknown).Msg("unknown profile fields ignored")
			}
			n, err := rec.Apply(ctx, s.store)
			if err != nil {
				sr.Failed++
				log.Warn().Err(err).Str("kind", string(kind)).Str("key", rec.Key()).Msg("entry write failed")
				continue
			}
			if kind == model.KindLearning && n == 0 {
				log.Debug().Str("key", rec.Key()).Msg("no trajectory matched")
			}
			sr.Applied++
		}
		return nil
	})
	if err != nil {
		sr.Status = StatusFailed
		sr.Error = err.Error()
		log.Error().Err(err).Msg("stage aborted")
	} else if sr.Failed > 0 {
		sr.Status = StatusFailed
	}
	res.Stages = append(res.Stages, sr)
}

func (s *Syncer) parse(text string, kind model.BlockKind) []block.Entry {
	entries := block.Parse(text, kind)
	if kind == model.KindProfile {
		return entries
	}
	return block.Collapse(entries)
}

func resolve(e block.Entry, kind model.BlockKind, c model.Context) (Record, DropReason) {
	switch kind {
	case model.KindProfile:
		return ResolveProfile(e, c), ""
	case model.KindUnderstanding:
		r, reason := ResolveConcept(e, c)
		return r, reason
	default:
		r, reason := ResolveLearning(e)
		return r, reason
	}
}

// instructionFor appends the ids of the current turn to the instruction so
// the agent keys its learning entry to the trajectory just recorded.
func instructionFor(base string, c model.Context) string {
	var b strings.Builder
	b.WriteString(base)
	if c.DialogID != "" {
		fmt.Fprintf(&b, "\nThis exchange is dialog_id %s: write its learning entry as \"- dialog_id: %s\".", c.DialogID, c.DialogID)
	}
	if c.TopicID != "" {
		fmt.Fprintf(&b, "\nConcepts from this exchange belong to book_id %s.", c.TopicID)
	}
	return b.String()
}

// guard runs fn and turns a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// summarize trims text and cuts it to limit runes, marking the cut with an
// ellipsis. A limit of zero keeps the whole text.
func summarize(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "…"
}
