package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rcliao/tutor-memory/internal/model"
)

// SnapshotParams holds parameters for snapshot assembly.
type SnapshotParams struct {
	SubjectID string
	TopicID   string
	Budget    int // max tokens in output (rough proxy: 1 token ≈ 4 chars)
}

// SnapshotItem is one rendered line of a learner snapshot.
type SnapshotItem struct {
	Kind    model.BlockKind `json:"kind" yaml:"kind"`
	Key     string          `json:"key" yaml:"key"`
	Text    string          `json:"text" yaml:"text"`
	Excerpt bool            `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
}

// SnapshotResult is the assembled learner snapshot.
type SnapshotResult struct {
	SubjectID string         `json:"subject_id" yaml:"subject_id"`
	Budget    int            `json:"budget" yaml:"budget"`
	Used      int            `json:"used" yaml:"used"`
	Items     []SnapshotItem `json:"items" yaml:"items"`
}

// Snapshot packs what a tutor most needs to know about a subject into a token
// budget: the profile first, then the weakest concepts, then recent learning
// summaries.
func (s *SQLiteStore) Snapshot(ctx context.Context, p SnapshotParams) (*SnapshotResult, error) {
	budget := p.Budget
	if budget <= 0 {
		budget = 1000
	}
	charBudget := budget * 4

	var candidates []SnapshotItem

	profile, err := s.GetProfile(ctx, p.SubjectID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if profile != nil {
		if text := renderProfile(profile); text != "" {
			candidates = append(candidates, SnapshotItem{Kind: model.KindProfile, Key: p.SubjectID, Text: text})
		}
	}

	concepts, err := s.ListConcepts(ctx, ListConceptsParams{SubjectID: p.SubjectID, TopicID: p.TopicID, Limit: 50})
	if err != nil {
		return nil, err
	}
	for _, c := range concepts {
		text := fmt.Sprintf("%s (%d/%d)", c.Name, c.Score, model.ScoreMax)
		if c.Summary != "" {
			text += ": " + c.Summary
		}
		if c.Misconceptions != "" {
			text += " Misconceptions: " + c.Misconceptions
		}
		candidates = append(candidates, SnapshotItem{Kind: model.KindUnderstanding, Key: c.TopicID + "/" + c.Name, Text: text})
	}

	trajectories, err := s.ListTrajectories(ctx, ListTrajectoriesParams{SubjectID: p.SubjectID, Limit: 50})
	if err != nil {
		return nil, err
	}
	for _, t := range trajectories {
		if t.LearningSummary == "" {
			continue
		}
		candidates = append(candidates, SnapshotItem{
			Kind: model.KindLearning,
			Key:  t.DialogID,
			Text: t.CreatedAt.Format(time.DateOnly) + ": " + t.LearningSummary,
		})
	}

	// Greedy packing into budget
	result := &SnapshotResult{SubjectID: p.SubjectID, Budget: budget, Items: []SnapshotItem{}}
	used := 0

	for _, c := range candidates {
		if used+len(c.Text) <= charBudget {
			result.Items = append(result.Items, c)
			used += len(c.Text)
		} else if remaining := charBudget - used; remaining >= 100 {
			c.Text = truncateRunes(c.Text, remaining) + "..."
			c.Excerpt = true
			result.Items = append(result.Items, c)
			used += len(c.Text)
			break
		} else {
			break
		}
	}

	result.Used = used / 4
	return result, nil
}

func renderProfile(p *model.Profile) string {
	var parts []string
	for _, f := range model.ProfileFields {
		if v, ok := p.Text[f.Name]; ok && v != "" {
			parts = append(parts, f.Name+"="+v)
		}
	}
	if p.ExamDate != nil {
		parts = append(parts, "exam_date="+p.ExamDate.Format(time.DateOnly))
	}

	var rated []string
	for name, n := range p.Skills {
		if n != model.SkillDefault {
			rated = append(rated, fmt.Sprintf("%s=%d", name, n))
		}
	}
	sort.Strings(rated)
	parts = append(parts, rated...)

	return strings.Join(parts, "; ")
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
