package memsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/tutor-memory/internal/block"
	"github.com/rcliao/tutor-memory/internal/model"
)

func parseOne(t *testing.T, text string, kind model.BlockKind) block.Entry {
	t.Helper()
	entries := block.Parse(text, kind)
	require.Len(t, entries, 1)
	return entries[0]
}

func TestResolveProfile(t *testing.T) {
	e := parseOne(t, `name: Ada
math_skill: 14
logic_skill: lots
reading_skill: 7
learning_style:
exam_date: 2025-13-40
favourite_color: green`, model.KindProfile)

	r := ResolveProfile(e, model.Context{SubjectID: "s1"})
	assert.Equal(t, "s1", r.SubjectID)
	assert.Equal(t, map[string]string{"name": "Ada"}, r.Text, "empty text is left out")
	assert.Equal(t, map[string]int{"math_skill": 10, "logic_skill": 0, "reading_skill": 7}, r.Skills)
	assert.Nil(t, r.ExamDate, "invalid date is left out")
	assert.Equal(t, []string{"favourite_color"}, r.Unknown)
}

func TestResolveProfile_ExamDate(t *testing.T) {
	r := ResolveProfile(parseOne(t, "exam_date: 2026/06/07 (finals)", model.KindProfile), model.Context{SubjectID: "s1"})
	require.NotNil(t, r.ExamDate)
	assert.Equal(t, time.Date(2026, 6, 7, 0, 0, 0, 0, time.UTC), *r.ExamDate)
}

func TestResolveProfile_EmptyEntry(t *testing.T) {
	r := ResolveProfile(block.Entry{}, model.Context{SubjectID: "s1"})
	assert.True(t, r.Empty())
}

func intPtr(n int) *int { return &n }

func TestResolveConcept(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		topic  string
		want   string
		score  *int
		reason DropReason
	}{
		{"context topic", "- concept_name: limits\nunderstanding_score: 2", "calc101", "calc101", intPtr(2), ""},
		{"book id wins", "- concept_name: limits\nbook_id: calc202", "calc101", "calc202", nil, ""},
		{"empty book id falls back", "- concept_name: limits\nbook_id:", "calc101", "calc101", nil, ""},
		{"no topic", "- concept_name: limits\nunderstanding_score: 3", "", "", nil, DropMissingTopic},
		{"bad score", "- concept_name: limits\nunderstanding_score: abc", "calc101", "calc101", intPtr(1), ""},
		{"score clamps", "- concept_name: limits\nunderstanding_score: 0", "calc101", "calc101", intPtr(1), ""},
		{"empty name", "- concept_name:\nunderstanding_score: 3", "calc101", "", nil, DropMissingConcept},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := parseOne(t, tt.text, model.KindUnderstanding)
			r, reason := ResolveConcept(e, model.Context{SubjectID: "s1", TopicID: tt.topic})
			assert.Equal(t, tt.reason, reason)
			if tt.reason != "" {
				return
			}
			assert.Equal(t, tt.want, r.TopicID)
			assert.Equal(t, "limits", r.Name)
			assert.Equal(t, tt.score, r.Score)
		})
	}
}

func TestResolveConcept_OptionalText(t *testing.T) {
	e := parseOne(t, "- concept_name: limits\nunderstanding_summary: partial grasp\nmisconceptions:", model.KindUnderstanding)
	r, reason := ResolveConcept(e, model.Context{SubjectID: "s1", TopicID: "calc101"})
	require.Empty(t, reason)
	require.NotNil(t, r.Summary)
	assert.Equal(t, "partial grasp", *r.Summary)
	assert.Nil(t, r.Misconceptions)
	assert.Nil(t, r.Description)
}

func TestResolveConcept_CommentedHeader(t *testing.T) {
	_, reason := ResolveConcept(block.Entry{Header: "# example"}, model.Context{SubjectID: "s1", TopicID: "t"})
	assert.Equal(t, DropCommentedOut, reason)
}

func TestResolveLearning(t *testing.T) {
	r, reason := ResolveLearning(parseOne(t, "- dialog_id: d1\nlearning_summary: grasped chain rule\nquery_summary: ignored", model.KindLearning))
	require.Empty(t, reason)
	assert.Equal(t, "d1", r.DialogID)
	assert.Equal(t, "grasped chain rule", r.LearningSummary)

	_, reason = ResolveLearning(parseOne(t, "- dialog_id: d1\nnote: nothing", model.KindLearning))
	assert.Equal(t, DropMissingLearningSummary, reason)

	_, reason = ResolveLearning(parseOne(t, "- dialog_id:\nlearning_summary: x", model.KindLearning))
	assert.Equal(t, DropMissingDialogID, reason)
}
