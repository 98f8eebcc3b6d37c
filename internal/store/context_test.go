package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/tutor-memory/internal/model"
)

func TestSnapshotOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.MergeProfile(ctx, MergeProfileParams{
		SubjectID: "s1",
		Text:      map[string]string{"name": "Ada", "learning_goal": "calculus"},
		Skills:    map[string]int{"math_skill": 6},
	})
	s.UpsertConcept(ctx, UpsertConceptParams{SubjectID: "s1", TopicID: "calc", Name: "series", Score: intPtr(4), Summary: strPtr("solid")})
	s.UpsertConcept(ctx, UpsertConceptParams{SubjectID: "s1", TopicID: "calc", Name: "limits", Score: intPtr(1), Misconceptions: strPtr("limit equals value")})
	s.CreateTrajectory(ctx, CreateTrajectoryParams{SubjectID: "s1", DialogID: "d1", QuerySummary: "q", ResponseSummary: "r"})
	s.CreateTrajectory(ctx, CreateTrajectoryParams{SubjectID: "s1", DialogID: "d2", QuerySummary: "q", ResponseSummary: "r"})
	s.EnrichTrajectories(ctx, EnrichTrajectoryParams{DialogID: "d2", LearningSummary: "practiced chain rule"})

	result, err := s.Snapshot(ctx, SnapshotParams{SubjectID: "s1", Budget: 4000})
	require.NoError(t, err)
	require.Len(t, result.Items, 4, "unenriched trajectories are left out")

	assert.Equal(t, model.KindProfile, result.Items[0].Kind)
	assert.Contains(t, result.Items[0].Text, "name=Ada")
	assert.Contains(t, result.Items[0].Text, "math_skill=6")
	assert.Equal(t, "calc/limits", result.Items[1].Key, "weakest concept first")
	assert.Contains(t, result.Items[1].Text, "Misconceptions: limit equals value")
	assert.Equal(t, "calc/series", result.Items[2].Key)
	assert.Equal(t, model.KindLearning, result.Items[3].Kind)
	assert.True(t, strings.HasSuffix(result.Items[3].Text, "practiced chain rule"))
}

func TestSnapshotBudgetLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	long := strings.Repeat("The learner keeps mixing up limits and continuity. ", 40)
	s.UpsertConcept(ctx, UpsertConceptParams{SubjectID: "s1", TopicID: "calc", Name: "limits", Score: intPtr(1), Summary: &long})
	s.UpsertConcept(ctx, UpsertConceptParams{SubjectID: "s1", TopicID: "calc", Name: "series", Score: intPtr(2)})

	result, err := s.Snapshot(ctx, SnapshotParams{SubjectID: "s1", Budget: 50})
	require.NoError(t, err)
	require.NotEmpty(t, result.Items)
	assert.True(t, result.Items[0].Excerpt)
	assert.LessOrEqual(t, result.Used, 50+1)
}

func TestSnapshotUnknownSubject(t *testing.T) {
	s := newTestStore(t)
	result, err := s.Snapshot(context.Background(), SnapshotParams{SubjectID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, 1000, result.Budget)
}
