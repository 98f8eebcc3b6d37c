package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/tutor-memory/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err, "create store")
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func TestDBPathCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sub", "dir", "test.db")
	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "expected db file to be created")
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.UpsertConcept(ctx, UpsertConceptParams{SubjectID: "s1", TopicID: "t", Name: "c", Score: intPtr(3)}))
	s.Close()

	s, err = NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.ListConcepts(ctx, ListConceptsParams{SubjectID: "s1"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMergeProfile_CreateThenMerge(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	exam := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.MergeProfile(ctx, MergeProfileParams{
		SubjectID: "s1",
		Text:      map[string]string{"name": "Ada", "learning_goal": "pass calculus"},
		Skills:    map[string]int{"math_skill": 7},
		ExamDate:  &exam,
	}))

	// Second write touches only the reading skill and the goal.
	require.NoError(t, s.MergeProfile(ctx, MergeProfileParams{
		SubjectID: "s1",
		Text:      map[string]string{"learning_goal": "ace calculus"},
		Skills:    map[string]int{"reading_skill": 4},
	}))

	p, err := s.GetProfile(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Text["name"])
	assert.Equal(t, "ace calculus", p.Text["learning_goal"])
	assert.Equal(t, 7, p.Skills["math_skill"])
	assert.Equal(t, 4, p.Skills["reading_skill"])
	assert.Equal(t, 0, p.Skills["logic_skill"], "unrated skills default to 0")
	require.NotNil(t, p.ExamDate)
	assert.True(t, exam.Equal(*p.ExamDate))
}

func TestMergeProfile_EmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.MergeProfile(ctx, MergeProfileParams{SubjectID: "s1"}))
	_, err := s.GetProfile(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMergeProfile_RequiresSubject(t *testing.T) {
	s := newTestStore(t)
	err := s.MergeProfile(context.Background(), MergeProfileParams{Text: map[string]string{"name": "x"}})
	assert.Error(t, err)
}

func TestUpsertConcept_KeepsUnprovidedText(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertConcept(ctx, UpsertConceptParams{
		SubjectID: "s1", TopicID: "calc101", Name: "limits", Score: intPtr(2),
		Summary: strPtr("partial grasp"), Description: strPtr("approaching a value"),
	}))
	require.NoError(t, s.UpsertConcept(ctx, UpsertConceptParams{
		SubjectID: "s1", TopicID: "calc101", Name: "limits", Score: intPtr(4),
		Misconceptions: strPtr("thinks limits must be attained"),
	}))

	got, err := s.ListConcepts(ctx, ListConceptsParams{SubjectID: "s1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Score)
	assert.Equal(t, "partial grasp", got[0].Summary)
	assert.Equal(t, "approaching a value", got[0].Description)
	assert.Equal(t, "thinks limits must be attained", got[0].Misconceptions)
}

func TestUpsertConcept_AbsentScore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertConcept(ctx, UpsertConceptParams{SubjectID: "s1", TopicID: "calc101", Name: "fresh"}))
	require.NoError(t, s.UpsertConcept(ctx, UpsertConceptParams{SubjectID: "s1", TopicID: "calc101", Name: "limits", Score: intPtr(4)}))
	require.NoError(t, s.UpsertConcept(ctx, UpsertConceptParams{
		SubjectID: "s1", TopicID: "calc101", Name: "limits", Summary: strPtr("solid"),
	}))

	got, err := s.ListConcepts(ctx, ListConceptsParams{SubjectID: "s1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "fresh", got[0].Name)
	assert.Equal(t, model.ScoreDefault, got[0].Score, "new row without a score starts at the default")
	assert.Equal(t, "limits", got[1].Name)
	assert.Equal(t, 4, got[1].Score, "absent score keeps the stored one")
	assert.Equal(t, "solid", got[1].Summary)
}

func TestUpsertConcept_CompositeKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, p := range []UpsertConceptParams{
		{SubjectID: "s1", TopicID: "calc101", Name: "limits", Score: intPtr(2)},
		{SubjectID: "s1", TopicID: "calc102", Name: "limits", Score: intPtr(3)},
		{SubjectID: "s2", TopicID: "calc101", Name: "limits", Score: intPtr(5)},
		{SubjectID: "s1", TopicID: "calc101", Name: "limits", Score: intPtr(1)},
	} {
		require.NoError(t, s.UpsertConcept(ctx, p))
	}

	s1, _ := s.ListConcepts(ctx, ListConceptsParams{SubjectID: "s1"})
	assert.Len(t, s1, 2)
	calc101, _ := s.ListConcepts(ctx, ListConceptsParams{SubjectID: "s1", TopicID: "calc101"})
	require.Len(t, calc101, 1)
	assert.Equal(t, 1, calc101[0].Score)
}

func TestUpsertConcept_RejectsPartialKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.UpsertConcept(ctx, UpsertConceptParams{SubjectID: "s1", Name: "limits", Score: intPtr(2)})
	assert.Error(t, err)
	got, _ := s.ListConcepts(ctx, ListConceptsParams{SubjectID: "s1"})
	assert.Empty(t, got)
}

func TestListConcepts_WeakestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.UpsertConcept(ctx, UpsertConceptParams{SubjectID: "s1", TopicID: "t", Name: "strong", Score: intPtr(5)})
	s.UpsertConcept(ctx, UpsertConceptParams{SubjectID: "s1", TopicID: "t", Name: "weak", Score: intPtr(1)})
	s.UpsertConcept(ctx, UpsertConceptParams{SubjectID: "s1", TopicID: "t", Name: "mid", Score: intPtr(3)})

	got, err := s.ListConcepts(ctx, ListConceptsParams{SubjectID: "s1"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"weak", "mid", "strong"}, []string{got[0].Name, got[1].Name, got[2].Name})
}

func TestCreateAndEnrichTrajectory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tr, err := s.CreateTrajectory(ctx, CreateTrajectoryParams{
		SubjectID: "s1", TopicID: "calc101", DialogID: "d1",
		QuerySummary: "what is a limit?", ResponseSummary: "a limit is...",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tr.ID)

	n, err := s.EnrichTrajectories(ctx, EnrichTrajectoryParams{DialogID: "d1", LearningSummary: "grasped limits"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := s.ListTrajectories(ctx, ListTrajectoriesParams{DialogID: "d1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "grasped limits", got[0].LearningSummary)
	assert.Equal(t, "what is a limit?", got[0].QuerySummary)
	assert.Equal(t, "calc101", got[0].TopicID)
}

func TestEnrichTrajectories_NoMatchCreatesNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n, err := s.EnrichTrajectories(ctx, EnrichTrajectoryParams{DialogID: "ghost", LearningSummary: "x"})
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := s.ListTrajectories(ctx, ListTrajectoriesParams{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEnrichTrajectories_UpdatesAllMatches(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 2; i++ {
		_, err := s.CreateTrajectory(ctx, CreateTrajectoryParams{SubjectID: "s1", DialogID: "legacy", QuerySummary: "q", ResponseSummary: "r"})
		require.NoError(t, err)
	}
	_, err := s.CreateTrajectory(ctx, CreateTrajectoryParams{SubjectID: "s1", DialogID: "other", QuerySummary: "q", ResponseSummary: "r"})
	require.NoError(t, err)

	n, err := s.EnrichTrajectories(ctx, EnrichTrajectoryParams{DialogID: "legacy", LearningSummary: "same"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	other, _ := s.ListTrajectories(ctx, ListTrajectoriesParams{DialogID: "other"})
	require.Len(t, other, 1)
	assert.Empty(t, other[0].LearningSummary)
}

func TestCreateTrajectory_WithoutDialogID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateTrajectory(ctx, CreateTrajectoryParams{SubjectID: "s1", QuerySummary: "q", ResponseSummary: "r"})
	require.NoError(t, err)

	got, _ := s.ListTrajectories(ctx, ListTrajectoriesParams{SubjectID: "s1"})
	require.Len(t, got, 1)
	assert.Empty(t, got[0].DialogID)
}

func TestConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.MergeProfile(ctx, MergeProfileParams{SubjectID: "s1", Skills: map[string]int{"math_skill": i}}))
			_, err := s.CreateTrajectory(ctx, CreateTrajectoryParams{SubjectID: "s1", DialogID: "d", QuerySummary: "q", ResponseSummary: "r"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.ListTrajectories(ctx, ListTrajectoriesParams{SubjectID: "s1", Limit: 100})
	require.NoError(t, err)
	assert.Len(t, got, 8)
	ids := map[string]bool{}
	for _, tr := range got {
		ids[tr.ID] = true
	}
	assert.Len(t, ids, 8, "ids must be unique")
}

func TestBlocks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.PutBlock(ctx, "s1", model.KindProfile, "name: Ada"))
	require.NoError(t, s.PutBlock(ctx, "s1", model.KindProfile, "name: Ada L."))
	require.NoError(t, s.PutBlock(ctx, "s1", model.KindLearning, "- dialog_id: d1"))
	assert.Error(t, s.PutBlock(ctx, "s1", model.BlockKind("bogus"), "x"))

	blocks, err := s.GetBlocks(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[model.BlockKind]string{
		model.KindProfile:  "name: Ada L.",
		model.KindLearning: "- dialog_id: d1",
	}, blocks)
}

func TestExportAndDeleteSubject(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.MergeProfile(ctx, MergeProfileParams{SubjectID: "s1", Text: map[string]string{"name": "Ada"}})
	s.UpsertConcept(ctx, UpsertConceptParams{SubjectID: "s1", TopicID: "t", Name: "c", Score: intPtr(2)})
	s.CreateTrajectory(ctx, CreateTrajectoryParams{SubjectID: "s1", DialogID: "d1", QuerySummary: "q", ResponseSummary: "r"})
	s.PutBlock(ctx, "s1", model.KindProfile, "name: Ada")
	s.UpsertConcept(ctx, UpsertConceptParams{SubjectID: "s2", TopicID: "t", Name: "c", Score: intPtr(2)})

	exp, err := s.ExportSubject(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, exp.Profile)
	assert.Len(t, exp.Concepts, 1)
	assert.Len(t, exp.Trajectories, 1)

	n, err := s.DeleteSubject(ctx, "s1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	exp, err = s.ExportSubject(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, exp.Profile)
	assert.Empty(t, exp.Concepts)

	other, _ := s.ListConcepts(ctx, ListConceptsParams{SubjectID: "s2"})
	assert.Len(t, other, 1)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.MergeProfile(ctx, MergeProfileParams{SubjectID: "s1", Text: map[string]string{"name": "Ada"}})
	s.UpsertConcept(ctx, UpsertConceptParams{SubjectID: "s1", TopicID: "t", Name: "a", Score: intPtr(2)})
	s.UpsertConcept(ctx, UpsertConceptParams{SubjectID: "s1", TopicID: "t", Name: "b", Score: intPtr(2)})
	s.CreateTrajectory(ctx, CreateTrajectoryParams{SubjectID: "s2", DialogID: "d1", QuerySummary: "q", ResponseSummary: "r"})
	s.EnrichTrajectories(ctx, EnrichTrajectoryParams{DialogID: "d1", LearningSummary: "x"})

	st, err := s.Stats(ctx, StatsParams{DBPath: "unused.db"})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Profiles)
	assert.Equal(t, 2, st.Concepts)
	assert.Equal(t, 1, st.Trajectories)
	assert.Equal(t, 1, st.EnrichedTrajectories)
	assert.Equal(t, []SubjectStats{
		{SubjectID: "s1", Concepts: 2},
		{SubjectID: "s2", Trajectories: 1, Enriched: 1},
	}, st.Subjects)

	one, err := s.Stats(ctx, StatsParams{DBPath: "unused.db", SubjectID: "s2"})
	require.NoError(t, err)
	assert.Equal(t, 2, one.Concepts, "totals are not filtered")
	assert.Equal(t, []SubjectStats{{SubjectID: "s2", Trajectories: 1, Enriched: 1}}, one.Subjects)
}

func TestStats_ReportsQueryErrors(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	st, err := s.Stats(context.Background(), StatsParams{DBPath: "unused.db"})
	assert.Error(t, err)
	assert.Nil(t, st)
}
