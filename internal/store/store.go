// Package store provides the learner memory storage interface and SQLite implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rcliao/tutor-memory/internal/model"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("not found")

// MergeProfileParams holds a field-sparse profile write. Only the fields set
// here are written; everything else on the stored row is left untouched.
type MergeProfileParams struct {
	SubjectID string
	Text      map[string]string
	Skills    map[string]int
	ExamDate  *time.Time
}

// Empty reports whether the merge would write nothing.
func (p MergeProfileParams) Empty() bool {
	return len(p.Text) == 0 && len(p.Skills) == 0 && p.ExamDate == nil
}

// UpsertConceptParams holds a concept write keyed by (subject, topic, concept).
// Nil attributes keep their stored value.
type UpsertConceptParams struct {
	SubjectID      string
	TopicID        string
	Name           string
	Score          *int
	Summary        *string
	Misconceptions *string
	Description    *string
}

// CreateTrajectoryParams holds the raw evidence of one recorded turn.
type CreateTrajectoryParams struct {
	SubjectID       string
	TopicID         string
	DialogID        string
	QuerySummary    string
	ResponseSummary string
}

// EnrichTrajectoryParams holds an update-only write addressed by dialog id.
type EnrichTrajectoryParams struct {
	DialogID        string
	LearningSummary string
}

// ListConceptsParams holds filters for listing concepts.
type ListConceptsParams struct {
	SubjectID string
	TopicID   string
	Limit     int
}

// ListTrajectoriesParams holds filters for listing trajectories.
type ListTrajectoriesParams struct {
	SubjectID string
	DialogID  string
	Limit     int
}

// Store defines the learner memory storage interface.
type Store interface {
	// MergeProfile creates the subject's profile or merges fields into it.
	MergeProfile(ctx context.Context, p MergeProfileParams) error

	// UpsertConcept creates or updates one concept record.
	UpsertConcept(ctx context.Context, p UpsertConceptParams) error

	// CreateTrajectory records a new trajectory row.
	CreateTrajectory(ctx context.Context, p CreateTrajectoryParams) (*model.Trajectory, error)

	// EnrichTrajectories sets the learning summary on every row with the
	// given dialog id and returns how many rows matched. It never inserts.
	EnrichTrajectories(ctx context.Context, p EnrichTrajectoryParams) (int64, error)

	// GetProfile returns the subject's profile or ErrNotFound.
	GetProfile(ctx context.Context, subjectID string) (*model.Profile, error)

	// ListConcepts lists concept records, weakest first.
	ListConcepts(ctx context.Context, p ListConceptsParams) ([]model.Concept, error)

	// ListTrajectories lists trajectory rows, newest first.
	ListTrajectories(ctx context.Context, p ListTrajectoriesParams) ([]model.Trajectory, error)

	// Close closes the store.
	Close() error
}
