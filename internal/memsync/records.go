package memsync

import (
	"context"
	"fmt"

	"github.com/rcliao/tutor-memory/internal/model"
	"github.com/rcliao/tutor-memory/internal/store"
)

// Record is a resolved entry ready to be written. Each variant carries its
// own write strategy: ProfileRecord merges field by field, ConceptRecord
// replaces by composite key and TrajectoryRecord only updates existing rows.
type Record interface {
	Kind() model.BlockKind
	// Key identifies the record in logs and reports.
	Key() string
	// Apply writes the record and returns how many rows it touched.
	Apply(ctx context.Context, s store.Store) (int64, error)
}

// ProfileRecord is a field-sparse profile merge.
type ProfileRecord struct {
	store.MergeProfileParams
	// Unknown lists entry fields that are not profile fields.
	Unknown []string
}

func (r ProfileRecord) Kind() model.BlockKind { return model.KindProfile }
func (r ProfileRecord) Key() string           { return r.SubjectID }

func (r ProfileRecord) Apply(ctx context.Context, s store.Store) (int64, error) {
	if r.Empty() {
		return 0, nil
	}
	if err := s.MergeProfile(ctx, r.MergeProfileParams); err != nil {
		return 0, err
	}
	return 1, nil
}

// ConceptRecord is a concept upsert keyed by (subject, topic, concept).
type ConceptRecord struct {
	store.UpsertConceptParams
}

func (r ConceptRecord) Kind() model.BlockKind { return model.KindUnderstanding }
func (r ConceptRecord) Key() string           { return r.TopicID + "/" + r.Name }

func (r ConceptRecord) Apply(ctx context.Context, s store.Store) (int64, error) {
	if err := s.UpsertConcept(ctx, r.UpsertConceptParams); err != nil {
		return 0, err
	}
	return 1, nil
}

// TrajectoryRecord enriches every trajectory row with a dialog id. Zero
// matches is a normal outcome.
type TrajectoryRecord struct {
	store.EnrichTrajectoryParams
}

func (r TrajectoryRecord) Kind() model.BlockKind { return model.KindLearning }
func (r TrajectoryRecord) Key() string           { return r.DialogID }

func (r TrajectoryRecord) Apply(ctx context.Context, s store.Store) (int64, error) {
	n, err := s.EnrichTrajectories(ctx, r.EnrichTrajectoryParams)
	if err != nil {
		return 0, fmt.Errorf("dialog %s: %w", r.DialogID, err)
	}
	return n, nil
}
