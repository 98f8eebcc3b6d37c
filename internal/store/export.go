package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rcliao/tutor-memory/internal/model"
)

// SubjectExport is everything stored about one subject.
type SubjectExport struct {
	SubjectID    string             `json:"subject_id" yaml:"subject_id"`
	Profile      *model.Profile     `json:"profile,omitempty" yaml:"profile,omitempty"`
	Concepts     []model.Concept    `json:"concepts" yaml:"concepts"`
	Trajectories []model.Trajectory `json:"trajectories" yaml:"trajectories"`
}

// ExportSubject returns all records of a subject.
func (s *SQLiteStore) ExportSubject(ctx context.Context, subjectID string) (*SubjectExport, error) {
	out := &SubjectExport{SubjectID: subjectID}

	p, err := s.GetProfile(ctx, subjectID)
	switch {
	case err == nil:
		out.Profile = p
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	if out.Concepts, err = s.ListConcepts(ctx, ListConceptsParams{SubjectID: subjectID, Limit: 100000}); err != nil {
		return nil, fmt.Errorf("export concepts: %w", err)
	}
	if out.Trajectories, err = s.ListTrajectories(ctx, ListTrajectoriesParams{SubjectID: subjectID, Limit: 100000}); err != nil {
		return nil, fmt.Errorf("export trajectories: %w", err)
	}
	return out, nil
}

// DeleteSubject hard-deletes every record of a subject and returns the
// number of rows removed.
func (s *SQLiteStore) DeleteSubject(ctx context.Context, subjectID string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var total int64
	for _, table := range []string{"profiles", "concepts", "trajectories", "memory_blocks"} {
		res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE subject_id = ?`, subjectID)
		if err != nil {
			return 0, fmt.Errorf("delete %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}
