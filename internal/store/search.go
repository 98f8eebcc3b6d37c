package store

import (
	"context"
	"strings"

	"github.com/rcliao/tutor-memory/internal/model"
)

// SearchParams holds parameters for searching trajectories.
type SearchParams struct {
	SubjectID string
	Query     string
	Limit     int
}

// SearchTrajectories finds trajectories whose summaries contain the query substring.
func (s *SQLiteStore) SearchTrajectories(ctx context.Context, p SearchParams) ([]model.Trajectory, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	query := "%" + p.Query + "%"
	where := []string{"(query_summary LIKE ? OR response_summary LIKE ? OR learning_summary LIKE ?)"}
	args := []interface{}{query, query, query}

	if p.SubjectID != "" {
		where = append(where, "subject_id = ?")
		args = append(args, p.SubjectID)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trajectoryColumns+` FROM trajectories
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY created_at DESC, id DESC LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Trajectory
	for rows.Next() {
		t, err := scanTrajectory(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, rows.Err()
}
