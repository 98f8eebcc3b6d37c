package store

import (
	"context"
	"fmt"
	"os"
)

// StatsParams selects what Stats reports on.
type StatsParams struct {
	DBPath string
	// SubjectID limits the per-subject breakdown to one subject.
	SubjectID string
}

// Stats holds database statistics.
type Stats struct {
	DBPath               string         `json:"db_path" yaml:"db_path"`
	DBSizeBytes          int64          `json:"db_size_bytes" yaml:"db_size_bytes"`
	Profiles             int            `json:"profiles" yaml:"profiles"`
	Concepts             int            `json:"concepts" yaml:"concepts"`
	Trajectories         int            `json:"trajectories" yaml:"trajectories"`
	EnrichedTrajectories int            `json:"enriched_trajectories" yaml:"enriched_trajectories"`
	Subjects             []SubjectStats `json:"subjects" yaml:"subjects"`
}

// SubjectStats holds per-subject counts.
type SubjectStats struct {
	SubjectID    string `json:"subject_id" yaml:"subject_id"`
	Concepts     int    `json:"concepts" yaml:"concepts"`
	Trajectories int    `json:"trajectories" yaml:"trajectories"`
	Enriched     int    `json:"enriched" yaml:"enriched"`
}

// Stats returns table totals and a per-subject breakdown.
func (s *SQLiteStore) Stats(ctx context.Context, p StatsParams) (*Stats, error) {
	st := &Stats{DBPath: p.DBPath, Subjects: []SubjectStats{}}

	if info, err := os.Stat(p.DBPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM profiles`, &st.Profiles},
		{`SELECT COUNT(*) FROM concepts`, &st.Concepts},
		{`SELECT COUNT(*) FROM trajectories`, &st.Trajectories},
		{`SELECT COUNT(*) FROM trajectories WHERE learning_summary IS NOT NULL`, &st.EnrichedTrajectories},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}

	query := `
		SELECT subject_id, SUM(concepts), SUM(trajectories), SUM(enriched) FROM (
			SELECT subject_id, COUNT(*) AS concepts, 0 AS trajectories, 0 AS enriched FROM concepts GROUP BY subject_id
			UNION ALL
			SELECT subject_id, 0, COUNT(*), COUNT(learning_summary) FROM trajectories GROUP BY subject_id
		)`
	var args []interface{}
	if p.SubjectID != "" {
		query += ` WHERE subject_id = ?`
		args = append(args, p.SubjectID)
	}
	query += ` GROUP BY subject_id ORDER BY subject_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stats by subject: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ss SubjectStats
		if err := rows.Scan(&ss.SubjectID, &ss.Concepts, &ss.Trajectories, &ss.Enriched); err != nil {
			return nil, fmt.Errorf("stats by subject: %w", err)
		}
		st.Subjects = append(st.Subjects, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats by subject: %w", err)
	}
	return st, nil
}
