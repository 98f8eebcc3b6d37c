package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rcliao/tutor-memory/internal/model"
)

// GetBlocks returns the locally cached memory blocks of a subject by kind.
func (s *SQLiteStore) GetBlocks(ctx context.Context, subjectID string) (map[model.BlockKind]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, value FROM memory_blocks WHERE subject_id = ?`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("get blocks: %w", err)
	}
	defer rows.Close()

	blocks := map[model.BlockKind]string{}
	for rows.Next() {
		var label, value string
		if err := rows.Scan(&label, &value); err != nil {
			return nil, err
		}
		blocks[model.BlockKind(label)] = value
	}
	return blocks, rows.Err()
}

// PutBlock replaces one cached memory block.
func (s *SQLiteStore) PutBlock(ctx context.Context, subjectID string, kind model.BlockKind, value string) error {
	if !model.ValidKinds[kind] {
		return fmt.Errorf("put block: invalid kind %q", kind)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memory_blocks (subject_id, label, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(subject_id, label) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		subjectID, string(kind), value, now)
	if err != nil {
		return fmt.Errorf("put block: %w", err)
	}
	return nil
}
