package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/tutor-memory/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	// busy_timeout lets concurrent sync invocations queue on the write lock.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	var cols []string
	for _, f := range model.ProfileFields {
		switch f.Type {
		case model.FieldSkill:
			cols = append(cols, fmt.Sprintf("%s INTEGER NOT NULL DEFAULT %d", f.Name, model.SkillDefault))
		default:
			cols = append(cols, f.Name+" TEXT")
		}
	}

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS profiles (
		subject_id  TEXT PRIMARY KEY,
		%s,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS concepts (
		subject_id            TEXT NOT NULL,
		topic_id              TEXT NOT NULL,
		concept_name          TEXT NOT NULL,
		understanding_score   INTEGER NOT NULL DEFAULT %d,
		understanding_summary TEXT,
		misconceptions        TEXT,
		description           TEXT,
		created_at            TEXT NOT NULL,
		updated_at            TEXT NOT NULL,
		PRIMARY KEY (subject_id, topic_id, concept_name)
	);
	CREATE INDEX IF NOT EXISTS idx_concepts_score ON concepts(subject_id, understanding_score);

	CREATE TABLE IF NOT EXISTS trajectories (
		id               TEXT PRIMARY KEY,
		dialog_id        TEXT,
		subject_id       TEXT NOT NULL,
		topic_id         TEXT,
		query_summary    TEXT NOT NULL,
		response_summary TEXT NOT NULL,
		learning_summary TEXT,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trajectories_dialog ON trajectories(dialog_id);
	CREATE INDEX IF NOT EXISTS idx_trajectories_subject ON trajectories(subject_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS memory_blocks (
		subject_id TEXT NOT NULL,
		label      TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (subject_id, label)
	);
	`, strings.Join(cols, ",\n\t\t"), model.ScoreDefault)

	_, err := s.db.Exec(schema)
	return err
}

// MergeProfile writes only the fields present in p. Fields are merged column
// by column, so concurrent merges for one subject interleave per field.
func (s *SQLiteStore) MergeProfile(ctx context.Context, p MergeProfileParams) error {
	if p.SubjectID == "" {
		return errors.New("merge profile: subject id is required")
	}
	if p.Empty() {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	cols := []string{"subject_id"}
	args := []interface{}{p.SubjectID}
	var sets []string

	// Registry order keeps the generated statement stable across calls.
	for _, f := range model.ProfileFields {
		var v interface{}
		switch f.Type {
		case model.FieldText:
			t, ok := p.Text[f.Name]
			if !ok {
				continue
			}
			v = t
		case model.FieldSkill:
			n, ok := p.Skills[f.Name]
			if !ok {
				continue
			}
			v = n
		case model.FieldDate:
			if p.ExamDate == nil || f.Name != "exam_date" {
				continue
			}
			v = p.ExamDate.Format(time.DateOnly)
		}
		cols = append(cols, f.Name)
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", f.Name, f.Name))
	}
	if len(sets) == 0 {
		return fmt.Errorf("merge profile: no known fields in %d values", len(p.Text)+len(p.Skills))
	}

	cols = append(cols, "created_at", "updated_at")
	args = append(args, now, now)
	sets = append(sets, "updated_at = excluded.updated_at")

	query := fmt.Sprintf(`INSERT INTO profiles (%s) VALUES (%s)
		ON CONFLICT(subject_id) DO UPDATE SET %s`,
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		strings.Join(sets, ", "))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("merge profile: %w", err)
	}
	return nil
}

// UpsertConcept writes each attribute only when it is provided. A new row
// without a score starts at model.ScoreDefault.
func (s *SQLiteStore) UpsertConcept(ctx context.Context, p UpsertConceptParams) error {
	if p.SubjectID == "" || p.TopicID == "" || p.Name == "" {
		return fmt.Errorf("upsert concept: incomplete key (%q, %q, %q)", p.SubjectID, p.TopicID, p.Name)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO concepts (subject_id, topic_id, concept_name, understanding_score,
		                       understanding_summary, misconceptions, description, created_at, updated_at)
		 VALUES (?, ?, ?, COALESCE(?, ?), ?, ?, ?, ?, ?)
		 ON CONFLICT(subject_id, topic_id, concept_name) DO UPDATE SET
			understanding_score   = COALESCE(?, concepts.understanding_score),
			understanding_summary = COALESCE(excluded.understanding_summary, concepts.understanding_summary),
			misconceptions        = COALESCE(excluded.misconceptions, concepts.misconceptions),
			description           = COALESCE(excluded.description, concepts.description),
			updated_at            = excluded.updated_at`,
		p.SubjectID, p.TopicID, p.Name, p.Score, model.ScoreDefault,
		p.Summary, p.Misconceptions, p.Description, now, now,
		p.Score)
	if err != nil {
		return fmt.Errorf("upsert concept: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateTrajectory(ctx context.Context, p CreateTrajectoryParams) (*model.Trajectory, error) {
	if p.SubjectID == "" {
		return nil, errors.New("create trajectory: subject id is required")
	}

	now := time.Now().UTC()
	id := s.newID()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trajectories (id, dialog_id, subject_id, topic_id, query_summary, response_summary, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, nullString(p.DialogID), p.SubjectID, nullString(p.TopicID),
		p.QuerySummary, p.ResponseSummary,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert trajectory: %w", err)
	}

	return &model.Trajectory{
		ID:              id,
		DialogID:        p.DialogID,
		SubjectID:       p.SubjectID,
		TopicID:         p.TopicID,
		QuerySummary:    p.QuerySummary,
		ResponseSummary: p.ResponseSummary,
		CreatedAt:       now.Truncate(time.Second),
		UpdatedAt:       now.Truncate(time.Second),
	}, nil
}

func (s *SQLiteStore) EnrichTrajectories(ctx context.Context, p EnrichTrajectoryParams) (int64, error) {
	if p.DialogID == "" {
		return 0, errors.New("enrich trajectories: dialog id is required")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`UPDATE trajectories SET learning_summary = ?, updated_at = ? WHERE dialog_id = ?`,
		p.LearningSummary, now, p.DialogID)
	if err != nil {
		return 0, fmt.Errorf("enrich trajectories: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) GetProfile(ctx context.Context, subjectID string) (*model.Profile, error) {
	names := make([]string, len(model.ProfileFields))
	for i, f := range model.ProfileFields {
		names[i] = f.Name
	}

	query := fmt.Sprintf(`SELECT subject_id, %s, created_at, updated_at FROM profiles WHERE subject_id = ?`,
		strings.Join(names, ", "))

	p := &model.Profile{Skills: map[string]int{}, Text: map[string]string{}}
	vals := make([]sql.NullString, len(model.ProfileFields))
	skills := make([]sql.NullInt64, len(model.ProfileFields))
	var createdAt, updatedAt string

	dest := []interface{}{&p.SubjectID}
	for i, f := range model.ProfileFields {
		if f.Type == model.FieldSkill {
			dest = append(dest, &skills[i])
		} else {
			dest = append(dest, &vals[i])
		}
	}
	dest = append(dest, &createdAt, &updatedAt)

	err := s.db.QueryRowContext(ctx, query, subjectID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", subjectID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	for i, f := range model.ProfileFields {
		switch f.Type {
		case model.FieldSkill:
			p.Skills[f.Name] = int(skills[i].Int64)
		case model.FieldDate:
			if vals[i].Valid {
				if t, err := time.Parse(time.DateOnly, vals[i].String); err == nil {
					p.ExamDate = &t
				}
			}
		default:
			if vals[i].Valid {
				p.Text[f.Name] = vals[i].String
			}
		}
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return p, nil
}

func (s *SQLiteStore) ListConcepts(ctx context.Context, p ListConceptsParams) ([]model.Concept, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 100
	}

	where := []string{"subject_id = ?"}
	args := []interface{}{p.SubjectID}
	if p.TopicID != "" {
		where = append(where, "topic_id = ?")
		args = append(args, p.TopicID)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT subject_id, topic_id, concept_name, understanding_score,
		        understanding_summary, misconceptions, description, created_at, updated_at
		 FROM concepts WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY understanding_score ASC, updated_at DESC, concept_name
		 LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var concepts []model.Concept
	for rows.Next() {
		c, err := scanConcept(rows)
		if err != nil {
			return nil, err
		}
		concepts = append(concepts, c)
	}
	return concepts, rows.Err()
}

func (s *SQLiteStore) ListTrajectories(ctx context.Context, p ListTrajectoriesParams) ([]model.Trajectory, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	var where []string
	var args []interface{}
	if p.SubjectID != "" {
		where = append(where, "subject_id = ?")
		args = append(args, p.SubjectID)
	}
	if p.DialogID != "" {
		where = append(where, "dialog_id = ?")
		args = append(args, p.DialogID)
	}
	if len(where) == 0 {
		where = append(where, "1 = 1")
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trajectoryColumns+` FROM trajectories WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY created_at DESC, id DESC LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Trajectory
	for rows.Next() {
		t, err := scanTrajectory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const trajectoryColumns = `id, dialog_id, subject_id, topic_id, query_summary, response_summary,
	learning_summary, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanConcept(row scanner) (model.Concept, error) {
	var c model.Concept
	var summary, misconceptions, description sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&c.SubjectID, &c.TopicID, &c.Name, &c.Score,
		&summary, &misconceptions, &description, &createdAt, &updatedAt)
	if err != nil {
		return c, err
	}
	c.Summary = summary.String
	c.Misconceptions = misconceptions.String
	c.Description = description.String
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return c, nil
}

func scanTrajectory(row scanner) (model.Trajectory, error) {
	var t model.Trajectory
	var dialogID, topicID, learning sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&t.ID, &dialogID, &t.SubjectID, &topicID, &t.QuerySummary, &t.ResponseSummary,
		&learning, &createdAt, &updatedAt)
	if err != nil {
		return t, err
	}
	t.DialogID = dialogID.String
	t.TopicID = topicID.String
	t.LearningSummary = learning.String
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return t, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
