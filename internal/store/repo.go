package store

import (
	"context"
	"fmt"
	"time"

	"github.com/moritz-zoellner/pyrope/internal/runner"
)

// EnsureUser upserts a user by name and returns its identifier.
func (s *Store) EnsureUser(ctx context.Context, name string) (int64, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	var id int64
	err = s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE name = ?`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("select user: %w", err)
	}
	return id, nil
}

// EnsureExercise upserts an exercise definition keyed by content hash.
// An existing row keeps its source (the hash pins the content) but the
// label and score maximum follow the latest attempt.
func (s *Store) EnsureExercise(ctx context.Context, id, source, label string, maxScore float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exercises (id, source, label, score_maximum) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET label = excluded.label, score_maximum = excluded.score_maximum`,
		id, source, label, maxScore)
	if err != nil {
		return fmt.Errorf("upsert exercise: %w", err)
	}
	return nil
}

// AppendResult records one finished attempt.
func (s *Store) AppendResult(ctx context.Context, result runner.Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (exercise_id, user_id, started_at, submitted_at, score_given, score_maximum)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		result.ExerciseID, result.UserID,
		result.StartedAt.Format(time.RFC3339Nano), result.SubmittedAt.Format(time.RFC3339Nano),
		result.Score, result.MaxScore)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// AttemptRow is one row of the attempt history.
type AttemptRow struct {
	Label       string
	UserName    string
	StartedAt   time.Time
	SubmittedAt time.Time
	Score       float64
	MaxScore    float64
}

// History lists attempts, newest first. An empty userName lists all
// users.
func (s *Store) History(ctx context.Context, userName string, limit int) ([]AttemptRow, error) {
	query := `SELECT e.label, u.name, r.started_at, r.submitted_at, r.score_given, r.score_maximum
		FROM results r
		JOIN exercises e ON e.id = r.exercise_id
		JOIN users u ON u.id = r.user_id`
	args := []any{}
	if userName != "" {
		query += ` WHERE u.name = ?`
		args = append(args, userName)
	}
	query += ` ORDER BY r.id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []AttemptRow
	for rows.Next() {
		var row AttemptRow
		var started, submitted string
		if err := rows.Scan(&row.Label, &row.UserName, &started, &submitted, &row.Score, &row.MaxScore); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		row.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		row.SubmittedAt, _ = time.Parse(time.RFC3339Nano, submitted)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

var _ runner.Recorder = (*Store)(nil)
