// Package store handles SQLite persistence of the practice history log.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/stenotutor/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const (
	idBatch = 500
	// Fixed-width UTC timestamps sort lexically in time order.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store wraps SQLite access for exercise history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS exercises (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS exercise_strokes (
			exercise_id TEXT NOT NULL REFERENCES exercises(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			outline TEXT NOT NULL,
			word TEXT NOT NULL,
			started_at TEXT NOT NULL,
			duration_us INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			PRIMARY KEY (exercise_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS key_presses (
			exercise_id TEXT NOT NULL REFERENCES exercises(id) ON DELETE CASCADE,
			stroke_position INTEGER NOT NULL,
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			at TEXT NOT NULL,
			PRIMARY KEY (exercise_id, stroke_position, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_exercises_started_at ON exercises(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_exercise_strokes_word ON exercise_strokes(word);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// AppendExercise stores a completed exercise with its strokes and key
// presses in one transaction. An empty ID is replaced with a new UUID; the
// stored ID is returned.
func (s *Store) AppendExercise(ctx context.Context, ex model.LoggedExercise) (id string, err error) {
	id = ex.ID
	if id == "" {
		id = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO exercises (id, started_at, ended_at) VALUES (?, ?, ?)`,
		id, formatTime(ex.StartedAt), formatTime(ex.EndedAt),
	); err != nil {
		return "", fmt.Errorf("failed to insert exercise: %w", err)
	}

	strokeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO exercise_strokes (exercise_id, position, outline, word, started_at, duration_us, errors)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := strokeStmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	pressStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO key_presses (exercise_id, stroke_position, position, text, at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := pressStmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	for i, st := range ex.Strokes {
		if _, err = strokeStmt.ExecContext(ctx, id, i, st.Outline, st.Word,
			formatTime(st.StartedAt), st.Duration.Microseconds(), st.Errors); err != nil {
			return "", fmt.Errorf("failed to insert stroke %d: %w", i, err)
		}
		for j, kp := range st.KeyPresses {
			if _, err = pressStmt.ExecContext(ctx, id, i, j, kp.Text, formatTime(kp.At)); err != nil {
				return "", fmt.Errorf("failed to insert key press: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// Exercises returns a snapshot of the whole log ordered by start time.
func (s *Store) Exercises(ctx context.Context) ([]model.LoggedExercise, error) {
	return s.ListExercises(ctx, model.StatsConfig{})
}

// RecentExercises returns the n most recent exercises, oldest first.
func (s *Store) RecentExercises(ctx context.Context, n int) ([]model.LoggedExercise, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.ListExercises(ctx, model.StatsConfig{Last: n})
}

// ListExercises returns exercises matching cfg ordered by start time. Last
// keeps only the most recent exercises.
func (s *Store) ListExercises(ctx context.Context, cfg model.StatsConfig) ([]model.LoggedExercise, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "started_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	limit := ""
	if cfg.Last > 0 {
		limit = "LIMIT ?"
		args = append(args, cfg.Last)
	}
	query := fmt.Sprintf(`SELECT id, started_at, ended_at FROM exercises
		WHERE %s
		ORDER BY started_at DESC, id DESC
		%s`, strings.Join(clauses, " AND "), limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var exercises []model.LoggedExercise
	for rows.Next() {
		var ex model.LoggedExercise
		var started, ended string
		if err := rows.Scan(&ex.ID, &started, &ended); err != nil {
			return nil, err
		}
		if ex.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if ex.EndedAt, err = parseTime(ended); err != nil {
			return nil, err
		}
		exercises = append(exercises, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(exercises)

	byID := make(map[string]*model.LoggedExercise, len(exercises))
	ids := make([]string, len(exercises))
	for i := range exercises {
		byID[exercises[i].ID] = &exercises[i]
		ids[i] = exercises[i].ID
	}
	for start := 0; start < len(ids); start += idBatch {
		batch := ids[start:min(start+idBatch, len(ids))]
		if err := s.loadStrokes(ctx, batch, byID); err != nil {
			return nil, err
		}
		if err := s.loadKeyPresses(ctx, batch, byID); err != nil {
			return nil, err
		}
	}
	return exercises, nil
}

func (s *Store) loadStrokes(ctx context.Context, ids []string, byID map[string]*model.LoggedExercise) error {
	placeholders, args := inClause(ids)
	query := fmt.Sprintf(`SELECT exercise_id, outline, word, started_at, duration_us, errors
		FROM exercise_strokes
		WHERE exercise_id IN (%s)
		ORDER BY exercise_id, position`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var exID, started string
		var st model.LoggedStroke
		var durationUs int64
		if err := rows.Scan(&exID, &st.Outline, &st.Word, &started, &durationUs, &st.Errors); err != nil {
			return err
		}
		if st.StartedAt, err = parseTime(started); err != nil {
			return err
		}
		st.Duration = time.Duration(durationUs) * time.Microsecond
		ex := byID[exID]
		ex.Strokes = append(ex.Strokes, st)
	}
	return rows.Err()
}

func (s *Store) loadKeyPresses(ctx context.Context, ids []string, byID map[string]*model.LoggedExercise) error {
	placeholders, args := inClause(ids)
	query := fmt.Sprintf(`SELECT exercise_id, stroke_position, text, at
		FROM key_presses
		WHERE exercise_id IN (%s)
		ORDER BY exercise_id, stroke_position, position`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var exID, at string
		var strokePos int
		var kp model.LoggedKeyPress
		if err := rows.Scan(&exID, &strokePos, &kp.Text, &at); err != nil {
			return err
		}
		if kp.At, err = parseTime(at); err != nil {
			return err
		}
		ex := byID[exID]
		if strokePos < 0 || strokePos >= len(ex.Strokes) {
			return fmt.Errorf("key press for missing stroke %d of exercise %s", strokePos, exID)
		}
		ex.Strokes[strokePos].KeyPresses = append(ex.Strokes[strokePos].KeyPresses, kp)
	}
	return rows.Err()
}

// Count returns the number of stored exercises.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exercises`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Clear removes the entire practice history.
func (s *Store) Clear(ctx context.Context) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	for _, table := range []string{"key_presses", "exercise_strokes", "exercises"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func inClause(ids []string) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
