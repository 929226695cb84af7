// Package store handles SQLite persistence for n-gram records.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/typegram/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for the two append-only n-gram stores.
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
		`CREATE TABLE IF NOT EXISTS speed_ngrams (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			size INTEGER NOT NULL,
			text TEXT NOT NULL,
			duration_ms REAL NOT NULL,
			ms_per_keystroke REAL NOT NULL,
			speed_mode TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS error_ngrams (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			size INTEGER NOT NULL,
			expected_text TEXT NOT NULL,
			actual_text TEXT NOT NULL,
			duration_ms REAL NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_speed_ngrams_session ON speed_ngrams(session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_speed_ngrams_text ON speed_ngrams(text, speed_mode);`,
		`CREATE INDEX IF NOT EXISTS idx_error_ngrams_session ON error_ngrams(session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_error_ngrams_pair ON error_ngrams(expected_text, actual_text);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSpeedNGrams stores speed records in one transaction. A failed batch
// rolls back fully and leaves the store unchanged.
func (s *Store) InsertSpeedNGrams(ctx context.Context, records []model.SpeedNGram) (err error) {
	if len(records) == 0 {
		return nil
	}
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

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO speed_ngrams (id, session_id, size, text, duration_ms, ms_per_keystroke, speed_mode, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, rec := range records {
		if _, err = stmt.ExecContext(ctx,
			rec.ID,
			rec.SessionID,
			rec.Size,
			rec.Text,
			rec.DurationMs,
			rec.MsPerKeystroke,
			string(rec.SpeedMode),
			rec.CreatedAt.Format(time.RFC3339Nano),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// InsertErrorNGrams stores error records in one transaction. A failed batch
// rolls back fully and leaves the store unchanged.
func (s *Store) InsertErrorNGrams(ctx context.Context, records []model.ErrorNGram) (err error) {
	if len(records) == 0 {
		return nil
	}
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

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO error_ngrams (id, session_id, size, expected_text, actual_text, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, rec := range records {
		if _, err = stmt.ExecContext(ctx,
			rec.ID,
			rec.SessionID,
			rec.Size,
			rec.ExpectedText,
			rec.ActualText,
			rec.DurationMs,
			rec.CreatedAt.Format(time.RFC3339Nano),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ClearSession removes all n-gram records for one session, used before a
// re-analysis regenerates the full set.
func (s *Store) ClearSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id must not be empty")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM speed_ngrams WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM error_ngrams WHERE session_id = ?`, sessionID)
	return err
}

// ClearAll removes every n-gram record from both stores.
func (s *Store) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM speed_ngrams`); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM error_ngrams`)
	return err
}

// SpeedAggregates groups speed records by n-gram text, keeping only texts
// seen at least cfg.MinOccurrences times, slowest first.
func (s *Store) SpeedAggregates(ctx context.Context, cfg model.ReportConfig) ([]model.SpeedAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.SpeedMode != "" {
		clauses = append(clauses, "speed_mode = ?")
		args = append(args, string(cfg.SpeedMode))
	}
	if cfg.Size > 0 {
		clauses = append(clauses, "size = ?")
		args = append(args, cfg.Size)
	}
	minOcc := cfg.MinOccurrences
	if minOcc < 1 {
		minOcc = 1
	}
	args = append(args, minOcc)

	query := fmt.Sprintf(`SELECT text, size, COUNT(*) AS cnt, AVG(ms_per_keystroke) AS avg_ms
		FROM speed_ngrams
		WHERE %s
		GROUP BY text, size
		HAVING COUNT(*) >= ?
		ORDER BY avg_ms DESC, text ASC`, strings.Join(clauses, " AND "))
	if cfg.Top > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.Top)
	}

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

	var result []model.SpeedAggregate
	for rows.Next() {
		var agg model.SpeedAggregate
		if err := rows.Scan(&agg.Text, &agg.Size, &agg.Count, &agg.AvgMsPerKeystroke); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ErrorAggregates groups error records by expected/actual pair, keeping
// only pairs seen at least cfg.MinOccurrences times, most frequent first.
func (s *Store) ErrorAggregates(ctx context.Context, cfg model.ReportConfig) ([]model.ErrorAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Size > 0 {
		clauses = append(clauses, "size = ?")
		args = append(args, cfg.Size)
	}
	minOcc := cfg.MinOccurrences
	if minOcc < 1 {
		minOcc = 1
	}
	args = append(args, minOcc)

	query := fmt.Sprintf(`SELECT expected_text, actual_text, size, COUNT(*) AS cnt
		FROM error_ngrams
		WHERE %s
		GROUP BY expected_text, actual_text, size
		HAVING COUNT(*) >= ?
		ORDER BY cnt DESC, expected_text ASC, actual_text ASC`, strings.Join(clauses, " AND "))
	if cfg.Top > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.Top)
	}

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

	var result []model.ErrorAggregate
	for rows.Next() {
		var agg model.ErrorAggregate
		if err := rows.Scan(&agg.ExpectedText, &agg.ActualText, &agg.Size, &agg.Count); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SpeedTrend returns per-session average speed for one n-gram text, oldest
// session first.
func (s *Store) SpeedTrend(ctx context.Context, text string, mode model.SpeedMode) ([]model.TrendPoint, error) {
	clauses := []string{"text = ?"}
	args := []any{text}
	if mode != "" {
		clauses = append(clauses, "speed_mode = ?")
		args = append(args, string(mode))
	}
	query := fmt.Sprintf(`SELECT session_id, MAX(created_at) AS last_seen, AVG(ms_per_keystroke) AS avg_ms
		FROM speed_ngrams
		WHERE %s
		GROUP BY session_id
		ORDER BY last_seen ASC`, strings.Join(clauses, " AND "))

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

	var result []model.TrendPoint
	for rows.Next() {
		var point model.TrendPoint
		var lastSeen string
		if err := rows.Scan(&point.SessionID, &lastSeen, &point.AvgMsPerKeystroke); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, lastSeen)
		if err != nil {
			return nil, err
		}
		point.LastCreatedAt = parsed
		result = append(result, point)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
