package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/pugil/internal/domain/model"
	"github.com/okian/pugil/pkg/metrics"
)

// SQLite persists the score record in a single-row table so a restart
// within the retention window keeps the subject's baseline.
type SQLite struct {
	settings
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and runs migrations.
func NewSQLite(path string, opts ...Option) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// The store has one logical writer; the busy timeout covers other
	// processes holding the file.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	s := &SQLite{settings: newSettings(opts...), db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return s, nil
}

// migrate executes all schema migrations.
func (s *SQLite) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS score_record (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			saved_at_ms INTEGER NOT NULL,
			left_powers TEXT NOT NULL,
			right_powers TEXT NOT NULL
		)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

// Save implements Store with a single-row upsert.
func (s *SQLite) Save(ctx context.Context, rec model.ScoreRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreSaveLatency(float64(time.Since(start).Milliseconds()))
	}()

	left, err := json.Marshal(clipHistory(rec.Left))
	if err != nil {
		metrics.RecordStoreSaveError()
		return fmt.Errorf("encode left history: %w", err)
	}
	right, err := json.Marshal(clipHistory(rec.Right))
	if err != nil {
		metrics.RecordStoreSaveError()
		return fmt.Errorf("encode right history: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO score_record (id, saved_at_ms, left_powers, right_powers)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			saved_at_ms = excluded.saved_at_ms,
			left_powers = excluded.left_powers,
			right_powers = excluded.right_powers`,
		rec.SavedAt.UnixMilli(), string(left), string(right),
	)
	if err != nil {
		metrics.RecordStoreSaveError()
		metrics.RecordErrorByComponent("store", "save_failed")
		return fmt.Errorf("save score record: %w", err)
	}

	metrics.RecordStoreSave()
	return nil
}

// Load implements Store.
func (s *SQLite) Load(ctx context.Context) (model.ScoreRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLoadLatency(float64(time.Since(start).Milliseconds()))
	}()

	var savedAtMs int64
	var left, right string
	err := s.db.QueryRowContext(ctx,
		`SELECT saved_at_ms, left_powers, right_powers FROM score_record WHERE id = 1`,
	).Scan(&savedAtMs, &left, &right)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScoreRecord{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordErrorByComponent("store", "load_failed")
		return model.ScoreRecord{}, fmt.Errorf("load score record: %w", err)
	}

	rec := model.ScoreRecord{SavedAt: time.UnixMilli(savedAtMs)}
	if err := json.Unmarshal([]byte(left), &rec.Left); err != nil {
		metrics.RecordErrorByComponent("store", "decode_failed")
		return model.ScoreRecord{}, fmt.Errorf("decode left history: %w", err)
	}
	if err := json.Unmarshal([]byte(right), &rec.Right); err != nil {
		metrics.RecordErrorByComponent("store", "decode_failed")
		return model.ScoreRecord{}, fmt.Errorf("decode right history: %w", err)
	}

	if s.now().Sub(rec.SavedAt) > s.ttl {
		return model.ScoreRecord{}, ErrExpired
	}

	rec.Left = clipHistory(rec.Left)
	rec.Right = clipHistory(rec.Right)
	return rec, nil
}

// Clear implements Store.
func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM score_record`); err != nil {
		return fmt.Errorf("clear score record: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLite) Close() error {
	return s.db.Close()
}
