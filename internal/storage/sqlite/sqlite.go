// Package sqlite provides a SQLite-backed implementation of
// storage.Storage using database/sql.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aanand-mishra/school-health/internal/types"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

// New opens the database at path and creates the tables if needed.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// CREATE TABLE IF NOT EXISTS is idempotent, so it is safe on every startup.
	//
	//   actions    append-only journal of dispatched actions
	//   snapshots  a single row (id = 1) holding the last pending list as JSON
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS actions (
			id         TEXT    PRIMARY KEY,
			action     TEXT    NOT NULL,
			request_id TEXT    NOT NULL,
			actor      TEXT    NOT NULL,
			succeeded  INTEGER NOT NULL,
			error_kind TEXT    NOT NULL DEFAULT '',
			message    TEXT    NOT NULL DEFAULT '',
			at         TEXT    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS actions_at ON actions (at);
		CREATE TABLE IF NOT EXISTS snapshots (
			id       INTEGER PRIMARY KEY CHECK (id = 1),
			payload  TEXT    NOT NULL,
			saved_at TEXT    NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create tables: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// timeLayout is fixed-width so that text order in SQLite matches time order.
// RFC3339Nano trims trailing zeros and would sort "…00.1Z" after "…00.12Z".
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (s *SQLite) Close() error {
	return s.Db.Close()
}

// RecordAction inserts one journal row. Placeholders keep request ids and
// server messages from ever being read as SQL.
func (s *SQLite) RecordAction(ctx context.Context, rec types.ActionRecord) error {
	stmt, err := s.Db.PrepareContext(ctx,
		`INSERT INTO actions (id, action, request_id, actor, succeeded, error_kind, message, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("RecordAction: prepare: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		rec.ID, rec.Action, rec.RequestID, rec.Actor,
		rec.Succeeded, rec.ErrorKind, rec.Message,
		rec.At.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("RecordAction: exec: %w", err)
	}
	return nil
}

// ListActions returns up to limit rows, newest first.
func (s *SQLite) ListActions(ctx context.Context, limit int) ([]types.ActionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	stmt, err := s.Db.PrepareContext(ctx,
		`SELECT id, action, request_id, actor, succeeded, error_kind, message, at
		 FROM actions ORDER BY at DESC, rowid DESC LIMIT ?`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListActions: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("ListActions: query: %w", err)
	}
	defer rows.Close()

	recs := make([]types.ActionRecord, 0)
	for rows.Next() {
		var (
			rec types.ActionRecord
			at  string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Action,
			&rec.RequestID,
			&rec.Actor,
			&rec.Succeeded,
			&rec.ErrorKind,
			&rec.Message,
			&at,
		); err != nil {
			return nil, fmt.Errorf("ListActions: scan row: %w", err)
		}
		rec.At, err = time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("ListActions: parse time %q: %w", at, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActions: rows iteration: %w", err)
	}
	return recs, nil
}

// SaveSnapshot overwrites the single snapshot row.
func (s *SQLite) SaveSnapshot(ctx context.Context, reqs []types.MedicationRequest, at time.Time) error {
	if reqs == nil {
		reqs = []types.MedicationRequest{}
	}
	payload, err := json.Marshal(reqs)
	if err != nil {
		return fmt.Errorf("SaveSnapshot: encode: %w", err)
	}

	_, err = s.Db.ExecContext(ctx,
		`INSERT INTO snapshots (id, payload, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		string(payload), at.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("SaveSnapshot: exec: %w", err)
	}
	return nil
}

// LoadSnapshot reads the snapshot row back. sql.ErrNoRows means nothing
// was saved yet, which is not an error.
func (s *SQLite) LoadSnapshot(ctx context.Context) ([]types.MedicationRequest, time.Time, error) {
	var payload, savedAt string
	err := s.Db.QueryRowContext(ctx,
		`SELECT payload, saved_at FROM snapshots WHERE id = 1`,
	).Scan(&payload, &savedAt)
	if err == sql.ErrNoRows {
		return []types.MedicationRequest{}, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("LoadSnapshot: scan: %w", err)
	}

	var reqs []types.MedicationRequest
	if err := json.Unmarshal([]byte(payload), &reqs); err != nil {
		return nil, time.Time{}, fmt.Errorf("LoadSnapshot: decode: %w", err)
	}
	at, err := time.Parse(timeLayout, savedAt)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("LoadSnapshot: parse time: %w", err)
	}
	return reqs, at, nil
}
