// Package history keeps every aggregate produced by a run in a SQLite
// database inside the application directory.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/signalnine/lighthouse-groupie/internal/aggregate"
)

const fileName = "history.db"

type Store struct {
	db *sql.DB
}

// Entry is one recorded aggregate.
type Entry struct {
	ID          int64
	Domain      string
	TimeStamp   string
	Runs        int
	TimingsOnly bool
	Document    json.RawMessage
	CreatedAt   time.Time
}

// Open opens or creates <dir>/history.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, fileName)+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS aggregates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain TEXT NOT NULL,
		time_stamp TEXT NOT NULL,
		runs INTEGER NOT NULL,
		timings_only INTEGER NOT NULL,
		document TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_aggregates_domain ON aggregates(domain);`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores rep and returns its id.
func (s *Store) Record(ctx context.Context, rep *aggregate.Report) (int64, error) {
	doc, err := json.Marshal(rep)
	if err != nil {
		return 0, fmt.Errorf("marshaling aggregate: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO aggregates (domain, time_stamp, runs, timings_only, document, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rep.Domain, rep.TimeStamp, rep.Runs, rep.TimingsOnly, string(doc), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("recording aggregate: %w", err)
	}
	return res.LastInsertId()
}

// List returns recorded aggregates oldest first. An empty domain lists all.
func (s *Store) List(ctx context.Context, domain string) ([]Entry, error) {
	query := `SELECT id, domain, time_stamp, runs, timings_only, document, created_at FROM aggregates`
	var args []any
	if domain != "" {
		query += ` WHERE domain = ?`
		args = append(args, domain)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			doc       string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Domain, &e.TimeStamp, &e.Runs, &e.TimingsOnly, &doc, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Document = json.RawMessage(doc)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
