package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one persisted exchange. Ordering is chronological append order.
type Entry struct {
	Timestamp time.Time
	User      string
	Assistant string
}

// Store is the append-only conversation log backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open creates the database (and its directory) if needed.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER NOT NULL,
		user TEXT NOT NULL,
		assistant TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_ts ON history(ts);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Append records one exchange.
func (s *Store) Append(ctx context.Context, e Entry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (ts, user, assistant) VALUES (?, ?, ?)`,
		ts.Unix(), e.User, e.Assistant)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// Recent returns the last n entries in chronological order.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, user, assistant FROM history ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var ts int64
		var e Entry
		if err := rows.Scan(&ts, &e.User, &e.Assistant); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.Timestamp = time.Unix(ts, 0)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// reverse into chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Dump formats the entire log for console display.
func (s *Store) Dump(ctx context.Context) (string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, user, assistant FROM history ORDER BY id ASC`)
	if err != nil {
		return "", fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	lines := []string{"--- CONVERSATION HISTORY ---"}
	count := 0
	for rows.Next() {
		var ts int64
		var e Entry
		if err := rows.Scan(&ts, &e.User, &e.Assistant); err != nil {
			return "", fmt.Errorf("scan history row: %w", err)
		}
		stamp := time.Unix(ts, 0).Format("2006-01-02 15:04:05")
		lines = append(lines, fmt.Sprintf("[%s]\nUser: %s\nNimbus: %s\n", stamp, e.User, e.Assistant))
		count++
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if count == 0 {
		return "No history records found.", nil
	}
	return strings.Join(lines, "\n"), nil
}
