// Package stats persists bot usage statistics in a local sqlite database.
// A Store with an empty path is a no-op so stats can be disabled cleanly.
package stats

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fleetpulse-io/fleetpulse/internal/pkg/util"
)

const errTextLimit = 200

const schema = `
CREATE TABLE IF NOT EXISTS commands (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id   INTEGER NOT NULL,
	username  TEXT NOT NULL,
	command   TEXT NOT NULL,
	args      TEXT NOT NULL DEFAULT '',
	ts        INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS errors (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id   INTEGER NOT NULL,
	command   TEXT NOT NULL,
	error     TEXT NOT NULL,
	ts        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_commands_ts ON commands(ts);
`

// CommandCount is one entry of the top-commands summary.
type CommandCount struct {
	Command string
	Count   int
}

// HourCount is the number of commands dispatched during one local-time
// hour of the day.
type HourCount struct {
	Hour  int
	Count int
}

// Summary aggregates usage statistics for display.
type Summary struct {
	TotalCommands int
	TotalErrors   int
	UniqueUsers   int
	TodayCommands int
	TopCommands   []CommandCount
	Hourly        []HourCount
}

// Store records command and error events. The zero Store (nil db) discards
// everything.
type Store struct {
	db *sql.DB
}

// Open creates or opens the stats database at path. An empty path returns a
// disabled store.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return &Store{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir stats dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}

	// sqlite in a single process: one writer connection is the safe choice.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init stats schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Enabled reports whether events are actually persisted.
func (s *Store) Enabled() bool { return s != nil && s.db != nil }

// LogCommand records one dispatched command.
func (s *Store) LogCommand(ctx context.Context, userID int64, username, command, args string) error {
	if !s.Enabled() {
		return nil
	}
	if username == "" {
		username = "unknown"
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO commands (user_id, username, command, args, ts) VALUES (?, ?, ?, ?, ?)",
		userID, username, command, args, time.Now().Unix())
	return err
}

// LogError records one command failure. The error text is bounded before
// storage.
func (s *Store) LogError(ctx context.Context, userID int64, command, errText string) error {
	if !s.Enabled() {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO errors (user_id, command, error, ts) VALUES (?, ?, ?, ?)",
		userID, command, util.Truncate(errText, errTextLimit), time.Now().Unix())
	return err
}

// Summarize aggregates the stored statistics.
func (s *Store) Summarize(ctx context.Context) (*Summary, error) {
	sum := &Summary{}
	if !s.Enabled() {
		return sum, nil
	}

	now := time.Now()
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	queries := []struct {
		query string
		dest  *int
		args  []any
	}{
		{"SELECT COUNT(*) FROM commands", &sum.TotalCommands, nil},
		{"SELECT COUNT(*) FROM errors", &sum.TotalErrors, nil},
		{"SELECT COUNT(DISTINCT user_id) FROM commands", &sum.UniqueUsers, nil},
		{"SELECT COUNT(*) FROM commands WHERE ts >= ?", &sum.TodayCommands,
			[]any{midnight.Unix()}},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query, q.args...).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("stats query: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT command, COUNT(*) AS n FROM commands GROUP BY command ORDER BY n DESC LIMIT 5")
	if err != nil {
		return nil, fmt.Errorf("stats query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cc CommandCount
		if err := rows.Scan(&cc.Command, &cc.Count); err != nil {
			return nil, err
		}
		sum.TopCommands = append(sum.TopCommands, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hourly, err := s.db.QueryContext(ctx,
		"SELECT CAST(strftime('%H', ts, 'unixepoch', 'localtime') AS INTEGER) AS hour, COUNT(*) AS n "+
			"FROM commands WHERE ts > ? GROUP BY hour ORDER BY hour",
		now.Add(-24*time.Hour).Unix())
	if err != nil {
		return nil, fmt.Errorf("stats query: %w", err)
	}
	defer hourly.Close()
	for hourly.Next() {
		var hc HourCount
		if err := hourly.Scan(&hc.Hour, &hc.Count); err != nil {
			return nil, err
		}
		sum.Hourly = append(sum.Hourly, hc)
	}
	return sum, hourly.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.db.Close()
}
