package stats

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDisabledStore(t *testing.T) {
	s, err := Open(context.Background(), "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Enabled() {
		t.Error("empty path should yield a disabled store")
	}
	if err := s.LogCommand(context.Background(), 1, "u", "state", ""); err != nil {
		t.Errorf("disabled LogCommand: %v", err)
	}
	sum, err := s.Summarize(context.Background())
	if err != nil || sum.TotalCommands != 0 {
		t.Errorf("disabled Summarize = %+v, %v", sum, err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	commands := []struct {
		user    int64
		name    string
		command string
	}{
		{1, "alice", "state"},
		{1, "alice", "state"},
		{2, "", "find"},
		{3, "carol", "report"},
	}
	for _, c := range commands {
		if err := s.LogCommand(ctx, c.user, c.name, c.command, "args"); err != nil {
			t.Fatalf("LogCommand: %v", err)
		}
	}
	if err := s.LogError(ctx, 2, "find", strings.Repeat("e", 500)); err != nil {
		t.Fatalf("LogError: %v", err)
	}

	sum, err := s.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.TotalCommands != 4 {
		t.Errorf("TotalCommands = %d, want 4", sum.TotalCommands)
	}
	if sum.TotalErrors != 1 {
		t.Errorf("TotalErrors = %d, want 1", sum.TotalErrors)
	}
	if sum.UniqueUsers != 3 {
		t.Errorf("UniqueUsers = %d, want 3", sum.UniqueUsers)
	}
	if len(sum.TopCommands) == 0 || sum.TopCommands[0].Command != "state" || sum.TopCommands[0].Count != 2 {
		t.Errorf("TopCommands = %+v", sum.TopCommands)
	}

	var stored string
	if err := s.db.QueryRow("SELECT error FROM errors LIMIT 1").Scan(&stored); err != nil {
		t.Fatalf("read error row: %v", err)
	}
	if len([]rune(stored)) > 200 {
		t.Errorf("stored error text %d runes, want at most 200", len([]rune(stored)))
	}
}

func TestSummarizeTodayUsesLocalMidnight(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if err := s.LogCommand(ctx, 1, "alice", "state", ""); err != nil {
		t.Fatalf("LogCommand: %v", err)
	}

	// Yesterday's entry, one second before today's local-midnight boundary.
	now := time.Now()
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO commands (user_id, username, command, args, ts) VALUES (?, ?, ?, ?, ?)",
		1, "alice", "state", "", midnight.Add(-time.Second).Unix()); err != nil {
		t.Fatalf("insert: %v", err)
	}

	sum, err := s.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.TotalCommands != 2 {
		t.Fatalf("TotalCommands = %d, want 2", sum.TotalCommands)
	}
	if sum.TodayCommands != 1 {
		t.Errorf("TodayCommands = %d, want 1", sum.TodayCommands)
	}
}

func TestSummarizeHourlyActivity(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	now := time.Now()
	for _, ts := range []int64{now.Unix(), now.Unix(), now.Add(-48 * time.Hour).Unix()} {
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO commands (user_id, username, command, args, ts) VALUES (?, ?, ?, ?, ?)",
			1, "alice", "state", "", ts); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	sum, err := s.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(sum.Hourly) != 1 {
		t.Fatalf("Hourly = %+v, want one bucket within the last 24h", sum.Hourly)
	}
	if sum.Hourly[0].Hour != now.Hour() {
		t.Errorf("Hourly bucket = %d, want current hour %d", sum.Hourly[0].Hour, now.Hour())
	}
	if sum.Hourly[0].Count != 2 {
		t.Errorf("Hourly count = %d, want 2", sum.Hourly[0].Count)
	}
}
