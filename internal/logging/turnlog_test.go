package logging

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE turn_log (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id  TEXT NOT NULL,
		turn        INTEGER NOT NULL,
		input       TEXT NOT NULL,
		from_state  TEXT NOT NULL,
		to_state    TEXT NOT NULL,
		slots_json  TEXT,
		reply       TEXT,
		created_at  TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

func TestLogTurn_RoundTrip(t *testing.T) {
	db := setupDB(t)
	defer db.Close()
	ctx := context.Background()

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []TurnEntry{
		{SessionID: "s1", Turn: 1, Input: "Bihar", FromState: "ASK_STATE", ToState: "ASK_DISTRICT_OR_LEVEL", SlotsJSON: `{"state":"Bihar"}`, Reply: "Got it", CreatedAt: at},
		{SessionID: "s1", Turn: 2, Input: "skip", FromState: "ASK_DISTRICT_OR_LEVEL", ToState: "ASK_YEAR", CreatedAt: at},
		{SessionID: "s2", Turn: 1, Input: "Goa", FromState: "ASK_STATE", ToState: "ASK_DISTRICT_OR_LEVEL"},
	}
	for _, e := range entries {
		if err := LogTurn(ctx, db, e); err != nil {
			t.Fatalf("LogTurn: %v", err)
		}
	}

	got, err := SessionTurns(ctx, db, "s1")
	if err != nil {
		t.Fatalf("SessionTurns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(got))
	}
	if got[0].SlotsJSON != `{"state":"Bihar"}` || got[0].Reply != "Got it" {
		t.Errorf("first turn = %+v", got[0])
	}
	if got[1].SlotsJSON != "" || got[1].Reply != "" {
		t.Errorf("empty columns should read back empty, got %+v", got[1])
	}
	if !got[0].CreatedAt.Equal(at) {
		t.Errorf("created_at = %v, want %v", got[0].CreatedAt, at)
	}
}

func TestLogTurn_DefaultsTimestamp(t *testing.T) {
	db := setupDB(t)
	defer db.Close()
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	if err := LogTurn(ctx, db, TurnEntry{SessionID: "s", Turn: 1, Input: "x", FromState: "A", ToState: "B"}); err != nil {
		t.Fatalf("LogTurn: %v", err)
	}
	got, err := SessionTurns(ctx, db, "s")
	if err != nil || len(got) != 1 {
		t.Fatalf("SessionTurns: %v (%d rows)", err, len(got))
	}
	if got[0].CreatedAt.Before(before) {
		t.Errorf("timestamp not defaulted: %v", got[0].CreatedAt)
	}
}

func TestLogTurn_MissingTable(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := LogTurn(context.Background(), db, TurnEntry{SessionID: "s"}); err == nil {
		t.Error("expected error without turn_log table")
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "", "nonsense"} {
		logger, err := NewLogger(level)
		if err != nil {
			t.Fatalf("NewLogger(%q): %v", level, err)
		}
		logger.Debug("probe")
	}
}
