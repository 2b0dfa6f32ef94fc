package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/logging"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS query_runs (
	run_id        TEXT PRIMARY KEY,
	session_id    TEXT NOT NULL,
	turn          INTEGER NOT NULL,
	state         TEXT,
	district      TEXT,
	block         TEXT,
	years_json    TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	message       TEXT,
	location      TEXT,
	result_json   TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_query_runs_created ON query_runs(created_at);

CREATE TABLE IF NOT EXISTS turn_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	turn          INTEGER NOT NULL,
	input         TEXT NOT NULL,
	from_state    TEXT NOT NULL,
	to_state      TEXT NOT NULL,
	slots_json    TEXT,
	reply         TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turn_log_session ON turn_log(session_id, turn);
`

// #endregion schema

// #region types
// RunRecord is one executed query as stored.
type RunRecord struct {
	RunID      string
	SessionID  string
	Turn       int
	State      string
	District   string
	Block      string
	Years      []int
	Outcome    string
	Message    string
	Location   string
	ResultJSON string
	CreatedAt  time.Time
}

// #endregion types

// #region store-struct
// Store keeps the query and turn audit log in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #region record-run
// RecordRun inserts rec, assigning a run id and timestamp when missing,
// and returns the id.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord) (string, error) {
	if rec.RunID == "" {
		rec.RunID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	years := rec.Years
	if years == nil {
		years = []int{}
	}
	yearsJSON, err := json.Marshal(years)
	if err != nil {
		return "", fmt.Errorf("marshal years: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO query_runs (run_id, session_id, turn, state, district, block, years_json, outcome, message, location, result_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.SessionID, rec.Turn,
		nullIfEmpty(rec.State), nullIfEmpty(rec.District), nullIfEmpty(rec.Block),
		string(yearsJSON), rec.Outcome, nullIfEmpty(rec.Message),
		nullIfEmpty(rec.Location), nullIfEmpty(rec.ResultJSON),
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return rec.RunID, nil
}

// #endregion record-run

// #region read-runs
const runColumns = `run_id, session_id, turn, state, district, block, years_json, outcome, message, location, result_json, created_at`

// GetRun retrieves one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM query_runs WHERE run_id = ?`, id)
	rec, err := scanRun(row)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return rec, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM query_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListTurns returns the logged turns of one session in turn order.
func (s *Store) ListTurns(ctx context.Context, sessionID string) ([]logging.TurnEntry, error) {
	return logging.SessionTurns(ctx, s.db, sessionID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunRecord, error) {
	var rec RunRecord
	var state, district, block, message, location, result sql.NullString
	var yearsJSON, created string

	if err := sc.Scan(&rec.RunID, &rec.SessionID, &rec.Turn, &state, &district, &block,
		&yearsJSON, &rec.Outcome, &message, &location, &result, &created); err != nil {
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}
	rec.State, rec.District, rec.Block = state.String, district.String, block.String
	rec.Message, rec.Location, rec.ResultJSON = message.String, location.String, result.String
	if err := json.Unmarshal([]byte(yearsJSON), &rec.Years); err != nil {
		return RunRecord{}, fmt.Errorf("unmarshal years: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return rec, nil
}

// #endregion read-runs

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
