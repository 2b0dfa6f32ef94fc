package logging

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// #region turn-entry
// TurnEntry is a single row in the turn_log table.
type TurnEntry struct {
	SessionID string
	Turn      int
	Input     string
	FromState string
	ToState   string
	SlotsJSON string
	Reply     string
	CreatedAt time.Time
}

// #endregion turn-entry

// #region log-turn
// LogTurn writes one dialog turn to the turn_log table.
func LogTurn(ctx context.Context, db *sql.DB, entry TurnEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO turn_log (session_id, turn, input, from_state, to_state, slots_json, reply, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		entry.Turn,
		entry.Input,
		entry.FromState,
		entry.ToState,
		nullIfEmpty(entry.SlotsJSON),
		nullIfEmpty(entry.Reply),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log turn: %w", err)
	}
	return nil
}

// #endregion log-turn

// #region read-turns
// SessionTurns returns every logged turn of a session in order.
func SessionTurns(ctx context.Context, db *sql.DB, sessionID string) ([]TurnEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT session_id, turn, input, from_state, to_state, slots_json, reply, created_at
		 FROM turn_log WHERE session_id = ? ORDER BY turn ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var out []TurnEntry
	for rows.Next() {
		var e TurnEntry
		var slotsJSON, reply sql.NullString
		var created string
		if err := rows.Scan(&e.SessionID, &e.Turn, &e.Input, &e.FromState, &e.ToState, &slotsJSON, &reply, &created); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		e.SlotsJSON = slotsJSON.String
		e.Reply = reply.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion read-turns

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
