package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dialog"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/logging"
)

// Recorder adapts a Store to dialog.Recorder.
type Recorder struct {
	store *Store
}

// NewRecorder wraps s.
func NewRecorder(s *Store) *Recorder {
	return &Recorder{store: s}
}

// RecordTurn appends the turn to turn_log.
func (r *Recorder) RecordTurn(ctx context.Context, rec dialog.TurnRecord) error {
	slotsJSON, err := json.Marshal(rec.Slots)
	if err != nil {
		return fmt.Errorf("marshal slots: %w", err)
	}
	return logging.LogTurn(ctx, r.store.DB(), logging.TurnEntry{
		SessionID: rec.SessionID,
		Turn:      rec.Turn,
		Input:     rec.Input,
		FromState: rec.From.String(),
		ToState:   rec.To.String(),
		SlotsJSON: string(slotsJSON),
		Reply:     rec.Reply,
		CreatedAt: rec.CreatedAt,
	})
}

// RecordRun stores the executed query and, on success, its result set.
func (r *Recorder) RecordRun(ctx context.Context, rec dialog.RunRecord) error {
	out := rec.Outcome
	run := RunRecord{
		SessionID: rec.SessionID,
		Turn:      rec.Turn,
		Years:     out.Request.Years,
		Outcome:   out.Failure.String(),
		Message:   out.Message,
		CreatedAt: rec.CreatedAt,
	}
	if out.Request.State != nil {
		run.State = *out.Request.State
	}
	if out.Request.District != nil {
		run.District = *out.Request.District
	}
	if out.Request.Block != nil {
		run.Block = *out.Request.Block
	}
	if out.Result != nil {
		data, err := json.Marshal(out.Result.Years)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		run.Location = out.Result.Location
		run.ResultJSON = string(data)
	}
	_, err := r.store.RecordRun(ctx, run)
	return err
}
