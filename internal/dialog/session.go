package dialog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/export"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/query"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/slots"
)

// Exporter writes a result set somewhere and returns where.
type Exporter interface {
	Export(rs query.ResultSet, f export.Format) (string, error)
}

// TurnRecord is the audit entry for one handled input.
type TurnRecord struct {
	SessionID string
	Turn      int
	Input     string
	From      State
	To        State
	Slots     Slots
	Reply     string
	CreatedAt time.Time
}

// RunRecord is the audit entry for one executed query.
type RunRecord struct {
	SessionID string
	Turn      int
	Outcome   query.Outcome
	CreatedAt time.Time
}

// Recorder persists the audit trail. Failures are logged and ignored.
type Recorder interface {
	RecordTurn(ctx context.Context, rec TurnRecord) error
	RecordRun(ctx context.Context, rec RunRecord) error
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithExporter sets where export commands write.
func WithExporter(e Exporter) SessionOption {
	return func(s *Session) { s.exporter = e }
}

// WithRecorder attaches an audit recorder.
func WithRecorder(r Recorder) SessionOption {
	return func(s *Session) { s.recorder = r }
}

// WithSessionLogger attaches a logger.
func WithSessionLogger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) SessionOption {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// Session is one user's conversation. Its methods are serialized by a
// mutex, so overlapping calls see each other's effects in order.
type Session struct {
	id       string
	machine  *Machine
	exporter Exporter
	recorder Recorder
	logger   *zap.Logger

	mu   sync.Mutex
	conv Conversation
	last *query.ResultSet
	turn int
}

// NewSession starts a conversation at ASK_STATE.
func NewSession(m *Machine, opts ...SessionOption) *Session {
	s := &Session{
		id:       uuid.New().String(),
		machine:  m,
		exporter: export.Dir{},
		logger:   zap.NewNop(),
		conv:     NewConversation(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session", s.id))
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Conversation returns a snapshot of the current dialog value.
func (s *Session) Conversation() Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv
}

// LastResult returns the most recent successful result set, if any.
func (s *Session) LastResult() (query.ResultSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return query.ResultSet{}, false
	}
	return *s.last, true
}

// #region handlers
// HandleUserInput processes one utterance. Reset and export commands are
// handled before the state machine sees the text.
func (s *Session) HandleUserInput(ctx context.Context, text string) Reply {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.turn++
	from := s.conv.Current

	var r Reply
	switch slots.ParseCommand(text) {
	case slots.CommandReset:
		r = s.resetLocked()
	case slots.CommandExportCSV:
		r = s.exportLocked(export.CSV)
	case slots.CommandExportJSON:
		r = s.exportLocked(export.JSON)
	default:
		s.conv, r = s.machine.Step(ctx, s.conv, text)
	}

	s.finishTurnLocked(ctx, text, from, r)
	return r
}

// ResetConversation clears every slot and returns to ASK_STATE. Calling it
// twice in a row yields the same conversation and reply.
func (s *Session) ResetConversation() Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked()
}

// ApplyAssistedSelection runs a picker selection through exact validation
// and, if valid, straight into the query.
func (s *Session) ApplyAssistedSelection(ctx context.Context, sel Selection) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turn++
	from := s.conv.Current

	var r Reply
	s.conv, r = s.machine.Assist(ctx, s.conv, sel)

	s.finishTurnLocked(ctx, describeSelection(sel), from, r)
	return r
}

// #endregion handlers

func (s *Session) resetLocked() Reply {
	s.conv = NewConversation()
	return Reply{Messages: []string{msgStart}, Visited: []State{StateAskState}}
}

func (s *Session) exportLocked(f export.Format) Reply {
	var r Reply
	if s.last == nil {
		r.say(msgNoExport)
		return r
	}

	path, err := s.exporter.Export(*s.last, f)
	r.Export = &ExportAction{Format: f, Path: path, Err: err}
	if err != nil {
		s.logger.Warn("export failed", zap.String("format", string(f)), zap.Error(err))
		r.say(msgExportFailed)
		return r
	}
	s.logger.Info("exported", zap.String("format", string(f)), zap.String("path", path))
	r.say(exported(string(f), path))
	return r
}

func (s *Session) finishTurnLocked(ctx context.Context, input string, from State, r Reply) {
	if r.Outcome != nil && r.Outcome.OK() {
		rs := *r.Outcome.Result
		s.last = &rs
	}

	s.logger.Info("turn",
		zap.Int("turn", s.turn),
		zap.Stringer("from", from),
		zap.Stringer("to", s.conv.Current),
		zap.Int("messages", len(r.Messages)))

	if s.recorder == nil {
		return
	}
	now := time.Now().UTC()
	if err := s.recorder.RecordTurn(ctx, TurnRecord{
		SessionID: s.id,
		Turn:      s.turn,
		Input:     input,
		From:      from,
		To:        s.conv.Current,
		Slots:     s.conv.Slots,
		Reply:     r.Text(),
		CreatedAt: now,
	}); err != nil {
		s.logger.Warn("record turn failed", zap.Error(err))
	}
	if r.Outcome != nil {
		if err := s.recorder.RecordRun(ctx, RunRecord{
			SessionID: s.id,
			Turn:      s.turn,
			Outcome:   *r.Outcome,
			CreatedAt: now,
		}); err != nil {
			s.logger.Warn("record run failed", zap.Error(err))
		}
	}
}

func describeSelection(sel Selection) string {
	parts := []string{sel.State}
	if sel.District != "" {
		parts = append(parts, sel.District)
	}
	if sel.Block != "" {
		parts = append(parts, sel.Block)
	}
	desc := "pick " + strings.Join(parts, "; ")
	if sel.Years != nil {
		desc += fmt.Sprintf(" [%s]", sel.Years)
	}
	return desc
}
