package dialog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/export"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/match"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/metadata"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/query"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/slots"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/telemetry"
)

// #region types
// QueryRunner executes a resolved query.
type QueryRunner interface {
	Execute(ctx context.Context, p query.Params) query.Outcome
}

// ValidationError rejects an assisted selection at one level.
type ValidationError struct {
	Field       string
	Message     string
	Suggestions []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ExportAction reports an export command's side effect.
type ExportAction struct {
	Format export.Format
	Path   string
	Err    error
}

// Reply is everything one handler call produced.
type Reply struct {
	Messages []string
	// Visited lists every state entered during the call, in order.
	Visited []State
	Outcome *query.Outcome
	Export  *ExportAction
	Invalid *ValidationError
}

func (r *Reply) say(msg string) {
	if msg != "" {
		r.Messages = append(r.Messages, msg)
	}
}

// Text joins the messages for display.
func (r Reply) Text() string {
	return strings.Join(r.Messages, "\n\n")
}

// Selection is an assisted (picker) choice. Empty fields are unset; nil
// Years means latest.
type Selection struct {
	State    string
	District string
	Block    string
	Years    *slots.YearSelection
}

// #endregion types

// Config tunes a Machine.
type Config struct {
	Matcher         *match.Matcher
	Years           slots.YearParser
	SuggestionLimit int
}

// Machine implements the dialog transitions. It holds no conversation
// state of its own and is safe for concurrent use by many sessions.
type Machine struct {
	lookup  metadata.Source
	runner  QueryRunner
	matcher *match.Matcher
	years   slots.YearParser
	limit   int
	logger  *zap.Logger
}

// NewMachine wires lookup (normally a *metadata.Cache) and runner.
func NewMachine(lookup metadata.Source, runner QueryRunner, cfg Config, logger *zap.Logger) *Machine {
	if cfg.Matcher == nil {
		cfg.Matcher = match.New()
	}
	if len(cfg.Years.Known()) == 0 {
		cfg.Years = slots.NewYearParser(nil)
	}
	if cfg.SuggestionLimit <= 0 {
		cfg.SuggestionLimit = match.DefaultSuggestionLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		lookup:  lookup,
		runner:  runner,
		matcher: cfg.Matcher,
		years:   cfg.Years,
		limit:   cfg.SuggestionLimit,
		logger:  logger,
	}
}

func (m *Machine) moveTo(conv *Conversation, to State, r *Reply) {
	telemetry.ObserveTransition(conv.Current.String(), to.String())
	m.logger.Debug("transition", zap.Stringer("from", conv.Current), zap.Stringer("to", to))
	conv.Current = to
	r.Visited = append(r.Visited, to)
}

// #region step
// Step consumes one utterance. The returned conversation replaces conv;
// when a lookup fails conv comes back unchanged.
func (m *Machine) Step(ctx context.Context, conv Conversation, input string) (Conversation, Reply) {
	var r Reply
	var next Conversation

	switch conv.Current {
	case StateAskState:
		next = m.askState(ctx, conv, input, &r)
	case StateAskDistrictOrLevel:
		next = m.askDistrict(ctx, conv, input, &r)
	case StateAskYear:
		next = m.askYear(ctx, conv, input, false, &r)
	case StateConfirmAndQuery:
		next = m.confirm(ctx, conv, &r)
	case StateDone:
		next = m.done(conv, &r)
	default:
		m.logger.Error("unknown dialog state, resetting", zap.Stringer("state", conv.Current))
		next = NewConversation()
		r.say(msgStart)
	}
	return next, r
}

func (m *Machine) askState(ctx context.Context, conv Conversation, input string, r *Reply) Conversation {
	states, err := m.lookup.States(ctx)
	if err != nil {
		r.say(msgLookupFailed)
		return conv
	}
	state, ok := m.matcher.Resolve(input, states)
	if !ok {
		r.say(withSuggestions(msgInvalidState, m.matcher.Suggest(input, states, m.limit)))
		return conv
	}

	districts, err := m.lookup.Districts(ctx, state)
	if err != nil {
		r.say(msgLookupFailed)
		return conv
	}

	next := conv
	next.Slots.State = state
	// A bare state name would otherwise fuzzy-match districts that embed it
	// ("Goa" -> "North Goa").
	if match.Normalize(input) != match.Normalize(state) {
		if district, ok := m.matcher.Resolve(input, districts); ok {
			next.Slots.District = district
		}
	}
	if sel, ok := m.years.Parse(input); ok {
		next.Slots.Years = &sel
	}

	if next.Slots.District != "" || slots.WantsHigherLevel(input) {
		m.moveTo(&next, StateAskYear, r)
		if next.Slots.Years != nil {
			return m.askYear(ctx, next, input, true, r)
		}
		r.say(askYear(m.years.Known()))
		return next
	}

	m.moveTo(&next, StateAskDistrictOrLevel, r)
	r.say(confirmState(state))
	return next
}

func (m *Machine) askDistrict(ctx context.Context, conv Conversation, input string, r *Reply) Conversation {
	next := conv
	if slots.WantsHigherLevel(input) {
		next.Slots.District, next.Slots.Block = "", ""
		m.moveTo(&next, StateAskYear, r)
		r.say(askYear(m.years.Known()))
		return next
	}

	districts, err := m.lookup.Districts(ctx, conv.Slots.State)
	if err != nil {
		r.say(msgLookupFailed)
		return conv
	}
	district, ok := m.matcher.Resolve(input, districts)
	if !ok {
		r.say(withSuggestions(msgInvalidDistrict, m.matcher.Suggest(input, districts, m.limit)))
		return conv
	}

	next.Slots.District = district
	m.moveTo(&next, StateAskYear, r)
	r.say(askYear(m.years.Known()))
	return next
}

// askYear either parses input or, when reuse is set, takes the years
// already captured from an earlier utterance.
func (m *Machine) askYear(ctx context.Context, conv Conversation, input string, reuse bool, r *Reply) Conversation {
	var (
		sel slots.YearSelection
		ok  bool
	)
	if reuse && conv.Slots.Years != nil {
		sel, ok = *conv.Slots.Years, true
	} else {
		sel, ok = m.years.Parse(input)
	}
	if !ok {
		r.say(askYear(m.years.Known()))
		return conv
	}

	next := conv
	next.Slots.Years = &sel
	m.moveTo(&next, StateConfirmAndQuery, r)
	return m.confirm(ctx, next, r)
}

func (m *Machine) confirm(ctx context.Context, conv Conversation, r *Reply) Conversation {
	years := slots.Latest()
	if conv.Slots.Years != nil {
		years = *conv.Slots.Years
	}
	out := m.runner.Execute(ctx, query.Params{
		State:    conv.Slots.State,
		District: conv.Slots.District,
		Block:    conv.Slots.Block,
		Years:    years,
	})
	r.Outcome = &out
	r.say(out.Message)

	next := conv
	m.moveTo(&next, StateDone, r)
	return m.done(next, r)
}

func (m *Machine) done(conv Conversation, r *Reply) Conversation {
	r.say(msgDone)
	next := conv
	m.moveTo(&next, StateAskState, r)
	next.Slots = Slots{}
	return next
}

// #endregion step

// #region assist
// Assist validates a picker selection with exact matching only and, when
// every level checks out, queries immediately. On failure conv is
// returned untouched and Reply.Invalid names the offending field.
func (m *Machine) Assist(ctx context.Context, conv Conversation, sel Selection) (Conversation, Reply) {
	var r Reply

	resolved, verr, err := m.validate(ctx, sel)
	if err != nil {
		r.say(msgLookupFailed)
		return conv, r
	}
	if verr != nil {
		r.Invalid = verr
		msg := verr.Message
		if len(verr.Suggestions) > 0 {
			msg = withSuggestions(msg+" "+msgAssistSuggested, verr.Suggestions)
		}
		r.say(msg)
		return conv, r
	}

	next := Conversation{Current: conv.Current, Slots: resolved}
	m.moveTo(&next, StateConfirmAndQuery, &r)
	return m.confirm(ctx, next, &r), r
}

const assistSuggestionLimit = 3

func (m *Machine) validate(ctx context.Context, sel Selection) (Slots, *ValidationError, error) {
	var out Slots

	if strings.TrimSpace(sel.State) == "" {
		return out, &ValidationError{Field: "state", Message: msgPickState}, nil
	}
	states, err := m.lookup.States(ctx)
	if err != nil {
		return out, nil, err
	}
	state, ok := m.matcher.Exact(sel.State, states)
	if !ok {
		return out, &ValidationError{Field: "state", Message: msgPickState,
			Suggestions: m.assistSuggestions(sel.State, states)}, nil
	}
	out.State = state

	hasDistrict := strings.TrimSpace(sel.District) != ""
	hasBlock := strings.TrimSpace(sel.Block) != ""
	if hasBlock && !hasDistrict {
		return Slots{}, &ValidationError{Field: "block", Message: msgDistrictFirst}, nil
	}

	if hasDistrict {
		districts, err := m.lookup.Districts(ctx, state)
		if err != nil {
			return Slots{}, nil, err
		}
		district, ok := m.matcher.Exact(sel.District, districts)
		if !ok {
			return Slots{}, &ValidationError{Field: "district", Message: msgPickDistrict,
				Suggestions: m.assistSuggestions(sel.District, districts)}, nil
		}
		out.District = district
	}

	if hasBlock {
		blocks, err := m.lookup.Blocks(ctx, state, out.District)
		if err != nil {
			return Slots{}, nil, err
		}
		block, ok := m.matcher.Exact(sel.Block, blocks)
		if !ok {
			return Slots{}, &ValidationError{Field: "block", Message: msgPickBlock,
				Suggestions: m.assistSuggestions(sel.Block, blocks)}, nil
		}
		out.Block = block
	}

	years := slots.Latest()
	if sel.Years != nil {
		if sel.Years.Empty() {
			return Slots{}, &ValidationError{Field: "years", Message: msgPickYears}, nil
		}
		years = *sel.Years
	}
	out.Years = &years
	return out, nil, nil
}

// assistSuggestions returns up to three candidates containing input.
func (m *Machine) assistSuggestions(input string, candidates []string) []string {
	norm := match.Normalize(input)
	var out []string
	for _, c := range candidates {
		if strings.Contains(match.Normalize(c), norm) {
			out = append(out, c)
			if len(out) == assistSuggestionLimit {
				break
			}
		}
	}
	return out
}

// #endregion assist
