package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dataservice"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/devservice"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dialog"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/export"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/match"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/metadata"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/query"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/slots"
)

// #region types
// TurnResult captures what one scripted turn produced and how it differed
// from the expectation.
type TurnResult struct {
	TurnID     string
	State      dialog.State
	Reply      string
	Query      *dataservice.QueryRequest
	Outcome    string
	Invalid    string
	Mismatches []string
}

// Passed reports whether every expectation held.
func (r TurnResult) Passed() bool { return len(r.Mismatches) == 0 }

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalTurns int
	Passed     int
	Failed     int
	Queries    int
}

// #endregion types

// #region service
type scriptedService struct {
	inner   query.Service
	failure dataservice.Kind
	fail    bool

	mu   sync.Mutex
	last *dataservice.QueryRequest
}

func (s *scriptedService) Query(ctx context.Context, req dataservice.QueryRequest) (dataservice.QueryResponse, error) {
	s.mu.Lock()
	s.last = &req
	s.mu.Unlock()
	if s.fail {
		return dataservice.QueryResponse{}, &dataservice.Error{Kind: s.failure, Endpoint: "query", Message: "scripted failure"}
	}
	return s.inner.Query(ctx, req)
}

func (s *scriptedService) take() *dataservice.QueryRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := s.last
	s.last = nil
	return req
}

type discardExporter struct{}

func (discardExporter) Export(rs query.ResultSet, f export.Format) (string, error) {
	return export.FileName(rs.Location, f), nil
}

// #endregion service

// #region replay
// Replay runs every turn of f through a fresh session backed by the
// fixture's dataset and compares the results.
func Replay(ctx context.Context, f *Fixture, logger *zap.Logger) ([]TurnResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ds := f.Dataset
	if ds == nil {
		ds = devservice.SampleDataset()
	}
	scorer, err := match.ScorerByName(f.Scorer)
	if err != nil {
		return nil, err
	}

	svc := &scriptedService{inner: ds}
	switch f.ServiceFailure {
	case "transport":
		svc.fail, svc.failure = true, dataservice.KindTransport
	case "not_found":
		svc.fail, svc.failure = true, dataservice.KindNotFound
	case "server":
		svc.fail, svc.failure = true, dataservice.KindServer
	}

	machine := dialog.NewMachine(
		metadata.NewCache(ds, logger),
		query.NewExecutor(svc, logger),
		dialog.Config{
			Matcher: match.New(match.WithScorer(scorer)),
			Years:   slots.NewYearParser(f.KnownYears),
		},
		logger,
	)
	sess := dialog.NewSession(machine,
		dialog.WithExporter(discardExporter{}),
		dialog.WithSessionLogger(logger),
		dialog.WithSessionID("replay"))

	results := make([]TurnResult, 0, len(f.Turns))
	for _, turn := range f.Turns {
		var r dialog.Reply
		if turn.Assist != nil {
			r = sess.ApplyAssistedSelection(ctx, turn.Assist.ToSelection())
		} else {
			r = sess.HandleUserInput(ctx, turn.Input)
		}

		conv := sess.Conversation()
		res := TurnResult{
			TurnID: turn.TurnID,
			State:  conv.Current,
			Reply:  r.Text(),
			Query:  svc.take(),
		}
		if r.Outcome != nil {
			res.Outcome = r.Outcome.Failure.String()
		}
		if r.Invalid != nil {
			res.Invalid = r.Invalid.Field
		}
		res.Mismatches = compare(turn.Expect, res, conv)
		results = append(results, res)
	}
	return results, nil
}

func compare(want FixtureExpect, got TurnResult, conv dialog.Conversation) []string {
	var out []string
	if got.State.String() != want.State {
		out = append(out, fmt.Sprintf("state: want %s, got %s", want.State, got.State))
	}
	if want.Slots != nil && !sameJSON(*want.Slots, conv.Slots) {
		out = append(out, fmt.Sprintf("slots: want %s, got %s", mustJSON(*want.Slots), mustJSON(conv.Slots)))
	}
	for _, s := range want.Contains {
		if !strings.Contains(got.Reply, s) {
			out = append(out, fmt.Sprintf("reply missing %q", s))
		}
	}
	switch {
	case want.NoQuery && got.Query != nil:
		out = append(out, fmt.Sprintf("unexpected query %s", mustJSON(*got.Query)))
	case want.Query != nil && got.Query == nil:
		out = append(out, "expected a query, none sent")
	case want.Query != nil && !sameJSON(*want.Query, *got.Query):
		out = append(out, fmt.Sprintf("query: want %s, got %s", mustJSON(*want.Query), mustJSON(*got.Query)))
	}
	if want.Outcome != "" && want.Outcome != got.Outcome {
		out = append(out, fmt.Sprintf("outcome: want %s, got %q", want.Outcome, got.Outcome))
	}
	if want.Invalid != got.Invalid {
		out = append(out, fmt.Sprintf("invalid field: want %q, got %q", want.Invalid, got.Invalid))
	}
	return out
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}

func sameJSON(a, b any) bool { return mustJSON(a) == mustJSON(b) }

// #endregion replay

// #region summarize
// Summarize computes aggregate stats from replay results.
func Summarize(results []TurnResult) Summary {
	s := Summary{TotalTurns: len(results)}
	for _, r := range results {
		if r.Passed() {
			s.Passed++
		} else {
			s.Failed++
		}
		if r.Query != nil {
			s.Queries++
		}
	}
	return s
}

// #endregion summarize
