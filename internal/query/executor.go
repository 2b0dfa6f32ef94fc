package query

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dataservice"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/slots"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/telemetry"
)

// Service runs assessment queries.
type Service interface {
	Query(ctx context.Context, req dataservice.QueryRequest) (dataservice.QueryResponse, error)
}

// Params are the resolved slots of one query. Empty strings mean the level
// was not selected.
type Params struct {
	State    string
	District string
	Block    string
	Years    slots.YearSelection
}

// Request renders p as a data service payload.
func (p Params) Request() dataservice.QueryRequest {
	return dataservice.QueryRequest{
		State:    dataservice.StringOrNil(p.State),
		District: dataservice.StringOrNil(p.District),
		Block:    dataservice.StringOrNil(p.Block),
		Years:    p.Years.Payload(),
	}
}

// ResultSet is a successful query, kept for export.
type ResultSet struct {
	Location    string
	Summary     dataservice.LocationSummary
	Years       []dataservice.YearRecord
	RetrievedAt time.Time
}

// Outcome is what one execution produced. Exactly one of Result or a
// non-None Failure is set.
type Outcome struct {
	Request dataservice.QueryRequest
	Result  *ResultSet
	Failure Failure
	Message string
	Err     error
}

// OK reports a successful query with data.
func (o Outcome) OK() bool { return o.Failure == FailureNone && o.Result != nil }

// Executor builds payloads, calls the service and renders the outcome.
type Executor struct {
	svc    Service
	logger *zap.Logger
	now    func() time.Time
}

// NewExecutor wraps svc. A nil logger disables logging.
func NewExecutor(svc Service, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{svc: svc, logger: logger, now: time.Now}
}

// Execute never returns an error: every failure is mapped to a Failure
// and a user-facing message.
func (e *Executor) Execute(ctx context.Context, p Params) Outcome {
	req := p.Request()
	log := e.logger.With(
		zap.String("state", p.State),
		zap.String("district", p.District),
		zap.String("block", p.Block),
		zap.Stringer("years", p.Years))

	resp, err := e.svc.Query(ctx, req)
	if err != nil {
		f := failureFor(err)
		log.Warn("query failed", zap.String("failure", f.String()), zap.Error(err))
		telemetry.ObserveQuery(f.String())
		return Outcome{Request: req, Failure: f, Message: FailureMessage(f, err), Err: err}
	}

	if len(resp.Years) == 0 {
		log.Info("query returned no years")
		telemetry.ObserveQuery(FailureNoData.String())
		return Outcome{Request: req, Failure: FailureNoData, Message: FailureMessage(FailureNoData, nil)}
	}

	rs := &ResultSet{
		Location:    LocationText(resp.LocationSummary),
		Summary:     resp.LocationSummary,
		Years:       resp.Years,
		RetrievedAt: e.now().UTC(),
	}
	log.Info("query ok", zap.String("location", rs.Location), zap.Int("years", len(rs.Years)))
	telemetry.ObserveQuery("ok")
	return Outcome{Request: req, Result: rs, Message: FormatResults(*rs)}
}
