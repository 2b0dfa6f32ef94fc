package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dataservice"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/slots"
)

type stubService struct {
	resp dataservice.QueryResponse
	err  error
	got  []dataservice.QueryRequest
}

func (s *stubService) Query(ctx context.Context, req dataservice.QueryRequest) (dataservice.QueryResponse, error) {
	s.got = append(s.got, req)
	return s.resp, s.err
}

func patnaResponse() dataservice.QueryResponse {
	return dataservice.QueryResponse{
		LocationSummary: dataservice.LocationSummary{State: "Bihar", District: "Patna"},
		Years: []dataservice.YearRecord{
			{Year: 2024, AnnualExtractable: dataservice.Some(1.19), TotalExtraction: dataservice.Some(0.96), StagePercent: dataservice.Some(80.67), Categorization: "Semi-Critical"},
		},
	}
}

func TestExecute_Success(t *testing.T) {
	svc := &stubService{resp: patnaResponse()}
	e := NewExecutor(svc, nil)
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	out := e.Execute(context.Background(), Params{State: "Bihar", District: "Patna", Years: slots.Explicit(2024)})

	require.True(t, out.OK())
	assert.Equal(t, "Bihar › Patna", out.Result.Location)
	assert.Equal(t, fixed, out.Result.RetrievedAt)
	assert.Contains(t, out.Message, "Groundwater data for Bihar › Patna")
	assert.Contains(t, out.Message, "Semi-critical")

	require.Len(t, svc.got, 1)
	req := svc.got[0]
	require.NotNil(t, req.State)
	assert.Equal(t, "Bihar", *req.State)
	assert.Nil(t, req.Block)
	assert.Equal(t, []int{2024}, req.Years)
}

func TestExecute_LatestSendsEmptyYears(t *testing.T) {
	svc := &stubService{resp: patnaResponse()}
	NewExecutor(svc, nil).Execute(context.Background(), Params{State: "Bihar", Years: slots.Latest()})

	require.Len(t, svc.got, 1)
	assert.NotNil(t, svc.got[0].Years)
	assert.Empty(t, svc.got[0].Years)
	assert.Nil(t, svc.got[0].District)
}

func TestExecute_Failures(t *testing.T) {
	tests := []struct {
		name    string
		svc     *stubService
		want    Failure
		message string
	}{
		{"transport", &stubService{err: &dataservice.Error{Kind: dataservice.KindTransport}}, FailureTransport, msgTransport},
		{"not-found", &stubService{err: &dataservice.Error{Kind: dataservice.KindNotFound, Status: 404}}, FailureNotFound, msgNotFound},
		{"server", &stubService{err: &dataservice.Error{Kind: dataservice.KindServer, Status: 503}}, FailureServer, msgServer},
		{"no-data", &stubService{resp: dataservice.QueryResponse{}}, FailureNoData, msgNoData},
		{"unknown-with-message", &stubService{err: &dataservice.Error{Kind: dataservice.KindUnknown, Status: 400, Message: "bad years"}}, FailureUnknown, "Error: bad years"},
		{"unknown-bare", &stubService{err: context.Canceled}, FailureUnknown, msgUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewExecutor(tt.svc, nil).Execute(context.Background(), Params{State: "Goa", Years: slots.Latest()})
			assert.False(t, out.OK())
			assert.Nil(t, out.Result)
			assert.Equal(t, tt.want, out.Failure)
			assert.Equal(t, tt.message, out.Message)
		})
	}
}

func TestParseFailure(t *testing.T) {
	for f := FailureNone; f <= FailureUnknown; f++ {
		assert.Equal(t, f, ParseFailure(f.String()))
	}
	assert.Equal(t, FailureUnknown, ParseFailure("bogus"))
}
