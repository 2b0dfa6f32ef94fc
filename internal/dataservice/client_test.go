package dataservice_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dataservice"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/devservice"
)

func newDevServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(devservice.NewRouter(devservice.SampleDataset(), nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Metadata(t *testing.T) {
	t.Parallel()
	srv := newDevServer(t)
	c := dataservice.NewClient(srv.URL + "/api")
	ctx := context.Background()

	states, err := c.States(ctx)
	require.NoError(t, err)
	assert.Contains(t, states, "Punjab")

	districts, err := c.Districts(ctx, "Bihar")
	require.NoError(t, err)
	assert.Contains(t, districts, "Patna")

	blocks, err := c.Blocks(ctx, "Bihar", "Bodh Gaya")
	require.Error(t, err)
	assert.Nil(t, blocks)
	assert.Equal(t, dataservice.KindNotFound, dataservice.KindOf(err))

	blocks, err = c.Blocks(ctx, "Bihar", "Gaya")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bodh Gaya", "Manpur"}, blocks)
}

func TestClient_Query(t *testing.T) {
	t.Parallel()
	srv := newDevServer(t)
	c := dataservice.NewClient(srv.URL+"/api/", dataservice.WithTimeout(2*time.Second))

	resp, err := c.Query(context.Background(), dataservice.QueryRequest{
		State: dataservice.StringOrNil("Punjab"),
		Years: []int{2023, 2024},
	})
	require.NoError(t, err)
	assert.Equal(t, "Punjab", resp.LocationSummary.State)
	require.Len(t, resp.Years, 2)
	assert.True(t, resp.Years[1].StagePercent.Valid)
	assert.InDelta(t, 150.65, resp.Years[1].StagePercent.Value, 1e-9)
}

func TestClient_ErrorKinds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind dataservice.Kind
		wantMsg  string
	}{
		{"not-found-message", http.StatusNotFound, `{"message":"no such place"}`, dataservice.KindNotFound, "no such place"},
		{"server-error-field", http.StatusInternalServerError, `{"error":"db down"}`, dataservice.KindServer, "db down"},
		{"bad-gateway-no-body", http.StatusBadGateway, ``, dataservice.KindServer, "HTTP 502: Bad Gateway"},
		{"teapot-garbage", http.StatusTeapot, `<html>`, dataservice.KindUnknown, "HTTP 418: I'm a teapot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := dataservice.NewClient(srv.URL).Query(context.Background(), dataservice.QueryRequest{})
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, dataservice.KindOf(err))

			var dsErr *dataservice.Error
			require.ErrorAs(t, err, &dsErr)
			assert.Equal(t, tt.wantMsg, dsErr.Message)
			assert.Equal(t, tt.status, dsErr.Status)
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := dataservice.NewClient(url).States(context.Background())
	require.Error(t, err)
	assert.Equal(t, dataservice.KindTransport, dataservice.KindOf(err))
}

func TestClient_MalformedBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"years": "nope"`))
	}))
	defer srv.Close()

	_, err := dataservice.NewClient(srv.URL).Query(context.Background(), dataservice.QueryRequest{})
	require.Error(t, err)
	assert.Equal(t, dataservice.KindUnknown, dataservice.KindOf(err))
}

func TestClient_EmitsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	srv := newDevServer(t)
	_, err := dataservice.NewClient(srv.URL + "/api").States(context.Background())
	require.NoError(t, err)

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "dataservice.states")
}

func TestQueryRequest_JSON(t *testing.T) {
	data, err := json.Marshal(dataservice.QueryRequest{State: dataservice.StringOrNil("Goa")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"Goa","district":null,"block":null,"years":[]}`, string(data))
}

func TestQuantity_Decode(t *testing.T) {
	var rec dataservice.YearRecord
	require.NoError(t, json.Unmarshal([]byte(`{"year":2024,"annual_extractable":"12.5","total_extraction":null,"stage_percent":88}`), &rec))
	assert.Equal(t, dataservice.Some(12.5), rec.AnnualExtractable)
	assert.False(t, rec.TotalExtraction.Valid)
	assert.Equal(t, dataservice.Some(88), rec.StagePercent)
}
