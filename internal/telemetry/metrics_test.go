package telemetry

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(metadataCacheLookupsTotal.WithLabelValues("districts", "hit"))
	ObserveCacheLookup("districts", true)
	ObserveCacheLookup("districts", false)
	after := testutil.ToFloat64(metadataCacheLookupsTotal.WithLabelValues("districts", "hit"))
	assert.Equal(t, before+1, after)
}

func TestHandlerExposesMetrics(t *testing.T) {
	ObserveTransition("ASK_STATE", "ASK_YEAR")
	ObserveQuery("ok")
	ObserveRequest("query", 200, 120*time.Millisecond)
	ObserveRequest("states", 0, time.Millisecond)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `jalsathi_dialog_transitions_total{from="ASK_STATE",to="ASK_YEAR"}`)
	assert.Contains(t, text, `jalsathi_dialog_queries_total{outcome="ok"}`)
	assert.Contains(t, text, `jalsathi_dataservice_request_duration_seconds_count{endpoint="states",status="error"}`)
}
