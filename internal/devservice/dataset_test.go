package devservice

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dataservice"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/metadata"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/query"
)

var (
	_ metadata.Source = (*Dataset)(nil)
	_ query.Service   = (*Dataset)(nil)
)

func TestDataset_StatesDecodeFromYAMLAndJSON(t *testing.T) {
	fromYAML, err := ParseDataset([]byte("states:\n  - name: Kerala\n    districts:\n      - name: Idukki\n"))
	require.NoError(t, err)
	require.Len(t, fromYAML.StateList, 1)

	var fromJSON Dataset
	require.NoError(t, json.Unmarshal([]byte(`{"states": [{"name": "Kerala", "districts": [{"name": "Idukki"}]}]}`), &fromJSON))
	require.Len(t, fromJSON.StateList, 1)

	for _, ds := range []*Dataset{fromYAML, &fromJSON} {
		states, err := ds.States(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Kerala"}, states)
	}
}

func TestSampleDataset_Hierarchy(t *testing.T) {
	ds := SampleDataset()
	ctx := context.Background()

	states, err := ds.States(ctx)
	require.NoError(t, err)
	assert.Contains(t, states, "Bihar")

	districts, err := ds.Districts(ctx, "bihar")
	require.NoError(t, err)
	assert.Equal(t, []string{"Patna", "Gaya", "Nalanda", "Aurangabad"}, districts)

	bihar, err := ds.Blocks(ctx, "Bihar", "Aurangabad")
	require.NoError(t, err)
	maha, err := ds.Blocks(ctx, "Maharashtra", "Aurangabad")
	require.NoError(t, err)
	assert.Equal(t, []string{"Obra"}, bihar)
	assert.Equal(t, []string{"Paithan"}, maha)

	_, err = ds.Districts(ctx, "Atlantis")
	assert.Equal(t, dataservice.KindNotFound, dataservice.KindOf(err))
}

func TestDataset_QueryLatestAndExplicit(t *testing.T) {
	ds := SampleDataset()
	ctx := context.Background()

	resp, err := ds.Query(ctx, dataservice.QueryRequest{
		State:    dataservice.StringOrNil("Bihar"),
		District: dataservice.StringOrNil("Patna"),
	})
	require.NoError(t, err)
	require.Len(t, resp.Years, 1)
	assert.Equal(t, 2024, resp.Years[0].Year)
	assert.Equal(t, "Patna", resp.LocationSummary.District)

	resp, err = ds.Query(ctx, dataservice.QueryRequest{
		State: dataservice.StringOrNil("Bihar"),
		Years: []int{2024, 2023},
	})
	require.NoError(t, err)
	require.Len(t, resp.Years, 2)
	assert.Equal(t, 2023, resp.Years[0].Year)
	assert.Equal(t, 2024, resp.Years[1].Year)
}

func TestDataset_QueryNationalWhenNoState(t *testing.T) {
	resp, err := SampleDataset().Query(context.Background(), dataservice.QueryRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.LocationSummary.State)
	require.Len(t, resp.Years, 1)
}

func TestDataset_QueryMissingData(t *testing.T) {
	ds := SampleDataset()
	ctx := context.Background()

	resp, err := ds.Query(ctx, dataservice.QueryRequest{
		State:    dataservice.StringOrNil("Bihar"),
		District: dataservice.StringOrNil("Patna"),
		Block:    dataservice.StringOrNil("Phulwari"),
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Years)

	_, err = ds.Query(ctx, dataservice.QueryRequest{State: dataservice.StringOrNil("Atlantis")})
	assert.Equal(t, dataservice.KindNotFound, dataservice.KindOf(err))
}

func TestParseDataset_Invalid(t *testing.T) {
	_, err := ParseDataset([]byte("states: [oops"))
	require.Error(t, err)
}
