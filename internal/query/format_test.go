package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dataservice"
)

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		in   dataservice.Quantity
		want string
	}{
		{dataservice.Some(1234), "1.2K"},
		{dataservice.Some(1000), "1.0K"},
		{dataservice.Some(12.346), "12.35"},
		{dataservice.Some(0), "0.00"},
		{dataservice.Quantity{}, "—"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatQuantity(tt.in))
	}
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		stage float64
		want  string
	}{
		{45, "Safe"},
		{69.99, "Safe"},
		{70, "Semi-critical"},
		{89.9, "Semi-critical"},
		{90, "Critical"},
		{99.99, "Critical"},
		{100, "Over-exploited"},
		{162.4, "Over-exploited"},
	}
	for _, tt := range tests {
		assert.True(t, strings.HasPrefix(Interpret(tt.stage), tt.want), "stage %v -> %q", tt.stage, Interpret(tt.stage))
	}
}

func TestLocationText(t *testing.T) {
	assert.Equal(t, "All states", LocationText(dataservice.LocationSummary{}))
	assert.Equal(t, "Bihar", LocationText(dataservice.LocationSummary{State: "Bihar"}))
	assert.Equal(t, "Bihar › Patna › Danapur",
		LocationText(dataservice.LocationSummary{State: "Bihar", District: "Patna", Block: "Danapur"}))
}

func TestFormatResults(t *testing.T) {
	rs := ResultSet{
		Location: "Punjab",
		Years: []dataservice.YearRecord{
			{Year: 2023, AnnualExtractable: dataservice.Some(18.84), StagePercent: dataservice.Some(147.56), Categorization: "Over-Exploited"},
			{Year: 2024, AnnualExtractable: dataservice.Some(18.6), StagePercent: dataservice.Some(60)},
		},
	}
	got := FormatResults(rs)

	assert.True(t, strings.HasPrefix(got, "Groundwater data for Punjab"))
	assert.Contains(t, got, "Annual extractable: 18.84 BCM")
	assert.Contains(t, got, "Total extraction:   — BCM")
	assert.Contains(t, got, "Stage of extraction: 147.56%")
	assert.Contains(t, got, "Category: Unknown")
	// interpretation follows the last year, not the worst one
	assert.Contains(t, got, "Interpretation: Safe zone")
	assert.True(t, strings.HasSuffix(got, ExportHint))
}

func TestFormatResults_NoStageNoInterpretation(t *testing.T) {
	got := FormatResults(ResultSet{
		Location: "Goa",
		Years:    []dataservice.YearRecord{{Year: 2024}},
	})
	assert.NotContains(t, got, "Interpretation")
}
