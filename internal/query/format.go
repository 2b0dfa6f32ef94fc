package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dataservice"
)

const missing = "—"

// ExportHint closes every result report.
const ExportHint = `Export: type "export csv" or "export json" to save this data.`

// LocationText joins the summary levels with " › ", defaulting the state to
// "All states".
func LocationText(s dataservice.LocationSummary) string {
	state := s.State
	if state == "" {
		state = "All states"
	}
	parts := []string{state}
	if s.District != "" {
		parts = append(parts, s.District)
	}
	if s.Block != "" {
		parts = append(parts, s.Block)
	}
	return strings.Join(parts, " › ")
}

// FormatQuantity renders BCM figures: thousands as "1.2K", otherwise two
// decimals.
func FormatQuantity(q dataservice.Quantity) string {
	if !q.Valid {
		return missing
	}
	if q.Value >= 1000 {
		return strconv.FormatFloat(q.Value/1000, 'f', 1, 64) + "K"
	}
	return strconv.FormatFloat(q.Value, 'f', 2, 64)
}

func formatStage(q dataservice.Quantity) string {
	if !q.Valid {
		return missing
	}
	return strconv.FormatFloat(q.Value, 'f', -1, 64) + "%"
}

// Interpret maps a stage of extraction percentage to its band.
func Interpret(stage float64) string {
	switch {
	case stage < 70:
		return "Safe zone - good groundwater availability"
	case stage < 90:
		return "Semi-critical - moderate groundwater stress"
	case stage < 100:
		return "Critical - high groundwater stress"
	default:
		return "Over-exploited - severe groundwater depletion"
	}
}

// #region format
// FormatResults renders a result set as a chat report: one block per year,
// an interpretation of the last year's stage, and the export hint.
func FormatResults(rs ResultSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Groundwater data for %s\n\n", rs.Location)

	for _, y := range rs.Years {
		category := y.Categorization
		if category == "" {
			category = "Unknown"
		}
		fmt.Fprintf(&b, "%d\n", y.Year)
		fmt.Fprintf(&b, "   Annual extractable: %s BCM\n", FormatQuantity(y.AnnualExtractable))
		fmt.Fprintf(&b, "   Total extraction:   %s BCM\n", FormatQuantity(y.TotalExtraction))
		fmt.Fprintf(&b, "   Stage of extraction: %s\n", formatStage(y.StagePercent))
		fmt.Fprintf(&b, "   Category: %s\n\n", category)
	}

	if n := len(rs.Years); n > 0 && rs.Years[n-1].StagePercent.Valid {
		fmt.Fprintf(&b, "Interpretation: %s\n", Interpret(rs.Years[n-1].StagePercent.Value))
	}

	b.WriteString("\n")
	b.WriteString(ExportHint)
	return strings.TrimSpace(b.String())
}

// #endregion format
