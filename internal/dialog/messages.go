package dialog

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	msgStart           = "Hi! I can look up groundwater assessments. Which state would you like to explore?"
	msgInvalidState    = "I couldn't find that state. Did you mean:"
	msgInvalidDistrict = "I couldn't find that district. Did you mean:"
	msgAskDistrict     = "Which district? (or say 'state level')"
	msgDone            = `Anything else? Name another state to start a new query, or type "export csv" / "export json".`
	msgLookupFailed    = "Unable to load locations right now. Please check your connection and try again."

	msgNoExport     = "No data available to export. Please run a query first."
	msgExportFailed = "Failed to export data. Please try again."

	msgPickState       = "Please pick a state from the list."
	msgPickDistrict    = "Pick a district from the list."
	msgDistrictFirst   = "Select a district before choosing a block."
	msgPickBlock       = "Pick a block from the list."
	msgPickYears       = "Select at least one year."
	msgAssistSuggested = "Try:"
)

func withSuggestions(prefix string, suggestions []string) string {
	if len(suggestions) == 0 {
		return prefix
	}
	return fmt.Sprintf("%s %s.", prefix, strings.Join(suggestions, ", "))
}

func confirmState(state string) string {
	return fmt.Sprintf("Got it: %s. %s", state, msgAskDistrict)
}

func askYear(known []int) string {
	years := make([]string, len(known))
	for i, y := range known {
		years[i] = strconv.Itoa(y)
	}
	return fmt.Sprintf(`Which assessment year? Say %s, "both" or "latest".`, strings.Join(years, ", "))
}

func exported(format, path string) string {
	return fmt.Sprintf("%s file saved to %s", strings.ToUpper(format), path)
}
