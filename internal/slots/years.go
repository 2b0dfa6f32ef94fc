package slots

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// DefaultKnownYears are the assessment years the data service publishes.
var DefaultKnownYears = []int{2023, 2024}

// #region selection
// YearSelection is either the "latest available" marker or an explicit,
// ascending, de-duplicated set of years. The zero value is an explicit
// selection with no years.
type YearSelection struct {
	latest bool
	years  []int
}

// Latest asks the data service for its most recent assessment.
func Latest() YearSelection {
	return YearSelection{latest: true}
}

// Explicit builds a selection from the given years.
func Explicit(years ...int) YearSelection {
	out := slices.Clone(years)
	slices.Sort(out)
	return YearSelection{years: slices.Compact(out)}
}

// IsLatest reports whether this is the latest-available marker.
func (y YearSelection) IsLatest() bool { return y.latest }

// Years returns a copy of the explicit years (nil for Latest).
func (y YearSelection) Years() []int {
	if y.latest {
		return nil
	}
	return slices.Clone(y.years)
}

// Empty reports an explicit selection holding no years.
func (y YearSelection) Empty() bool { return !y.latest && len(y.years) == 0 }

// Payload renders the selection for the data service: an empty list means
// "latest available" on the wire.
func (y YearSelection) Payload() []int {
	if y.latest {
		return []int{}
	}
	return slices.Clone(y.years)
}

func (y YearSelection) String() string {
	if y.latest {
		return "latest"
	}
	parts := make([]string, len(y.years))
	for i, yr := range y.years {
		parts[i] = strconv.Itoa(yr)
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON encodes Latest as "latest" and explicit selections as a list.
func (y YearSelection) MarshalJSON() ([]byte, error) {
	if y.latest {
		return json.Marshal("latest")
	}
	return json.Marshal(y.Payload())
}

// UnmarshalJSON accepts "latest" or a list of years.
func (y *YearSelection) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "latest" {
			return fmt.Errorf("year selection: unknown marker %q", s)
		}
		*y = Latest()
		return nil
	}
	var years []int
	if err := json.Unmarshal(data, &years); err != nil {
		return fmt.Errorf("year selection: %w", err)
	}
	*y = Explicit(years...)
	return nil
}

// #endregion selection

// #region parser
var latestKeywords = []string{"latest", "newest", "most recent"}

var everyYearWords = map[string]bool{"both": true, "all": true}

// YearParser extracts a year selection from free text.
type YearParser struct {
	known []int
}

// NewYearParser returns a parser over the given known years; an empty list
// falls back to DefaultKnownYears.
func NewYearParser(known []int) YearParser {
	if len(known) == 0 {
		known = DefaultKnownYears
	}
	k := slices.Clone(known)
	slices.Sort(k)
	return YearParser{known: slices.Compact(k)}
}

// Known returns the years this parser recognizes.
func (p YearParser) Known() []int { return slices.Clone(p.known) }

// Parse returns the selection found in text and whether any signal was
// present. Precedence: a latest keyword, then "both"/"all" (whole words)
// meaning every known year, then any known year literals.
func (p YearParser) Parse(text string) (YearSelection, bool) {
	lower := strings.ToLower(text)

	for _, kw := range latestKeywords {
		if strings.Contains(lower, kw) {
			return Latest(), true
		}
	}

	for _, w := range words(lower) {
		if everyYearWords[w] {
			return Explicit(p.known...), true
		}
	}

	var found []int
	for _, yr := range p.known {
		if strings.Contains(lower, strconv.Itoa(yr)) {
			found = append(found, yr)
		}
	}
	if len(found) == 0 {
		return YearSelection{}, false
	}
	return Explicit(found...), true
}

// ParseYears runs the default parser.
func ParseYears(text string) (YearSelection, bool) {
	return NewYearParser(nil).Parse(text)
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

// #endregion parser
