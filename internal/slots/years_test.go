package slots

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestParseYears(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantOK     bool
		wantLatest bool
		wantYears  []int
	}{
		// Latest marker
		{"latest-plain", "latest please", true, true, nil},
		{"latest-wins-over-years", "latest, not 2023", true, true, nil},
		{"latest-most-recent", "the most recent one", true, true, nil},

		// Every known year
		{"both", "show me both 2023 data", true, false, []int{2023, 2024}},
		{"all", "All years", true, false, []int{2023, 2024}},
		{"all-inside-word", "ballia 2023", true, false, []int{2023}},
		{"all-inside-overall", "overall 2023", true, false, []int{2023}},
		{"both-inside-word", "bothered about 2024", true, false, []int{2024}},
		{"all-punctuated", "2023? no, all.", true, false, []int{2023, 2024}},

		// Literals
		{"single", "2024 data", true, false, []int{2024}},
		{"two-unordered", "2024 and 2023", true, false, []int{2023, 2024}},
		{"repeated", "2023 2023", true, false, []int{2023}},
		{"unknown-year", "2019", false, false, nil},

		// Nothing
		{"no-idea", "no idea", false, false, nil},
		{"empty", "", false, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, ok := ParseYears(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseYears(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if sel.IsLatest() != tt.wantLatest {
				t.Errorf("IsLatest() = %v, want %v", sel.IsLatest(), tt.wantLatest)
			}
			if !slices.Equal(sel.Years(), tt.wantYears) {
				t.Errorf("Years() = %v, want %v", sel.Years(), tt.wantYears)
			}
		})
	}
}

func TestYearParser_CustomKnownYears(t *testing.T) {
	p := NewYearParser([]int{2025, 2022, 2025})
	if got := p.Known(); !slices.Equal(got, []int{2022, 2025}) {
		t.Fatalf("Known() = %v", got)
	}
	sel, ok := p.Parse("both")
	if !ok || !slices.Equal(sel.Years(), []int{2022, 2025}) {
		t.Errorf("Parse(both) = %v, %v", sel, ok)
	}
	if _, ok := p.Parse("2024"); ok {
		t.Error("2024 is not a known year for this parser")
	}
}

func TestYearSelection_Payload(t *testing.T) {
	if got := Latest().Payload(); got == nil || len(got) != 0 {
		t.Errorf("Latest().Payload() = %#v, want empty non-nil", got)
	}
	if got := Explicit(2024, 2023).Payload(); !slices.Equal(got, []int{2023, 2024}) {
		t.Errorf("Explicit payload = %v", got)
	}
	if !Explicit().Empty() {
		t.Error("Explicit() should be empty")
	}
	if Latest().Empty() {
		t.Error("Latest() is not empty")
	}
}

func TestYearSelection_JSON(t *testing.T) {
	for _, sel := range []YearSelection{Latest(), Explicit(2023, 2024)} {
		data, err := json.Marshal(sel)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var back YearSelection
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back.String() != sel.String() {
			t.Errorf("round trip %s: got %q want %q", data, back, sel)
		}
	}
	var bad YearSelection
	if err := json.Unmarshal([]byte(`"soon"`), &bad); err == nil {
		t.Error("expected error for unknown marker")
	}
}
