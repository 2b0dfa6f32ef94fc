package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dataservice"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/devservice"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dialog"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/slots"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a scripted conversation.
type Fixture struct {
	Description string `json:"description"`
	KnownYears  []int  `json:"known_years,omitempty"`
	Scorer      string `json:"scorer,omitempty"`
	// Dataset defaults to the bundled sample when omitted.
	Dataset *devservice.Dataset `json:"dataset,omitempty"`
	// ServiceFailure makes every query fail: "transport", "not_found" or "server".
	ServiceFailure string        `json:"service_failure,omitempty"`
	Turns          []FixtureTurn `json:"turns"`
}

// FixtureTurn is either a typed utterance or an assisted selection.
type FixtureTurn struct {
	TurnID string            `json:"turn_id"`
	Input  string            `json:"input,omitempty"`
	Assist *FixtureSelection `json:"assist,omitempty"`
	Expect FixtureExpect     `json:"expect"`
}

// FixtureSelection mirrors dialog.Selection with JSON tags.
type FixtureSelection struct {
	State    string               `json:"state"`
	District string               `json:"district,omitempty"`
	Block    string               `json:"block,omitempty"`
	Years    *slots.YearSelection `json:"years,omitempty"`
}

// FixtureExpect lists what to check after a turn. Unset fields are not
// checked, except State which is always compared.
type FixtureExpect struct {
	State    string                    `json:"state"`
	Slots    *dialog.Slots             `json:"slots,omitempty"`
	Contains []string                  `json:"contains,omitempty"`
	Query    *dataservice.QueryRequest `json:"query,omitempty"`
	NoQuery  bool                      `json:"no_query,omitempty"`
	Outcome  string                    `json:"outcome,omitempty"`
	Invalid  string                    `json:"invalid,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks the fixture is runnable.
func (f *Fixture) Validate() error {
	if len(f.Turns) == 0 {
		return fmt.Errorf("no turns")
	}
	switch f.ServiceFailure {
	case "", "transport", "not_found", "server":
	default:
		return fmt.Errorf("unknown service_failure %q", f.ServiceFailure)
	}
	for i, t := range f.Turns {
		if (t.Input == "") == (t.Assist == nil) {
			return fmt.Errorf("turn %d (%s): exactly one of input or assist is required", i, t.TurnID)
		}
		if _, err := dialog.ParseState(t.Expect.State); err != nil {
			return fmt.Errorf("turn %d (%s): %w", i, t.TurnID, err)
		}
	}
	return nil
}

// ToSelection converts a FixtureSelection to a dialog.Selection.
func (fs *FixtureSelection) ToSelection() dialog.Selection {
	return dialog.Selection{
		State:    fs.State,
		District: fs.District,
		Block:    fs.Block,
		Years:    fs.Years,
	}
}

// #endregion fixture-loader
