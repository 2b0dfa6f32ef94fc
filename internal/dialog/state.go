package dialog

import (
	"fmt"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/slots"
)

// State is the dialog position. ConfirmAndQuery and Done are transient:
// a completed Step never leaves the conversation in either.
type State int

const (
	StateAskState State = iota
	StateAskDistrictOrLevel
	StateAskYear
	StateConfirmAndQuery
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAskState:
		return "ASK_STATE"
	case StateAskDistrictOrLevel:
		return "ASK_DISTRICT_OR_LEVEL"
	case StateAskYear:
		return "ASK_YEAR"
	case StateConfirmAndQuery:
		return "CONFIRM_AND_QUERY"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ParseState is the inverse of String.
func ParseState(name string) (State, error) {
	for s := StateAskState; s <= StateDone; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown dialog state %q", name)
}

// Slots holds what has been resolved so far. Empty strings are unset;
// a nil Years means the user has not said anything about years yet.
type Slots struct {
	State    string               `json:"state,omitempty"`
	District string               `json:"district,omitempty"`
	Block    string               `json:"block,omitempty"`
	Years    *slots.YearSelection `json:"years,omitempty"`
}

// Conversation is the full dialog value passed into and out of a Step.
type Conversation struct {
	Current State `json:"current"`
	Slots   Slots `json:"slots"`
}

// NewConversation is the reset value.
func NewConversation() Conversation {
	return Conversation{Current: StateAskState}
}
