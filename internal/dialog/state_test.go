package dialog

import "testing"

func TestStateNames(t *testing.T) {
	for s := StateAskState; s <= StateDone; s++ {
		got, err := ParseState(s.String())
		if err != nil {
			t.Fatalf("ParseState(%q): %v", s, err)
		}
		if got != s {
			t.Errorf("ParseState(%q) = %v", s, got)
		}
	}
	if _, err := ParseState("WAITING"); err == nil {
		t.Error("expected error for unknown state")
	}
}
