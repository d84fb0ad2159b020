package core

import (
	"errors"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestHashShort(t *testing.T) {
	h := NewHash([]byte("abc"))
	if len(h.Short()) != 12 {
		t.Errorf("Expected 12 characters, got %q", h.Short())
	}
	if h != NewHash([]byte("abc")) {
		t.Error("Expected hashing to be deterministic")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		config bool
		degen  bool
		unav   bool
	}{
		{"index", NewIndexError("supplementary column", 3, 3), true, false, false},
		{"kind", NewColumnKindError("x", "categorical", "active continuous variable"), true, false, false},
		{"group", NewGroupError("g1", "empty"), true, false, false},
		{"generic", NewConfigurationError("bad %s", "thing"), true, false, false},
		{"degenerate", NewDegeneracyError("constant table"), false, true, false},
		{"rank", ErrZeroRank, false, true, false},
		{"unavailable", NewResultUnavailableError("supplementary individuals"), false, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsConfigurationError(tc.err); got != tc.config {
				t.Errorf("IsConfigurationError = %v, want %v", got, tc.config)
			}
			if got := IsDegeneracyError(tc.err); got != tc.degen {
				t.Errorf("IsDegeneracyError = %v, want %v", got, tc.degen)
			}
			if got := IsResultUnavailable(tc.err); got != tc.unav {
				t.Errorf("IsResultUnavailable = %v, want %v", got, tc.unav)
			}
		})
	}

	if !errors.Is(NewIndexError("row", 9, 4), ErrIndexOutOfRange) {
		t.Error("Expected index error to wrap ErrIndexOutOfRange")
	}
}
