package ident

import (
	"testing"
)

func TestNewRoomID(t *testing.T) {
	id := NewRoomID()
	if err := ValidateRoomID(id); err != nil {
		t.Errorf("generated room id failed validation: %v", err)
	}
}

func TestNewRoomIDUnique(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRoomID()
		if ids[id] {
			t.Errorf("duplicate room id generated: %s", id)
		}
		ids[id] = true
	}
}

type seqSource struct{ next int }

func (s *seqSource) Intn(n int) int {
	v := s.next % n
	s.next++
	return v
}

func TestNewRoomIDDeterministic(t *testing.T) {
	g := NewGenerator(&seqSource{})
	id := g.NewRoomID()
	if id != "012345" {
		t.Errorf("expected 012345 from sequential source, got %s", id)
	}
	if err := ValidateRoomID(id); err != nil {
		t.Errorf("deterministic id failed validation: %v", err)
	}
}

func TestNewPlayerID(t *testing.T) {
	id := NewPlayerID()
	if len(id) != 12 {
		t.Errorf("expected 12 characters, got %d (%s)", len(id), id)
	}
	for _, c := range id {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Errorf("player id %s contains non-hex character %c", id, c)
		}
	}
}

func TestNewRandIsReproducible(t *testing.T) {
	a, b := NewRand(42), NewRand(42)
	for i := 0; i < 16; i++ {
		if x, y := a.IntN(1000), b.IntN(1000); x != y {
			t.Fatalf("same seed diverged at draw %d: %d vs %d", i, x, y)
		}
	}
	if NewRand(1).Uint64() == NewRand(2).Uint64() {
		t.Error("different seeds produced the same first draw")
	}
}

func TestValidateRoomID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"A1B2C3", false},
		{"000000", false},
		{"a1b2c3", true}, // lowercase not allowed
		{"A1B2C", true},
		{"A1B2C3D", true},
		{"A1B2G3", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateRoomID(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateRoomID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
		}
	}
}
