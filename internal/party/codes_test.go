package party

import (
	"strings"
	"testing"
)

func TestNewRoomCode(t *testing.T) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := newRoomCode()
		if len(code) != 6 {
			t.Fatalf("len(%q) = %d, want 6", code, len(code))
		}
		for _, c := range code {
			if !strings.ContainsRune(alphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
		seen[code] = true
	}
	// 100 draws from a 32^6 space colliding down to a handful would mean
	// the generator is broken.
	if len(seen) < 90 {
		t.Fatalf("only %d distinct codes in 100 draws", len(seen))
	}
}
