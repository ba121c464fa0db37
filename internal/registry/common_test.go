package registry

import "testing"

func TestNamesMatch(t *testing.T) {
	if !NamesMatch("Gameplay_Abilities", "gameplay-abilities") {
		t.Error("expected normalized names to match")
	}
	if NamesMatch("Gameplay", "CoreUtils") {
		t.Error("expected unrelated names not to match")
	}
}

func TestNormalizeName(t *testing.T) {
	if got := NormalizeName("Gameplay_Abilities"); got != "gameplay-abilities" {
		t.Errorf("NormalizeName() = %q, want %q", got, "gameplay-abilities")
	}
}
