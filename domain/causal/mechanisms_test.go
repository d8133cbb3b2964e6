package causal

import (
	"testing"
)

// TestLoadMechanisms verifies the embedded table parses and is populated
func TestLoadMechanisms(t *testing.T) {
	mechanisms, err := LoadMechanisms()
	if err != nil {
		t.Fatalf("Failed to load mechanism table: %v", err)
	}

	if len(mechanisms) < 5 {
		t.Errorf("Expected a populated mechanism table, got %d entries", len(mechanisms))
	}

	for i, m := range mechanisms {
		if m.Driver == "" || m.Response == "" || m.Mechanism == "" {
			t.Errorf("Entry %d has empty fields: %+v", i, m)
		}
		if m.ExpectedDirection != DirectionPositive && m.ExpectedDirection != DirectionNegative {
			t.Errorf("Entry %d has invalid direction %q", i, m.ExpectedDirection)
		}
		if m.TypicalLag < 0 {
			t.Errorf("Entry %d has negative typical lag %d", i, m.TypicalLag)
		}
	}
}

// TestFindMechanism_SubstringMatch verifies case-insensitive name matching
func TestFindMechanism_SubstringMatch(t *testing.T) {
	mechanisms := MustLoadMechanisms()

	m, found := FindMechanism(mechanisms, "Sea Surface Temperature (SST)", "Coastal Fish Abundance")
	if !found {
		t.Fatal("Expected temperature->fish mechanism to match")
	}
	if m.Driver != "temperature" || m.Response != "fish" {
		t.Errorf("Matched wrong entry: %s -> %s", m.Driver, m.Response)
	}

	_, found = FindMechanism(mechanisms, "Wave Height", "Tourism Revenue")
	if found {
		t.Error("Expected no mechanism for unrelated names")
	}
}

// TestFindMechanism_FirstEntryWins verifies deterministic lookup order
func TestFindMechanism_FirstEntryWins(t *testing.T) {
	table := []KnownMechanism{
		{Driver: "temp", Response: "fish", Mechanism: "first"},
		{Driver: "temperature", Response: "fish", Mechanism: "second"},
	}

	m, found := FindMechanism(table, "temperature", "fish abundance")
	if !found {
		t.Fatal("Expected a match")
	}
	if m.Mechanism != "first" {
		t.Errorf("Expected first matching entry, got %q", m.Mechanism)
	}
}
