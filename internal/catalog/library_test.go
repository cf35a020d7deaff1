package catalog

import (
	"errors"
	"testing"
)

func TestDefaultLoadsEveryUnit(t *testing.T) {
	c := Default()
	for _, ut := range UnitTypes() {
		d, ok := c.Unit(ut)
		if !ok {
			t.Fatalf("unit %s missing", ut)
		}
		if d.Type != ut {
			t.Fatalf("unit %s stored under %s", d.Type, ut)
		}
	}
	if got := len(c.Units()); got != len(UnitTypes()) {
		t.Fatalf("expected %d units, got %d", len(UnitTypes()), got)
	}
}

func TestDefaultIsShared(t *testing.T) {
	if Default() != Default() {
		t.Fatal("expected the default catalog to be loaded once")
	}
}

func TestUnitForAppliesFlagshipOverride(t *testing.T) {
	c := Default()
	d, err := c.UnitFor("naalu", Flagship)
	if err != nil {
		t.Fatalf("UnitFor: %v", err)
	}
	if d.Combat != 9 || d.Rolls != 2 {
		t.Fatalf("expected naalu flagship 9x2, got %dx%d", d.Combat, d.Rolls)
	}

	d, err = c.UnitFor("naalu", Cruiser)
	if err != nil {
		t.Fatalf("UnitFor: %v", err)
	}
	base, _ := c.Unit(Cruiser)
	if d != base {
		t.Fatalf("expected cruiser to match base definition, got %+v", d)
	}
}

func TestUnitForUnknownFaction(t *testing.T) {
	_, err := Default().UnitFor("nobody", Fighter)
	if !errors.Is(err, ErrUnknownFaction) {
		t.Fatalf("expected ErrUnknownFaction, got %v", err)
	}
}

func TestParseUnitType(t *testing.T) {
	tcs := []struct {
		in   string
		want UnitType
	}{
		{"fighter", Fighter},
		{" WarSun ", WarSun},
		{"PDS", PDS},
		{"groundforce", GroundForce},
	}
	for _, tc := range tcs {
		got, err := ParseUnitType(tc.in)
		if err != nil {
			t.Fatalf("ParseUnitType(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseUnitType(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
	if _, err := ParseUnitType("battlecruiser"); !errors.Is(err, ErrUnknownUnitType) {
		t.Fatalf("expected ErrUnknownUnitType, got %v", err)
	}
}

func TestTagsAreScoped(t *testing.T) {
	c := Default()
	admiral, ok := c.Tag(Admiral)
	if !ok || admiral.Scope != ScopeUnit {
		t.Fatalf("expected admiral to be unit scoped, got %+v", admiral)
	}
	nebula, ok := c.Tag(Nebula)
	if !ok || nebula.Scope != ScopeParticipant {
		t.Fatalf("expected nebula to be participant scoped, got %+v", nebula)
	}
	if _, ok := c.Tag("warp_drive"); ok {
		t.Fatal("expected unknown tag lookup to fail")
	}
}

func TestLoadRejectsInvalidTables(t *testing.T) {
	units := []byte(`
units:
  - type: fighter
    combat: 11
    rolls: 1
`)
	if _, err := Load(units, nil, nil); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}

	if _, err := Load([]byte("units: [{type: ironclad}]"), nil, nil); err == nil {
		t.Fatal("expected unknown unit type to fail")
	}

	if _, err := Load([]byte("units:\n  - type: fighter\n    speed: 3\n"), nil, nil); err == nil {
		t.Fatal("expected unknown field to fail strict parsing")
	}
}

func TestLoadRequiresEveryUnit(t *testing.T) {
	units := []byte(`
units:
  - type: fighter
    combat: 9
    rolls: 1
    ship: true
`)
	if _, err := Load(units, nil, nil); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected missing units to be rejected, got %v", err)
	}
}
