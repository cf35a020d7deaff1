package catalog

import (
	"fmt"
	"strings"
)

// UnitType identifies a unit in the static catalog. The numeric order is the
// canonical order units are kept in inside combat states.
type UnitType uint8

const (
	UnitUnknown UnitType = iota
	Fighter
	GroundForce
	Destroyer
	Carrier
	Cruiser
	ShockTroop
	Mech
	Dreadnought
	WarSun
	Flagship
	PDS
)

var unitNames = map[UnitType]string{
	Fighter:     "fighter",
	GroundForce: "groundforce",
	Destroyer:   "destroyer",
	Carrier:     "carrier",
	Cruiser:     "cruiser",
	ShockTroop:  "shocktroop",
	Mech:        "mech",
	Dreadnought: "dreadnought",
	WarSun:      "warsun",
	Flagship:    "flagship",
	PDS:         "pds",
}

// UnitTypes lists every known unit type in canonical order.
func UnitTypes() []UnitType {
	return []UnitType{Fighter, GroundForce, Destroyer, Carrier, Cruiser, ShockTroop, Mech, Dreadnought, WarSun, Flagship, PDS}
}

func (t UnitType) String() string {
	if name, ok := unitNames[t]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether t is a known unit type.
func (t UnitType) Valid() bool {
	_, ok := unitNames[t]
	return ok
}

// ParseUnitType resolves a unit name, ignoring case and surrounding space.
func ParseUnitType(name string) (UnitType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for t, n := range unitNames {
		if n == key {
			return t, nil
		}
	}
	return UnitUnknown, fmt.Errorf("%w: %q", ErrUnknownUnitType, name)
}

func (t UnitType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUnitType, uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *UnitType) UnmarshalText(text []byte) error {
	parsed, err := ParseUnitType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t UnitType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

func (t *UnitType) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	return t.UnmarshalText([]byte(name))
}

// Ability is a special-stage roll grant such as bombardment or space cannon.
type Ability struct {
	Combat int `yaml:"combat" json:"combat"`
	Rolls  int `yaml:"rolls" json:"rolls"`
}

// Definition is the static, faction-independent description of a unit type.
type Definition struct {
	Type        UnitType `yaml:"type" json:"type"`
	Name        string   `yaml:"name" json:"name"`
	Priority    int      `yaml:"priority" json:"priority"`
	Combat      int      `yaml:"combat" json:"combat"`
	Rolls       int      `yaml:"rolls" json:"rolls"`
	Sustain     int      `yaml:"sustain" json:"sustain"`
	Ship        bool     `yaml:"ship" json:"ship"`
	GroundForce bool     `yaml:"ground_force" json:"ground_force"`
	Structure   bool     `yaml:"structure" json:"structure"`

	Bombardment        *Ability `yaml:"bombardment,omitempty" json:"bombardment,omitempty"`
	SpaceCannon        *Ability `yaml:"space_cannon,omitempty" json:"space_cannon,omitempty"`
	AntiFighterBarrage *Ability `yaml:"anti_fighter_barrage,omitempty" json:"anti_fighter_barrage,omitempty"`

	PlanetaryShield        int  `yaml:"planetary_shield" json:"planetary_shield"`
	IgnoresPlanetaryShield bool `yaml:"ignores_planetary_shield" json:"ignores_planetary_shield"`
}

func (d Definition) validate() error {
	if !d.Type.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownUnitType, uint8(d.Type))
	}
	if d.Combat < 0 || d.Combat > 10 {
		return fmt.Errorf("%s: %w: combat %d", d.Type, ErrInvalidDefinition, d.Combat)
	}
	if d.Rolls < 0 || d.Sustain < 0 || d.PlanetaryShield < 0 {
		return fmt.Errorf("%s: %w: negative count", d.Type, ErrInvalidDefinition)
	}
	if d.Combat == 0 && d.Rolls > 0 {
		return fmt.Errorf("%s: %w: rolls without combat value", d.Type, ErrInvalidDefinition)
	}
	for _, a := range []*Ability{d.Bombardment, d.SpaceCannon, d.AntiFighterBarrage} {
		if a == nil {
			continue
		}
		if a.Combat < 1 || a.Combat > 10 || a.Rolls < 1 {
			return fmt.Errorf("%s: %w: ability %+v", d.Type, ErrInvalidDefinition, *a)
		}
	}
	return nil
}
