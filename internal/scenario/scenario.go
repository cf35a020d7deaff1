// Package scenario reads battle files: the two fleets or armies of a combat
// described in YAML (or JSON), with unit counts instead of one entry per unit.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/combat"
)

// Unit is a group of identical units.
type Unit struct {
	Type catalog.UnitType `yaml:"type" json:"type"`
	// Count defaults to 1.
	Count     *int                             `yaml:"count,omitempty" json:"count,omitempty"`
	Sustained int                              `yaml:"sustained,omitempty" json:"sustained,omitempty"`
	Tags      map[catalog.TagID]combat.Setting `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Side is one participant of a battle.
type Side struct {
	Faction catalog.FactionID                `yaml:"faction" json:"faction"`
	Units   []Unit                           `yaml:"units" json:"units"`
	Tags    map[catalog.TagID]combat.Setting `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// File is a battle scenario.
type File struct {
	Name       string            `yaml:"name,omitempty" json:"name,omitempty"`
	CombatType combat.CombatType `yaml:"combat_type" json:"combat_type"`
	Attacker   Side              `yaml:"attacker" json:"attacker"`
	Defender   Side              `yaml:"defender" json:"defender"`

	// Source is the path the scenario was loaded from.
	Source string `yaml:"-" json:"-"`
}

// Parse decodes a scenario. Unknown fields are rejected.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return File{}, fmt.Errorf("parse scenario: %w", err)
	}
	return f, nil
}

// Load reads and decodes the scenario at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	f.Source = path
	if f.Name == "" {
		f.Name = path
	}
	return f, nil
}

// Input expands unit counts into the engine input.
func (f File) Input() (combat.CalculationInput, error) {
	in := combat.CalculationInput{CombatType: f.CombatType}
	var err error
	if in.Attacker, err = f.Attacker.participant(combat.Attacker.String()); err != nil {
		return combat.CalculationInput{}, err
	}
	if in.Defender, err = f.Defender.participant(combat.Defender.String()); err != nil {
		return combat.CalculationInput{}, err
	}
	return in, nil
}

func (s Side) participant(field string) (combat.ParticipantInput, error) {
	p := combat.ParticipantInput{Faction: s.Faction, Tags: s.Tags}
	for i, u := range s.Units {
		n := 1
		if u.Count != nil {
			n = *u.Count
		}
		if n < 0 {
			return combat.ParticipantInput{}, &combat.InputError{
				Field: fmt.Sprintf("%s.units[%d].count", field, i),
				Err:   combat.ErrNegativeCount,
			}
		}
		for ; n > 0; n-- {
			p.Units = append(p.Units, combat.UnitInput{Type: u.Type, Sustained: u.Sustained, Tags: u.Tags})
		}
	}
	return p, nil
}
