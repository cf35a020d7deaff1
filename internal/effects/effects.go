// Package effects implements the combat tags of the catalog as hooks of the
// combat engine.
package effects

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/combat"
)

var (
	ErrNotInteger = errors.New("settings must be an integer")
	ErrOutOfRange = errors.New("settings out of range")
)

// Default returns a registry with every catalog tag: implemented tags in
// the order their hooks run, followed by the inert ones.
func Default() *combat.Registry {
	return combat.NewRegistry().
		Register(
			// unit tags
			admiral{},
			combatModifier{},

			// combat value modifiers
			hylarVAssaultLaser{},
			fighterBonus{id: catalog.AdvancedFighters},
			fighterBonus{id: catalog.Cybernetics},
			sardakkUnrelenting{},
			jolnarFragile{},
			general{},
			nebula{},
			moraleBoost{},

			// pre-combat and barrage abilities
			automatedDefenseTurrets{},
			assaultCannon{},
			mentakAmbush{},
			gravitonLaserSystem{},
			plasmaScoring{},
			maneuveringJets{},
			disable{},

			// hit rewriting
			fireTeam{},
			valkyrieParticleWeave{},
			shieldsHolding{},
		).
		Inert(
			catalog.DeepSpaceCannon,
			catalog.DuraniumArmor,
			catalog.MagenDefenseGrid,
			catalog.X89BacterialWeapon,
			catalog.DirectHit,
		)
}

// intCodec is the settings codec of tags configured with one integer.
type intCodec struct {
	def      int
	min, max int
}

func (c intCodec) DefaultSettings() string {
	return strconv.Itoa(c.def)
}

func (c intCodec) DecodeSettings(value string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotInteger, value)
	}
	if n < c.min || n > c.max {
		return nil, fmt.Errorf("%w: %d not in %d..%d", ErrOutOfRange, n, c.min, c.max)
	}
	return n, nil
}

func (c intCodec) EncodeSettings(settings any) (string, error) {
	n, ok := settings.(int)
	if !ok {
		return "", fmt.Errorf("%w: %T", ErrNotInteger, settings)
	}
	return strconv.Itoa(n), nil
}

// intValue decodes a value normalized by intCodec. Values are normalized at
// input, so a parse failure means zero.
func intValue(value string) int {
	n, _ := strconv.Atoi(value)
	return n
}

// usesCodec counts the remaining uses of a one-time action.
var usesCodec = intCodec{def: 1, min: 0, max: 10}

// consume records that one use of id was spent.
func consume(tags combat.TagState, id catalog.TagID, uses int) combat.TagState {
	if uses <= 1 {
		return tags.Without(id)
	}
	return tags.With(id, strconv.Itoa(uses-1))
}

// modifyRolls shifts the combat value of every combat-roll snapshot that
// match accepts.
func modifyRolls(snaps []combat.Snapshot, delta int, match func(combat.Snapshot) bool) []combat.Snapshot {
	for i := range snaps {
		s := &snaps[i]
		if s.Combatant && s.CombatRoll && (match == nil || match(*s)) {
			s.ModifyCombat(delta)
		}
	}
	return snaps
}

func isType(types ...catalog.UnitType) func(combat.Snapshot) bool {
	return func(s combat.Snapshot) bool {
		for _, t := range types {
			if s.Type == t {
				return true
			}
		}
		return false
	}
}
