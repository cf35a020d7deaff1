package combat

import (
	"fmt"
	"math"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
)

// Snapshot is the stage-specific view of a unit after every applicable tag
// has been applied. Snapshots are recomputed for every stage and never stored
// in a CombatState.
type Snapshot struct {
	// Unit is the unit this snapshot was derived from.
	Unit  UnitState
	Index int
	Type  catalog.UnitType

	// Combatant units roll dice in this stage.
	Combatant bool
	// Targetable units can be assigned hits in this combat.
	Targetable bool

	Combat int
	// Rolls is the number of standard rolls at Combat. NaN locks the unit
	// out of rolling for the rest of the snapshot pipeline.
	Rolls float64
	// ExtraRolls are single rolls with their own combat value.
	ExtraRolls []int
	Category   HitCategory
	CombatRoll bool
	// CombatOffset is added to every roll granted through Arm or
	// AddExtraRoll, including rolls granted by later hooks.
	CombatOffset int

	Sustain       int
	Shield        int
	IgnoresShield bool

	// Value ranks the unit as a hit target; a higher value is a worse unit.
	Value    int
	Priority int
}

// Disarmed reports whether the unit has been locked out of rolling.
func (s Snapshot) Disarmed() bool {
	return math.IsNaN(s.Rolls)
}

// RollCount is the number of standard rolls, zero when disarmed.
func (s Snapshot) RollCount() int {
	if s.Disarmed() || s.Rolls < 0 {
		return 0
	}
	return int(s.Rolls)
}

// Fires reports whether the unit rolls at least one die.
func (s Snapshot) Fires() bool {
	return s.Combatant && (s.RollCount() > 0 || len(s.ExtraRolls) > 0)
}

// AddRolls adds n standard rolls unless the unit is disarmed.
func (s *Snapshot) AddRolls(n int) {
	if s.Disarmed() {
		return
	}
	s.Rolls += float64(n)
	if s.Rolls < 0 {
		s.Rolls = 0
	}
}

// AddExtraRoll grants a single roll at value plus CombatOffset unless the
// unit is disarmed.
func (s *Snapshot) AddExtraRoll(value int) {
	if s.Disarmed() {
		return
	}
	s.Combatant = true
	s.ExtraRolls = append(append([]int(nil), s.ExtraRolls...), value+s.CombatOffset)
}

// AddRepeatRoll grants a single roll at the unit's current combat value,
// which already carries CombatOffset.
func (s *Snapshot) AddRepeatRoll() {
	if s.Disarmed() {
		return
	}
	s.Combatant = true
	s.ExtraRolls = append(append([]int(nil), s.ExtraRolls...), s.Combat)
}

// Arm replaces the unit's standard rolls with rolls dice at combat plus
// CombatOffset unless the unit is disarmed.
func (s *Snapshot) Arm(combat, rolls int) {
	if s.Disarmed() {
		return
	}
	s.Combatant = true
	s.Combat = combat + s.CombatOffset
	s.Rolls = float64(rolls)
}

// Disarm removes every roll and blocks later hooks from adding any.
func (s *Snapshot) Disarm() {
	s.Rolls = math.NaN()
	s.ExtraRolls = nil
}

// ModifyCombat shifts the combat value of every roll the unit makes.
// A negative delta is an improvement.
func (s *Snapshot) ModifyCombat(delta int) {
	s.Combat += delta
	if len(s.ExtraRolls) == 0 {
		return
	}
	extra := make([]int, len(s.ExtraRolls))
	for i, v := range s.ExtraRolls {
		extra[i] = v + delta
	}
	s.ExtraRolls = extra
}

// RemainingSustain is how many more hits the unit can absorb.
func (s Snapshot) RemainingSustain() int {
	if r := s.Sustain - s.Unit.Sustained; r > 0 {
		return r
	}
	return 0
}

func (s Snapshot) clone() Snapshot {
	s.ExtraRolls = append([]int(nil), s.ExtraRolls...)
	return s
}

func cloneSnapshots(in []Snapshot) []Snapshot {
	if in == nil {
		return nil
	}
	out := make([]Snapshot, len(in))
	for i, s := range in {
		out[i] = s.clone()
	}
	return out
}

func baseSnapshot(def catalog.Definition, u UnitState, index int, stage Stage, ct CombatType, side Side) Snapshot {
	s := Snapshot{
		Unit:          u,
		Index:         index,
		Type:          u.Type,
		Targetable:    (ct == SpaceCombat && def.Ship) || (ct == GroundCombat && def.GroundForce),
		Category:      HitStandard,
		Sustain:       def.Sustain,
		Shield:        def.PlanetaryShield,
		IgnoresShield: def.IgnoresPlanetaryShield,
		Value:         def.Combat,
		Priority:      def.Priority,
	}
	if !stage.Fires(side) {
		return s
	}

	var ability *catalog.Ability
	switch stage {
	case StagePreCombat, StagePDSDefense:
		ability = def.SpaceCannon
	case StageAntiFighterBarrage:
		ability = def.AntiFighterBarrage
		s.Category = HitFighter
	case StageBombardment:
		ability = def.Bombardment
	case StageSpaceCombat, StageGroundCombat:
		if s.Targetable && def.Combat > 0 {
			s.Combatant = true
			s.Combat = def.Combat
			s.Rolls = float64(def.Rolls)
			s.CombatRoll = true
		}
	}
	if ability != nil {
		s.Combatant = true
		s.Combat = ability.Combat
		s.Rolls = float64(ability.Rolls)
	}
	return s
}

func (c *computation) hookContext(state CombatState, side Side, value string) HookContext {
	return HookContext{
		Stage:           state.Stage,
		CombatType:      c.input.CombatType,
		Side:            side,
		Faction:         c.input.Participant(side).Faction,
		OpponentFaction: c.input.Participant(side.Opponent()).Faction,
		Value:           value,
		Own:             state.Sides[side],
		Opponent:        state.Sides[side.Opponent()],
		Catalog:         c.engine.catalog,
	}
}

func hookErr(kind string, id catalog.TagID, stage Stage, err error) error {
	return fmt.Errorf("%s hook %s at %s: %w", kind, id, stage, err)
}

// snapshots runs the snapshot pipeline for both sides of state: unit tags,
// then each side's own tags, then opponent-directed tags, then stage rules.
func (c *computation) snapshots(state CombatState) ([2][]Snapshot, error) {
	var out [2][]Snapshot
	reg := c.engine.registry
	for _, side := range Sides {
		p := state.Sides[side]
		snaps := make([]Snapshot, len(p.Units))
		for i, u := range p.Units {
			s := baseSnapshot(c.defs[side][u.Type], u, i, state.Stage, c.input.CombatType, side)
			for _, e := range reg.active(u.Tags) {
				h, ok := e.(UnitSnapshotHook)
				if !ok {
					continue
				}
				value, _ := u.Tags.Get(e.ID())
				next, err := h.ComputeUnitSnapshot(c.hookContext(state, side, value), s.clone(), value)
				if err != nil {
					return out, hookErr("unit snapshot", e.ID(), state.Stage, err)
				}
				s = next
			}
			snaps[i] = s
		}
		for _, e := range reg.active(p.Tags) {
			h, ok := e.(SnapshotHook)
			if !ok {
				continue
			}
			value, _ := p.Tags.Get(e.ID())
			next, err := h.ComputeSnapshots(c.hookContext(state, side, value), cloneSnapshots(snaps))
			if err != nil {
				return out, hookErr("snapshot", e.ID(), state.Stage, err)
			}
			snaps = next
		}
		out[side] = snaps
	}

	for _, side := range Sides {
		p := state.Sides[side]
		opp := side.Opponent()
		for _, e := range reg.active(p.Tags) {
			h, ok := e.(OpponentSnapshotHook)
			if !ok {
				continue
			}
			value, _ := p.Tags.Get(e.ID())
			next, err := h.ComputeOpponentSnapshots(c.hookContext(state, side, value), cloneSnapshots(out[opp]))
			if err != nil {
				return out, hookErr("opponent snapshot", e.ID(), state.Stage, err)
			}
			out[opp] = next
		}
	}

	applyPlanetaryShield(state.Stage, &out)

	for _, side := range Sides {
		for i := range out[side] {
			s := &out[side][i]
			if s.Disarmed() {
				s.Rolls = 0
				s.ExtraRolls = nil
			}
		}
	}
	return out, nil
}

// applyPlanetaryShield stops bombardment against a defender with a shield,
// except from units that ignore it.
func applyPlanetaryShield(stage Stage, snaps *[2][]Snapshot) {
	if stage != StageBombardment {
		return
	}
	shield := 0
	for _, s := range snaps[Defender] {
		shield += s.Shield
	}
	if shield == 0 {
		return
	}
	for i := range snaps[Attacker] {
		if !snaps[Attacker][i].IgnoresShield {
			snaps[Attacker][i].Disarm()
		}
	}
}
