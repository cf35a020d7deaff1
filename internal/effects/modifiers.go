package effects

import (
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/combat"
)

type hylarVAssaultLaser struct{}

func (hylarVAssaultLaser) ID() catalog.TagID { return catalog.HylarVAssaultLaser }

func (hylarVAssaultLaser) ComputeSnapshots(ctx combat.HookContext, snaps []combat.Snapshot) ([]combat.Snapshot, error) {
	if ctx.Stage != combat.StageSpaceCombat {
		return snaps, nil
	}
	return modifyRolls(snaps, -1, isType(catalog.Cruiser, catalog.Destroyer)), nil
}

// fighterBonus improves fighters in space combat rounds.
type fighterBonus struct {
	id catalog.TagID
}

func (f fighterBonus) ID() catalog.TagID { return f.id }

func (fighterBonus) ComputeSnapshots(ctx combat.HookContext, snaps []combat.Snapshot) ([]combat.Snapshot, error) {
	if ctx.Stage != combat.StageSpaceCombat {
		return snaps, nil
	}
	return modifyRolls(snaps, -1, isType(catalog.Fighter)), nil
}

type sardakkUnrelenting struct{}

func (sardakkUnrelenting) ID() catalog.TagID { return catalog.SardakkUnrelenting }

func (sardakkUnrelenting) ComputeSnapshots(_ combat.HookContext, snaps []combat.Snapshot) ([]combat.Snapshot, error) {
	return modifyRolls(snaps, -1, nil), nil
}

type jolnarFragile struct{}

func (jolnarFragile) ID() catalog.TagID { return catalog.JolNarFragile }

func (jolnarFragile) ComputeSnapshots(_ combat.HookContext, snaps []combat.Snapshot) ([]combat.Snapshot, error) {
	return modifyRolls(snaps, 1, nil), nil
}

type general struct{}

func (general) ID() catalog.TagID { return catalog.General }

func (general) ComputeSnapshots(ctx combat.HookContext, snaps []combat.Snapshot) ([]combat.Snapshot, error) {
	if ctx.Stage != combat.StageGroundCombat {
		return snaps, nil
	}
	return modifyRolls(snaps, -1, nil), nil
}

// nebula only helps the defender.
type nebula struct{}

func (nebula) ID() catalog.TagID { return catalog.Nebula }

func (nebula) ComputeSnapshots(ctx combat.HookContext, snaps []combat.Snapshot) ([]combat.Snapshot, error) {
	if ctx.Side != combat.Defender || ctx.Stage != combat.StageSpaceCombat {
		return snaps, nil
	}
	return modifyRolls(snaps, -1, nil), nil
}

// moraleBoost improves every combat roll for one round per use. The value
// holds the remaining uses.
type moraleBoost struct{}

func (moraleBoost) ID() catalog.TagID { return catalog.MoraleBoost }

func (moraleBoost) DefaultSettings() string { return usesCodec.DefaultSettings() }

func (moraleBoost) DecodeSettings(value string) (any, error) { return usesCodec.DecodeSettings(value) }

func (moraleBoost) EncodeSettings(settings any) (string, error) {
	return usesCodec.EncodeSettings(settings)
}

func (moraleBoost) ComputeSnapshots(ctx combat.HookContext, snaps []combat.Snapshot) ([]combat.Snapshot, error) {
	if !ctx.Stage.IsRound() || intValue(ctx.Value) < 1 {
		return snaps, nil
	}
	return modifyRolls(snaps, -1, nil), nil
}

func (m moraleBoost) PreAssignHits(ctx combat.HookContext, r combat.Resolution) (combat.Resolution, error) {
	uses := intValue(ctx.Value)
	if !ctx.Stage.IsRound() || uses < 1 {
		return r, nil
	}
	r.Tags[ctx.Side] = consume(r.Tags[ctx.Side], m.ID(), uses)
	return r, nil
}

// admiral is a unit tag: the unit rolls one more die in space rounds.
type admiral struct{}

func (admiral) ID() catalog.TagID { return catalog.Admiral }

func (admiral) ComputeUnitSnapshot(ctx combat.HookContext, s combat.Snapshot, _ string) (combat.Snapshot, error) {
	if ctx.Stage == combat.StageSpaceCombat && s.Combatant {
		s.AddRolls(1)
	}
	return s, nil
}

// combatModifier is a unit tag adding its integer setting to the unit's
// combat value for every roll it makes.
type combatModifier struct{}

var modifierCodec = intCodec{def: 0, min: -9, max: 9}

func (combatModifier) ID() catalog.TagID { return catalog.CombatModifier }

func (combatModifier) DefaultSettings() string { return modifierCodec.DefaultSettings() }

func (combatModifier) DecodeSettings(value string) (any, error) {
	return modifierCodec.DecodeSettings(value)
}

func (combatModifier) EncodeSettings(settings any) (string, error) {
	return modifierCodec.EncodeSettings(settings)
}

func (combatModifier) ComputeUnitSnapshot(_ combat.HookContext, s combat.Snapshot, value string) (combat.Snapshot, error) {
	delta := intValue(value)
	s.CombatOffset += delta
	if s.Combatant {
		s.ModifyCombat(delta)
	}
	return s, nil
}
