package effects

import (
	"sort"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/combat"
)

// automatedDefenseTurrets adds a die to every destroyer's barrage and
// improves those rolls by two.
type automatedDefenseTurrets struct{}

func (automatedDefenseTurrets) ID() catalog.TagID { return catalog.AutomatedDefenseTurrets }

func (automatedDefenseTurrets) ComputeSnapshots(ctx combat.HookContext, snaps []combat.Snapshot) ([]combat.Snapshot, error) {
	if ctx.Stage != combat.StageAntiFighterBarrage {
		return snaps, nil
	}
	for i := range snaps {
		s := &snaps[i]
		if s.Type != catalog.Destroyer || !s.Combatant {
			continue
		}
		s.AddRolls(1)
		s.ModifyCombat(-2)
	}
	return snaps, nil
}

// assaultCannon lets dreadnoughts fire their combat dice before combat. The
// hits may only be assigned to non-fighter ships.
type assaultCannon struct{}

func (assaultCannon) ID() catalog.TagID { return catalog.AssaultCannon }

func (assaultCannon) ComputeSnapshots(ctx combat.HookContext, snaps []combat.Snapshot) ([]combat.Snapshot, error) {
	if ctx.Stage != combat.StagePreCombat {
		return snaps, nil
	}
	def, err := ctx.Catalog.UnitFor(ctx.Faction, catalog.Dreadnought)
	if err != nil {
		return nil, err
	}
	for i := range snaps {
		s := &snaps[i]
		if s.Type != catalog.Dreadnought || s.Disarmed() {
			continue
		}
		s.Arm(def.Combat, def.Rolls)
		s.Category = combat.HitNonFighter
	}
	return snaps, nil
}

// mentakAmbush gives up to two cruisers or destroyers one die each before
// combat, best combat value first.
type mentakAmbush struct{}

const ambushShips = 2

func (mentakAmbush) ID() catalog.TagID { return catalog.MentakAmbush }

func (mentakAmbush) ComputeSnapshots(ctx combat.HookContext, snaps []combat.Snapshot) ([]combat.Snapshot, error) {
	if ctx.Stage != combat.StagePreCombat {
		return snaps, nil
	}
	type candidate struct {
		index, combat int
	}
	var picks []candidate
	for i, s := range snaps {
		if s.Type != catalog.Cruiser && s.Type != catalog.Destroyer {
			continue
		}
		def, err := ctx.Catalog.UnitFor(ctx.Faction, s.Type)
		if err != nil {
			return nil, err
		}
		picks = append(picks, candidate{index: i, combat: def.Combat})
	}
	sort.SliceStable(picks, func(i, j int) bool { return picks[i].combat < picks[j].combat })
	if len(picks) > ambushShips {
		picks = picks[:ambushShips]
	}
	for _, p := range picks {
		snaps[p.index].AddExtraRoll(p.combat)
	}
	return snaps, nil
}

// spaceCannonStage reports whether stage resolves space cannon fire.
func spaceCannonStage(stage combat.Stage) bool {
	return stage == combat.StagePreCombat || stage == combat.StagePDSDefense
}

func firesSpaceCannon(cat *catalog.Catalog, faction catalog.FactionID, s combat.Snapshot) bool {
	def, err := cat.UnitFor(faction, s.Type)
	return err == nil && def.SpaceCannon != nil && s.Combatant
}

// gravitonLaserSystem steers space cannon hits away from fighters.
type gravitonLaserSystem struct{}

func (gravitonLaserSystem) ID() catalog.TagID { return catalog.GravitonLaserSystem }

func (gravitonLaserSystem) ComputeSnapshots(ctx combat.HookContext, snaps []combat.Snapshot) ([]combat.Snapshot, error) {
	if ctx.Stage != combat.StagePreCombat {
		return snaps, nil
	}
	for i := range snaps {
		if firesSpaceCannon(ctx.Catalog, ctx.Faction, snaps[i]) {
			snaps[i].Category = combat.HitNonFighterIfAble
		}
	}
	return snaps, nil
}

// plasmaScoring grants one extra die to the best unit firing space cannon or
// bombardment.
type plasmaScoring struct{}

func (plasmaScoring) ID() catalog.TagID { return catalog.PlasmaScoring }

func (plasmaScoring) ComputeSnapshots(ctx combat.HookContext, snaps []combat.Snapshot) ([]combat.Snapshot, error) {
	best := -1
	for i, s := range snaps {
		if !s.Fires() {
			continue
		}
		def, err := ctx.Catalog.UnitFor(ctx.Faction, s.Type)
		if err != nil {
			return nil, err
		}
		switch {
		case spaceCannonStage(ctx.Stage) && def.SpaceCannon != nil:
		case ctx.Stage == combat.StageBombardment && def.Bombardment != nil:
		default:
			continue
		}
		if best < 0 || s.Combat < snaps[best].Combat {
			best = i
		}
	}
	if best >= 0 {
		snaps[best].AddRepeatRoll()
	}
	return snaps, nil
}

// maneuveringJets worsens space cannon fire aimed at the owning side.
type maneuveringJets struct{}

func (maneuveringJets) ID() catalog.TagID { return catalog.ManeuveringJets }

func (maneuveringJets) ComputeOpponentSnapshots(ctx combat.HookContext, snaps []combat.Snapshot) ([]combat.Snapshot, error) {
	if !spaceCannonStage(ctx.Stage) {
		return snaps, nil
	}
	for i := range snaps {
		if firesSpaceCannon(ctx.Catalog, ctx.OpponentFaction, snaps[i]) {
			snaps[i].ModifyCombat(1)
		}
	}
	return snaps, nil
}

// disable shuts down the opponent's PDS: no space cannon fire and no
// planetary shield.
type disable struct{}

func (disable) ID() catalog.TagID { return catalog.Disable }

func (disable) ComputeOpponentSnapshots(_ combat.HookContext, snaps []combat.Snapshot) ([]combat.Snapshot, error) {
	for i := range snaps {
		if snaps[i].Type == catalog.PDS {
			snaps[i].Disarm()
			snaps[i].Shield = 0
		}
	}
	return snaps, nil
}
