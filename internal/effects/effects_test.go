package effects

import (
	"errors"
	"math"
	"testing"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/combat"
)

type tags = map[catalog.TagID]combat.Setting

func side(faction catalog.FactionID, t tags, types ...catalog.UnitType) combat.ParticipantInput {
	p := combat.ParticipantInput{Faction: faction, Tags: t}
	for _, ut := range types {
		p.Units = append(p.Units, combat.UnitInput{Type: ut})
	}
	return p
}

func spaceInput(attacker, defender combat.ParticipantInput) combat.CalculationInput {
	return combat.CalculationInput{CombatType: combat.SpaceCombat, Attacker: attacker, Defender: defender}
}

func groundInput(attacker, defender combat.ParticipantInput) combat.CalculationInput {
	return combat.CalculationInput{CombatType: combat.GroundCombat, Attacker: attacker, Defender: defender}
}

func compute(t *testing.T, in combat.CalculationInput, maxRounds int) combat.CalculationOutput {
	t.Helper()
	e := combat.NewEngine(catalog.Default(), Default(), combat.Options{MaxRounds: maxRounds})
	out, err := e.Compute(in)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	total := out.Victors.Sum() + out.Victors.Undetermined
	if math.Abs(total-1) > 1e-9 {
		t.Fatalf("probability mass = %v", total)
	}
	return out
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %.12f, want %.12f", name, got, want)
	}
}

func TestDefaultCoversCatalog(t *testing.T) {
	reg := Default()
	inert := map[catalog.TagID]bool{
		catalog.DeepSpaceCannon:    true,
		catalog.DuraniumArmor:      true,
		catalog.MagenDefenseGrid:   true,
		catalog.X89BacterialWeapon: true,
		catalog.DirectHit:          true,
	}
	for _, info := range catalog.Default().Tags() {
		if _, ok := reg.Lookup(info.ID); !ok {
			t.Fatalf("tag %s not registered", info.ID)
		}
		if reg.Implemented(info.ID) == inert[info.ID] {
			t.Fatalf("tag %s implemented = %t", info.ID, reg.Implemented(info.ID))
		}
	}
	if len(reg.IDs()) != len(catalog.Default().Tags()) {
		t.Fatalf("registry has %d ids, catalog %d tags", len(reg.IDs()), len(catalog.Default().Tags()))
	}
}

func TestExpectedHits(t *testing.T) {
	on := combat.On()
	tests := []struct {
		name     string
		in       combat.CalculationInput
		stage    string
		side     combat.Side
		hits     float64
		assigned float64
	}{
		{
			name:  "nebula helps the defender",
			in:    spaceInput(side("sol", nil, catalog.Fighter), side("hacan", tags{catalog.Nebula: on}, catalog.Fighter)),
			stage: "space_combat#1", side: combat.Defender, hits: 0.3, assigned: -1,
		},
		{
			name:  "nebula ignores the attacker",
			in:    spaceInput(side("sol", tags{catalog.Nebula: on}, catalog.Fighter), side("hacan", nil, catalog.Fighter)),
			stage: "space_combat#1", side: combat.Attacker, hits: 0.2, assigned: -1,
		},
		{
			name:  "sardakk",
			in:    spaceInput(side("sardakk", tags{catalog.SardakkUnrelenting: on}, catalog.Fighter), side("hacan", nil, catalog.Fighter)),
			stage: "space_combat#1", side: combat.Attacker, hits: 0.3, assigned: -1,
		},
		{
			name:  "jolnar",
			in:    spaceInput(side("jolnar", tags{catalog.JolNarFragile: on}, catalog.Cruiser), side("hacan", nil, catalog.Fighter)),
			stage: "space_combat#1", side: combat.Attacker, hits: 0.3, assigned: -1,
		},
		{
			name:  "hylar cruiser",
			in:    spaceInput(side("sol", tags{catalog.HylarVAssaultLaser: on}, catalog.Cruiser), side("hacan", nil, catalog.Fighter)),
			stage: "space_combat#1", side: combat.Attacker, hits: 0.5, assigned: -1,
		},
		{
			name:  "hylar ignores fighters",
			in:    spaceInput(side("sol", tags{catalog.HylarVAssaultLaser: on}, catalog.Fighter), side("hacan", nil, catalog.Fighter)),
			stage: "space_combat#1", side: combat.Attacker, hits: 0.2, assigned: -1,
		},
		{
			name:  "advanced fighters and cybernetics stack",
			in:    spaceInput(side("sol", tags{catalog.AdvancedFighters: on, catalog.Cybernetics: on}, catalog.Fighter), side("hacan", nil, catalog.Fighter)),
			stage: "space_combat#1", side: combat.Attacker, hits: 0.4, assigned: -1,
		},
		{
			name:  "general",
			in:    groundInput(side("sol", tags{catalog.General: on}, catalog.GroundForce), side("hacan", nil, catalog.GroundForce)),
			stage: "ground_combat#1", side: combat.Attacker, hits: 0.4, assigned: -1,
		},
		{
			name:  "morale boost first round",
			in:    spaceInput(side("sol", tags{catalog.MoraleBoost: on}, catalog.Fighter), side("hacan", nil, catalog.Fighter)),
			stage: "space_combat#1", side: combat.Attacker, hits: 0.3, assigned: -1,
		},
		{
			name:  "morale boost is spent",
			in:    spaceInput(side("sol", tags{catalog.MoraleBoost: on}, catalog.Fighter), side("hacan", nil, catalog.Fighter)),
			stage: "space_combat#2", side: combat.Attacker, hits: 0.2, assigned: -1,
		},
		{
			name:  "morale boost twice",
			in:    spaceInput(side("sol", tags{catalog.MoraleBoost: combat.WithValue("2")}, catalog.Fighter), side("hacan", nil, catalog.Fighter)),
			stage: "space_combat#2", side: combat.Attacker, hits: 0.3, assigned: -1,
		},
		{
			name: "admiral",
			in: spaceInput(combat.ParticipantInput{Faction: "sol", Units: []combat.UnitInput{
				{Type: catalog.Fighter, Tags: tags{catalog.Admiral: on}},
			}}, side("hacan", nil, catalog.Fighter)),
			stage: "space_combat#1", side: combat.Attacker, hits: 0.4, assigned: -1,
		},
		{
			name: "combat modifier",
			in: spaceInput(combat.ParticipantInput{Faction: "sol", Units: []combat.UnitInput{
				{Type: catalog.Fighter, Tags: tags{catalog.CombatModifier: combat.WithValue("-2")}},
			}}, side("hacan", nil, catalog.Fighter)),
			stage: "space_combat#1", side: combat.Attacker, hits: 0.4, assigned: -1,
		},
		{
			name:  "automated defense turrets",
			in:    spaceInput(side("sol", tags{catalog.AutomatedDefenseTurrets: on}, catalog.Destroyer), side("hacan", nil, catalog.Fighter, catalog.Fighter, catalog.Fighter)),
			stage: "anti_fighter_barrage#0", side: combat.Attacker, hits: 1.2, assigned: -1,
		},
		{
			name:  "assault cannon hits a non-fighter",
			in:    spaceInput(side("sol", tags{catalog.AssaultCannon: on}, catalog.Dreadnought), side("hacan", nil, catalog.Fighter, catalog.Cruiser)),
			stage: "precombat#0", side: combat.Attacker, hits: 0.6, assigned: 0.6,
		},
		{
			name:  "assault cannon spares fighters",
			in:    spaceInput(side("sol", tags{catalog.AssaultCannon: on}, catalog.Dreadnought), side("hacan", nil, catalog.Fighter)),
			stage: "precombat#0", side: combat.Attacker, hits: 0.6, assigned: 0,
		},
		{
			name:  "mentak ambush uses two ships",
			in:    spaceInput(side("mentak", tags{catalog.MentakAmbush: on}, catalog.Destroyer, catalog.Cruiser, catalog.Cruiser), side("hacan", nil, catalog.Dreadnought)),
			stage: "precombat#0", side: combat.Attacker, hits: 0.8, assigned: -1,
		},
		{
			name:  "plasma scoring space cannon",
			in:    spaceInput(side("sol", tags{catalog.PlasmaScoring: on}, catalog.PDS, catalog.Cruiser), side("hacan", nil, catalog.Cruiser)),
			stage: "precombat#0", side: combat.Attacker, hits: 1.0, assigned: -1,
		},
		{
			name:  "plasma scoring bombardment",
			in:    groundInput(side("sol", tags{catalog.PlasmaScoring: on}, catalog.GroundForce, catalog.Dreadnought), side("hacan", nil, catalog.GroundForce)),
			stage: "bombardment#0", side: combat.Attacker, hits: 1.2, assigned: -1,
		},
		{
			name:  "maneuvering jets in space",
			in:    spaceInput(side("sol", nil, catalog.PDS, catalog.Cruiser), side("hacan", tags{catalog.ManeuveringJets: on}, catalog.Cruiser)),
			stage: "precombat#0", side: combat.Attacker, hits: 0.4, assigned: -1,
		},
		{
			name:  "maneuvering jets against pds defense",
			in:    groundInput(side("sol", tags{catalog.ManeuveringJets: on}, catalog.GroundForce), side("hacan", nil, catalog.GroundForce, catalog.PDS)),
			stage: "pds_defense#0", side: combat.Defender, hits: 0.4, assigned: -1,
		},
		{
			name:  "disable silences pds",
			in:    spaceInput(side("sol", tags{catalog.Disable: on}, catalog.Cruiser), side("hacan", nil, catalog.Cruiser, catalog.PDS)),
			stage: "precombat#0", side: combat.Defender, hits: 0, assigned: -1,
		},
		{
			name:  "disable drops the planetary shield",
			in:    groundInput(side("sol", tags{catalog.Disable: on}, catalog.GroundForce, catalog.Dreadnought), side("hacan", nil, catalog.GroundForce, catalog.PDS)),
			stage: "bombardment#0", side: combat.Attacker, hits: 0.6, assigned: -1,
		},
		{
			name:  "fire team re-rolls misses",
			in:    groundInput(side("sol", tags{catalog.FireTeam: on}, catalog.GroundForce), side("hacan", nil, catalog.GroundForce)),
			stage: "ground_combat#1", side: combat.Attacker, hits: 0.51, assigned: -1,
		},
		{
			name:  "fire team is spent",
			in:    groundInput(side("sol", tags{catalog.FireTeam: on}, catalog.GroundForce), side("hacan", nil, catalog.GroundForce)),
			stage: "ground_combat#2", side: combat.Attacker, hits: 0.3, assigned: -1,
		},
		{
			name:  "valkyrie particle weave",
			in:    groundInput(side("sol", tags{catalog.ValkyrieParticleWeave: on}, catalog.GroundForce), side("hacan", nil, catalog.GroundForce)),
			stage: "ground_combat#1", side: combat.Attacker, hits: 0.3, assigned: 0.51,
		},
		{
			name:  "shields holding cancels",
			in:    spaceInput(side("sol", nil, catalog.Fighter), side("hacan", tags{catalog.ShieldsHolding: on}, catalog.Fighter)),
			stage: "space_combat#1", side: combat.Attacker, hits: 0.2, assigned: 0,
		},
		{
			name:  "shields holding is spent only when used",
			in:    spaceInput(side("sol", nil, catalog.Fighter), side("hacan", tags{catalog.ShieldsHolding: on}, catalog.Fighter)),
			stage: "space_combat#2", side: combat.Attacker, hits: 0.2, assigned: 0.04,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := compute(t, tt.in, 3)
			res, ok := out.StageMap()[tt.stage]
			if !ok {
				t.Fatalf("stage %s not reached: %+v", tt.stage, out.Stages)
			}
			approx(t, "expected hits", res.ExpectedHits[tt.side], tt.hits)
			if tt.assigned >= 0 {
				approx(t, "assigned hits", res.AssignedHits[tt.side], tt.assigned)
			}
		})
	}
}

func TestCombatModifierAppliesToGrantedRolls(t *testing.T) {
	modified := func(ut catalog.UnitType, delta string) combat.UnitInput {
		return combat.UnitInput{Type: ut, Tags: tags{catalog.CombatModifier: combat.WithValue(delta)}}
	}
	on := combat.On()
	tests := []struct {
		name  string
		in    combat.CalculationInput
		stage string
		hits  float64
	}{
		{
			name: "ambush cruiser",
			in: spaceInput(
				combat.ParticipantInput{Faction: "mentak", Tags: tags{catalog.MentakAmbush: on}, Units: []combat.UnitInput{modified(catalog.Cruiser, "-3")}},
				side("sol", nil, catalog.Destroyer)),
			stage: "precombat#0", hits: 0.7,
		},
		{
			name: "assault cannon dreadnought",
			in: spaceInput(
				combat.ParticipantInput{Faction: "sol", Tags: tags{catalog.AssaultCannon: on}, Units: []combat.UnitInput{modified(catalog.Dreadnought, "-2")}},
				side("hacan", nil, catalog.Cruiser)),
			stage: "precombat#0", hits: 0.8,
		},
		{
			name: "plasma scoring pds",
			in: spaceInput(
				combat.ParticipantInput{Faction: "sol", Tags: tags{catalog.PlasmaScoring: on}, Units: []combat.UnitInput{modified(catalog.PDS, "-1"), {Type: catalog.Cruiser}}},
				side("hacan", nil, catalog.Cruiser)),
			stage: "precombat#0", hits: 1.2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := compute(t, tt.in, 1)
			res, ok := out.StageMap()[tt.stage]
			if !ok {
				t.Fatalf("stage %s not reached: %+v", tt.stage, out.Stages)
			}
			approx(t, "expected hits", res.ExpectedHits[combat.Attacker], tt.hits)
		})
	}
}

func TestInvalidSettings(t *testing.T) {
	for _, value := range []string{"abc", "20"} {
		in := spaceInput(combat.ParticipantInput{Faction: "sol", Units: []combat.UnitInput{
			{Type: catalog.Fighter, Tags: tags{catalog.CombatModifier: combat.WithValue(value)}},
		}}, side("hacan", nil, catalog.Fighter))
		e := combat.NewEngine(catalog.Default(), Default(), combat.Options{})
		_, err := e.Compute(in)
		var inErr *combat.InputError
		if !errors.As(err, &inErr) || !errors.Is(err, combat.ErrInvalidSettings) {
			t.Fatalf("value %q: error = %v", value, err)
		}
		if inErr.Field != "attacker.units[0].tags.combat_modifier" {
			t.Fatalf("field = %q", inErr.Field)
		}
	}
}

func TestGravitonTargetsNonFighters(t *testing.T) {
	cat := catalog.Default()
	ctx := combat.HookContext{Stage: combat.StagePreCombat, Faction: "sol", Catalog: cat}
	snaps := []combat.Snapshot{
		{Type: catalog.PDS, Combatant: true, Combat: 6, Rolls: 1},
		{Type: catalog.Cruiser, Targetable: true},
	}
	got, err := gravitonLaserSystem{}.ComputeSnapshots(ctx, snaps)
	if err != nil {
		t.Fatalf("ComputeSnapshots: %v", err)
	}
	if got[0].Category != combat.HitNonFighterIfAble || got[1].Category != combat.HitStandard {
		t.Fatalf("categories = %s, %s", got[0].Category, got[1].Category)
	}
}

func TestShieldsHoldingCancelsTwo(t *testing.T) {
	key := combat.MakeHitKey(combat.HitStandard, 5, true)
	r := combat.Resolution{
		Hits: [2]combat.Hits{{key: {Hits: 3, Rolls: 4}}, {}},
		Tags: [2]combat.TagState{nil, combat.TagState{{ID: catalog.ShieldsHolding, Value: "2"}}},
	}
	ctx := combat.HookContext{Stage: combat.StageSpaceCombat, Side: combat.Defender, Value: "2"}
	got, err := shieldsHolding{}.PreAssignOpponentHits(ctx, r)
	if err != nil {
		t.Fatalf("PreAssignOpponentHits: %v", err)
	}
	if got.Hits[combat.Attacker].Total() != 1 {
		t.Fatalf("hits left = %d, want 1", got.Hits[combat.Attacker].Total())
	}
	if v, _ := got.Tags[combat.Defender].Get(catalog.ShieldsHolding); v != "1" {
		t.Fatalf("uses left = %q, want 1", v)
	}
}

func TestConsume(t *testing.T) {
	tags := combat.TagState{{ID: catalog.FireTeam, Value: "1"}}
	if consume(tags, catalog.FireTeam, 1).Has(catalog.FireTeam) {
		t.Fatal("last use not removed")
	}
	if v, _ := consume(tags, catalog.FireTeam, 3).Get(catalog.FireTeam); v != "2" {
		t.Fatalf("uses = %q, want 2", v)
	}
}
