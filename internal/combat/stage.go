package combat

import (
	"fmt"
	"strings"
)

// CombatType selects the stage sequence of a computation.
type CombatType string

const (
	SpaceCombat  CombatType = "space"
	GroundCombat CombatType = "ground"
)

func (t CombatType) valid() bool {
	return t == SpaceCombat || t == GroundCombat
}

// Side identifies one of the two participants.
type Side int

const (
	Attacker Side = iota
	Defender
)

// Sides lists both sides in resolution order.
var Sides = [2]Side{Attacker, Defender}

func (s Side) Opponent() Side {
	return 1 - s
}

func (s Side) String() string {
	if s == Attacker {
		return "attacker"
	}
	return "defender"
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Stage is a step of the fixed combat sequence.
type Stage uint8

const (
	StageUnknown Stage = iota
	StagePreCombat
	StageAntiFighterBarrage
	StageSpaceCombat
	StageBombardment
	StagePDSDefense
	StageGroundCombat
	StageDone
)

var stageNames = map[Stage]string{
	StagePreCombat:          "precombat",
	StageAntiFighterBarrage: "anti_fighter_barrage",
	StageSpaceCombat:        "space_combat",
	StageBombardment:        "bombardment",
	StagePDSDefense:         "pds_defense",
	StageGroundCombat:       "ground_combat",
	StageDone:               "done",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	key := strings.TrimSpace(string(text))
	for st, name := range stageNames {
		if name == key {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", key)
}

// firstStage is where a combat of type t begins.
func firstStage(t CombatType) Stage {
	if t == GroundCombat {
		return StageBombardment
	}
	return StagePreCombat
}

// Next is the stage that follows s. Combat rounds repeat.
func (s Stage) Next() Stage {
	switch s {
	case StagePreCombat:
		return StageAntiFighterBarrage
	case StageAntiFighterBarrage, StageSpaceCombat:
		return StageSpaceCombat
	case StageBombardment:
		return StagePDSDefense
	case StagePDSDefense, StageGroundCombat:
		return StageGroundCombat
	default:
		return StageDone
	}
}

// IsRound reports whether s is a repeating combat round.
func (s Stage) IsRound() bool {
	return s == StageSpaceCombat || s == StageGroundCombat
}

// Fires reports whether side rolls dice during s.
func (s Stage) Fires(side Side) bool {
	switch s {
	case StageBombardment:
		return side == Attacker
	case StagePDSDefense:
		return side == Defender
	case StageDone, StageUnknown:
		return false
	default:
		return true
	}
}
