package combat

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
)

// UnitState is a unit as carried between stages.
type UnitState struct {
	Type      catalog.UnitType `json:"type"`
	Sustained int              `json:"sustained,omitempty"`
	Tags      TagState         `json:"tags,omitempty"`
}

func compareUnits(a, b UnitState) int {
	if c := compareInt(int(a.Type), int(b.Type)); c != 0 {
		return c
	}
	if c := compareInt(a.Sustained, b.Sustained); c != 0 {
		return c
	}
	return compareTags(a.Tags, b.Tags)
}

// ParticipantState is one side's units in canonical order plus its tag state.
type ParticipantState struct {
	Units []UnitState `json:"units"`
	Tags  TagState    `json:"tags,omitempty"`
}

// NewParticipantState copies units into canonical order.
func NewParticipantState(units []UnitState, tags TagState) ParticipantState {
	sorted := append([]UnitState(nil), units...)
	sort.SliceStable(sorted, func(i, j int) bool { return compareUnits(sorted[i], sorted[j]) < 0 })
	return ParticipantState{Units: sorted, Tags: tags}
}

// Count returns how many units of type t the side has.
func (p ParticipantState) Count(t catalog.UnitType) int {
	n := 0
	for _, u := range p.Units {
		if u.Type == t {
			n++
		}
	}
	return n
}

func compareParticipants(a, b ParticipantState) int {
	n := len(a.Units)
	if len(b.Units) < n {
		n = len(b.Units)
	}
	for i := 0; i < n; i++ {
		if c := compareUnits(a.Units[i], b.Units[i]); c != 0 {
			return c
		}
	}
	if c := compareInt(len(a.Units), len(b.Units)); c != 0 {
		return c
	}
	return compareTags(a.Tags, b.Tags)
}

// CombatState is a node of the search graph.
type CombatState struct {
	Stage Stage               `json:"stage"`
	Sides [2]ParticipantState `json:"sides"`
}

// Side returns the participant state of s.
func (s CombatState) Side(side Side) ParticipantState {
	return s.Sides[side]
}

// Compare orders states totally. It returns 0 exactly when both states are
// structurally identical.
func Compare(a, b CombatState) int {
	if c := compareInt(int(a.Stage), int(b.Stage)); c != 0 {
		return c
	}
	for _, side := range Sides {
		if c := compareParticipants(a.Sides[side], b.Sides[side]); c != 0 {
			return c
		}
	}
	return 0
}

// Equal reports structural equality.
func (s CombatState) Equal(o CombatState) bool {
	return Compare(s, o) == 0
}

// Hash returns the structural hash of s. Equal states hash equal; unequal
// states may collide and must be told apart with Compare.
func (s CombatState) Hash() uint64 {
	buf := make([]byte, 0, 64)
	buf = append(buf, byte(s.Stage))
	for _, side := range Sides {
		p := s.Sides[side]
		buf = binary.AppendUvarint(buf, uint64(len(p.Units)))
		for _, u := range p.Units {
			buf = append(buf, byte(u.Type))
			buf = binary.AppendUvarint(buf, uint64(u.Sustained))
			buf = appendTags(buf, u.Tags)
		}
		buf = appendTags(buf, p.Tags)
	}
	return xxhash.Sum64(buf)
}

func appendTags(buf []byte, tags TagState) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(tags)))
	for _, t := range tags {
		buf = binary.AppendUvarint(buf, uint64(len(t.ID)))
		buf = append(buf, t.ID...)
		buf = binary.AppendUvarint(buf, uint64(len(t.Value)))
		buf = append(buf, t.Value...)
	}
	return buf
}

// CombatStateProbability pairs a state with its probability.
type CombatStateProbability struct {
	State       CombatState `json:"state"`
	Probability float64     `json:"probability"`
}
