package combat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// HitCategory restricts which units a hit may be assigned to. Higher
// categories are assigned first.
type HitCategory uint8

const (
	// HitStandard may be assigned to any targetable unit.
	HitStandard HitCategory = iota
	// HitNonFighterIfAble goes to non-fighter units while there are any.
	HitNonFighterIfAble
	// HitNonFighter may only be assigned to non-fighter units.
	HitNonFighter
	// HitFighter may only be assigned to fighters.
	HitFighter

	maxHitCategory = HitFighter
)

func (c HitCategory) String() string {
	switch c {
	case HitStandard:
		return "standard"
	case HitNonFighterIfAble:
		return "non_fighter_if_able"
	case HitNonFighter:
		return "non_fighter"
	case HitFighter:
		return "fighter"
	default:
		return "unknown"
	}
}

// HitKey packs a hit category, a combat value and whether the hits came from
// combat rolls into one integer:
//
//	bits 0-3  combat value, 0 for hits that were not rolled
//	bit  4    set when the hits do not count as combat rolls
//	bits 5-7  category
type HitKey uint8

const (
	hitValueBits     = 4
	hitValueMask     = 1<<hitValueBits - 1
	hitNotRollBit    = 1 << hitValueBits
	hitCategoryShift = hitValueBits + 1

	// MaxCombatValue is the largest combat value a roll can need.
	MaxCombatValue = 10
)

// MakeHitKey packs a key. value must be within 0..MaxCombatValue.
func MakeHitKey(category HitCategory, value int, combatRoll bool) HitKey {
	if value < 0 || value > MaxCombatValue || category > maxHitCategory {
		panic(fmt.Sprintf("combat: hit key out of range: category %d value %d", category, value))
	}
	k := HitKey(category)<<hitCategoryShift | HitKey(value)
	if !combatRoll {
		k |= hitNotRollBit
	}
	return k
}

// AutomaticHit is the key for hits that were produced without rolling.
func AutomaticHit(category HitCategory) HitKey {
	return MakeHitKey(category, 0, false)
}

func (k HitKey) Category() HitCategory {
	return HitCategory(k >> hitCategoryShift)
}

func (k HitKey) Value() int {
	return int(k & hitValueMask)
}

func (k HitKey) CombatRoll() bool {
	return k&hitNotRollBit == 0
}

// Unpack returns the three packed fields.
func (k HitKey) Unpack() (HitCategory, int, bool) {
	return k.Category(), k.Value(), k.CombatRoll()
}

func (k HitKey) String() string {
	return fmt.Sprintf("%s/%d/%t", k.Category(), k.Value(), k.CombatRoll())
}

// HitCount is how many hits a bucket scored out of how many rolls.
type HitCount struct {
	Hits  int `json:"hits"`
	Rolls int `json:"rolls"`
}

// Misses is the number of rolls that did not hit.
func (c HitCount) Misses() int {
	if c.Rolls < c.Hits {
		return 0
	}
	return c.Rolls - c.Hits
}

// Hits maps bucket keys to counts.
type Hits map[HitKey]HitCount

// Clone returns an independent copy.
func (h Hits) Clone() Hits {
	out := make(Hits, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Total is the number of hits across all buckets.
func (h Hits) Total() int {
	n := 0
	for _, c := range h {
		n += c.Hits
	}
	return n
}

// Add returns a copy with hits and rolls added to key.
func (h Hits) Add(key HitKey, hits, rolls int) Hits {
	out := h.Clone()
	c := out[key]
	c.Hits += hits
	c.Rolls += rolls
	out[key] = c
	return out
}

// Keys lists the keys in assignment order: highest category first, then by
// ascending key.
func (h Hits) Keys() []HitKey {
	keys := make([]HitKey, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := keys[i].Category(), keys[j].Category()
		if ci != cj {
			return ci > cj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// signature is a canonical text form used to merge identical branches.
func (h Hits) signature() string {
	var b strings.Builder
	for _, k := range h.Keys() {
		c := h[k]
		b.WriteString(strconv.Itoa(int(k)))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(c.Hits))
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(c.Rolls))
		b.WriteByte(';')
	}
	return b.String()
}
