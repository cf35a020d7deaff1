package combat

import (
	"sort"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
)

type target struct {
	snap      Snapshot
	sustained int
	destroyed bool
}

func (t *target) canSustain() bool {
	return t.snap.Sustain-t.sustained > 0
}

func eligible(category HitCategory, t *target) bool {
	if t.destroyed || !t.snap.Targetable {
		return false
	}
	switch category {
	case HitFighter:
		return t.snap.Type == catalog.Fighter
	case HitNonFighter, HitNonFighterIfAble:
		return t.snap.Type != catalog.Fighter
	default:
		return true
	}
}

// better reports whether a should take the next hit before b: units that can
// sustain first, then the worse combat value, then the cheaper unit.
func better(a, b *target) bool {
	if as, bs := a.canSustain(), b.canSustain(); as != bs {
		return as
	}
	if a.snap.Value != b.snap.Value {
		return a.snap.Value > b.snap.Value
	}
	if a.snap.Priority != b.snap.Priority {
		return a.snap.Priority < b.snap.Priority
	}
	return a.snap.Index < b.snap.Index
}

func pick(category HitCategory, targets []*target) *target {
	var best *target
	for _, t := range targets {
		if !eligible(category, t) {
			continue
		}
		if best == nil || better(t, best) {
			best = t
		}
	}
	if best == nil && category == HitNonFighterIfAble {
		return pick(HitStandard, targets)
	}
	return best
}

// AssignHits assigns hits one at a time, highest category first, to the best
// eligible snapshot. A unit hit while it can sustain records a sustained hit;
// otherwise it is destroyed. Hits without an eligible target are discarded.
// It returns the surviving units in canonical order and the number of hits
// that landed.
func AssignHits(hits Hits, snaps []Snapshot) ([]UnitState, int) {
	targets := make([]*target, len(snaps))
	for i, s := range snaps {
		targets[i] = &target{snap: s, sustained: s.Unit.Sustained}
	}

	assigned := 0
	for _, k := range hits.Keys() {
		for n := hits[k].Hits; n > 0; n-- {
			t := pick(k.Category(), targets)
			if t == nil {
				break
			}
			if t.canSustain() {
				t.sustained++
			} else {
				t.destroyed = true
			}
			assigned++
		}
	}

	units := make([]UnitState, 0, len(targets))
	for _, t := range targets {
		if t.destroyed {
			continue
		}
		u := t.snap.Unit
		u.Sustained = t.sustained
		units = append(units, u)
	}
	sort.SliceStable(units, func(i, j int) bool { return compareUnits(units[i], units[j]) < 0 })
	return units, assigned
}
