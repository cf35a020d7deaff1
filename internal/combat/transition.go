package combat

import (
	"fmt"
	"math"
)

type stateEntry struct {
	state CombatState
	prob  float64
}

// stateSet merges structurally equal states by summing their probability.
// Iteration follows insertion order.
type stateSet struct {
	buckets map[uint64][]int
	entries []stateEntry
}

func newStateSet() *stateSet {
	return &stateSet{buckets: make(map[uint64][]int)}
}

func (s *stateSet) add(state CombatState, prob float64) {
	h := state.Hash()
	for _, i := range s.buckets[h] {
		if s.entries[i].state.Equal(state) {
			s.entries[i].prob += prob
			return
		}
	}
	s.buckets[h] = append(s.buckets[h], len(s.entries))
	s.entries = append(s.entries, stateEntry{state: state, prob: prob})
}

func (s *stateSet) len() int {
	return len(s.entries)
}

func (s *stateSet) total() float64 {
	t := 0.0
	for _, e := range s.entries {
		t += e.prob
	}
	return t
}

func (s *stateSet) list() []CombatStateProbability {
	out := make([]CombatStateProbability, len(s.entries))
	for i, e := range s.entries {
		out[i] = CombatStateProbability{State: e.state, Probability: e.prob}
	}
	return out
}

// transition is the resolved outcome of advancing one state by one stage.
// Probabilities are conditional on the source state.
type transition struct {
	outcomes []CombatStateProbability
	expected [2]float64
	assigned [2]float64
}

type memoEntry struct {
	state  CombatState
	result *transition
}

// memo caches transitions by state hash. A bucket holds every state that
// hashed there; lookups confirm with full structural equality.
type memo struct {
	buckets map[uint64][]memoEntry
	hits    int
	misses  int
}

func newMemo() *memo {
	return &memo{buckets: make(map[uint64][]memoEntry)}
}

func (m *memo) lookup(h uint64, state CombatState) (*transition, bool) {
	for _, e := range m.buckets[h] {
		if e.state.Equal(state) {
			m.hits++
			return e.result, true
		}
	}
	m.misses++
	return nil, false
}

func (m *memo) store(h uint64, state CombatState, t *transition) {
	m.buckets[h] = append(m.buckets[h], memoEntry{state: state, result: t})
}

// advance resolves one stage of state: snapshots, rolls, pre-assignment
// hooks and hit assignment for every branch, merging identical next states.
func (c *computation) advance(state CombatState) (*transition, error) {
	h := state.Hash()
	if t, ok := c.memo.lookup(h, state); ok {
		return t, nil
	}

	snaps, err := c.snapshots(state)
	if err != nil {
		return nil, err
	}
	t := &transition{}
	var branches [2][]HitBranch
	for _, side := range Sides {
		branches[side], err = c.rollBranches(state, side, snaps[side])
		if err != nil {
			return nil, err
		}
		for _, b := range branches[side] {
			t.expected[side] += b.Prob * float64(b.Hits.Total())
		}
	}

	next := newStateSet()
	for _, a := range branches[Attacker] {
		for _, d := range branches[Defender] {
			p := a.Prob * d.Prob
			r := Resolution{
				Hits:      [2]Hits{a.Hits, d.Hits},
				Snapshots: snaps,
				Tags:      [2]TagState{a.Tags, d.Tags},
			}
			r, err = c.preAssign(state, r)
			if err != nil {
				return nil, err
			}
			var sides [2]ParticipantState
			for _, side := range Sides {
				opp := side.Opponent()
				units, landed := AssignHits(r.Hits[opp], r.Snapshots[side])
				sides[side] = ParticipantState{Units: units, Tags: r.Tags[side]}
				t.assigned[opp] += p * float64(landed)
			}
			next.add(CombatState{Stage: state.Stage.Next(), Sides: sides}, p)
		}
	}
	if total := next.total(); math.Abs(total-1) > Tolerance {
		return nil, fmt.Errorf("%w: transition from %s sums to %.12f", ErrProbabilityDrift, state.Stage, total)
	}
	t.outcomes = next.list()
	c.memo.store(h, state, t)
	return t, nil
}

// preAssign runs every side's own pre-assignment hooks, then every side's
// opponent-directed ones, in registry order.
func (c *computation) preAssign(state CombatState, r Resolution) (Resolution, error) {
	reg := c.engine.registry
	for _, side := range Sides {
		for _, e := range reg.active(r.Tags[side]) {
			h, ok := e.(PreAssignHook)
			if !ok {
				continue
			}
			value, _ := r.Tags[side].Get(e.ID())
			next, err := h.PreAssignHits(c.hookContext(state, side, value), r.clone())
			if err != nil {
				return r, hookErr("pre-assign", e.ID(), state.Stage, err)
			}
			r = next
		}
	}
	for _, side := range Sides {
		for _, e := range reg.active(r.Tags[side]) {
			h, ok := e.(OpponentPreAssignHook)
			if !ok {
				continue
			}
			value, _ := r.Tags[side].Get(e.ID())
			next, err := h.PreAssignOpponentHits(c.hookContext(state, side, value), r.clone())
			if err != nil {
				return r, hookErr("opponent pre-assign", e.ID(), state.Stage, err)
			}
			r = next
		}
	}
	return r, nil
}
