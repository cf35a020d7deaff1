// Package combat computes the exact outcome distribution of a two-sided dice
// combat. It enumerates every roll outcome of every stage, merges identical
// states and memoizes transitions; nothing is sampled.
package combat

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
)

// Tolerance is the allowed deviation of a probability sum from its expected
// value.
const Tolerance = 1e-9

// DefaultMaxRounds caps the number of repeating combat rounds.
const DefaultMaxRounds = 25

// ErrProbabilityDrift reports a probability sum outside Tolerance.
var ErrProbabilityDrift = errors.New("probability drift")

// Options tune a computation.
type Options struct {
	// MaxRounds caps repeating combat rounds; probability still in play
	// afterwards is undetermined. Zero means DefaultMaxRounds.
	MaxRounds int
	// SimplifyTarget bounds each hit-count table to this many buckets.
	// Zero disables simplification.
	SimplifyTarget int
	Logger         *zap.Logger
}

// Engine computes combats against a catalog and a tag registry. It holds no
// per-computation state and is safe for concurrent use.
type Engine struct {
	catalog  *catalog.Catalog
	registry *Registry
	opts     Options
	logger   *zap.Logger
}

// NewEngine returns an engine. A nil registry means no tag has an effect.
func NewEngine(cat *catalog.Catalog, reg *Registry, opts Options) *Engine {
	if reg == nil {
		reg = NewRegistry()
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	if opts.SimplifyTarget < 0 {
		opts.SimplifyTarget = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{catalog: cat, registry: reg, opts: opts, logger: logger}
}

// Catalog returns the catalog the engine resolves units against.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Registry returns the engine's tag registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

type computation struct {
	engine *Engine
	input  CalculationInput
	defs   [2]map[catalog.UnitType]catalog.Definition
	memo   *memo
	diag   Diagnostics
}

// Compute validates in and returns its outcome distribution.
func (e *Engine) Compute(in CalculationInput) (CalculationOutput, error) {
	initial, err := e.initialState(in)
	if err != nil {
		return CalculationOutput{}, err
	}
	c := &computation{engine: e, input: in, memo: newMemo()}
	for _, side := range Sides {
		faction := in.Participant(side).Faction
		c.defs[side] = make(map[catalog.UnitType]catalog.Definition)
		for _, t := range catalog.UnitTypes() {
			def, err := e.catalog.UnitFor(faction, t)
			if err != nil {
				return CalculationOutput{}, inputErr(side.String()+".faction", err)
			}
			c.defs[side][t] = def
		}
	}
	return c.run(initial)
}

// present reports whether side still has a unit that can be hit in this
// combat.
func (c *computation) present(state CombatState, side Side) bool {
	for _, u := range state.Sides[side].Units {
		if c.targetable(side, u.Type) {
			return true
		}
	}
	return false
}

func (c *computation) targetable(side Side, t catalog.UnitType) bool {
	def := c.defs[side][t]
	if c.input.CombatType == GroundCombat {
		return def.GroundForce
	}
	return def.Ship
}

func (c *computation) terminal(state CombatState) bool {
	return !c.present(state, Attacker) || !c.present(state, Defender)
}

// settle files a state reached with probability p as terminal or pending.
func (c *computation) settle(state CombatState, p float64, pending, done *stateSet) {
	if c.terminal(state) {
		state.Stage = StageDone
		done.add(state, p)
		return
	}
	pending.add(state, p)
}

func (c *computation) victors(done *stateSet) Victors {
	var v Victors
	for _, e := range done.entries {
		a, d := c.present(e.state, Attacker), c.present(e.state, Defender)
		switch {
		case a && !d:
			v.Attacker += e.prob
		case d && !a:
			v.Defender += e.prob
		default:
			v.Draw += e.prob
		}
	}
	v.Undetermined = math.Max(0, 1-v.Sum())
	return v
}

func (c *computation) run(initial CombatState) (CalculationOutput, error) {
	var out CalculationOutput
	log := c.engine.logger
	if !c.present(initial, Attacker) && !c.present(initial, Defender) {
		log.Debug("nothing to resolve")
		return out, nil
	}

	pending, done := newStateSet(), newStateSet()
	c.settle(initial, 1, pending, done)

	round := 0
	for pending.len() > 0 {
		stage := pending.entries[0].state.Stage
		res := StageResult{Stage: stage, Reached: pending.total()}
		if stage.IsRound() {
			if round >= c.engine.opts.MaxRounds {
				log.Debug("round cap reached",
					zap.Int("rounds", round),
					zap.Float64("undetermined", res.Reached))
				break
			}
			round++
			res.Round = round
		}

		next := newStateSet()
		for _, e := range pending.entries {
			t, err := c.advance(e.state)
			if err != nil {
				return CalculationOutput{}, err
			}
			for _, side := range Sides {
				res.ExpectedHits[side] += e.prob * t.expected[side]
				res.AssignedHits[side] += e.prob * t.assigned[side]
			}
			for _, o := range t.outcomes {
				c.settle(o.State, e.prob*o.Probability, next, done)
			}
		}
		if total := next.total() + done.total(); math.Abs(total-1) > Tolerance {
			return CalculationOutput{}, fmt.Errorf("%w: %s sums to %.12f", ErrProbabilityDrift, res.Key(), total)
		}
		if res.Reached > 0 {
			for _, side := range Sides {
				res.ExpectedHits[side] /= res.Reached
				res.AssignedHits[side] /= res.Reached
			}
		}
		res.Victors = c.victors(done)
		out.Stages = append(out.Stages, res)
		log.Debug("stage resolved",
			zap.String("stage", res.Key()),
			zap.Int("pending", next.len()),
			zap.Int("terminal", done.len()),
			zap.Int("memo_hits", c.memo.hits),
			zap.Int("memo_misses", c.memo.misses))
		pending = next
	}

	out.Victors = c.victors(done)
	out.FinalStates = append(done.list(), pending.list()...)
	sort.SliceStable(out.FinalStates, func(i, j int) bool {
		a, b := out.FinalStates[i], out.FinalStates[j]
		if a.Probability != b.Probability {
			return a.Probability > b.Probability
		}
		return Compare(a.State, b.State) < 0
	})
	out.Survivors = c.survivors(out.FinalStates)

	c.diag.MemoHits = c.memo.hits
	c.diag.MemoMisses = c.memo.misses
	if c.engine.opts.SimplifyTarget > 0 {
		d := c.diag
		out.Diagnostics = &d
	}
	return out, nil
}

func (c *computation) survivors(final []CombatStateProbability) [2]SurvivorStats {
	var out [2]SurvivorStats
	for _, side := range Sides {
		out[side] = SurvivorStats{
			Counts:   make(map[int]float64),
			Expected: make(map[catalog.UnitType]float64),
		}
		for _, f := range final {
			n := 0
			for _, u := range f.State.Sides[side].Units {
				out[side].Expected[u.Type] += f.Probability
				if c.targetable(side, u.Type) {
					n++
				}
			}
			out[side].Counts[n] += f.Probability
		}
	}
	return out
}
