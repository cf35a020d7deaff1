package combat

import (
	"fmt"
	"math"
	"sort"
)

// HitProbability is the chance that one roll at combat value v hits.
func HitProbability(v int) float64 {
	return float64(11-clampCombat(v)) / 10
}

func clampCombat(v int) int {
	switch {
	case v < 1:
		return 1
	case v > MaxCombatValue:
		return MaxCombatValue
	}
	return v
}

// Outcome is one entry of a hit-count table.
type Outcome struct {
	Hits int
	Prob float64
}

// Binomial returns P(k hits out of n rolls) for k = 0..n.
func Binomial(n int, p float64) []Outcome {
	if n < 0 {
		return nil
	}
	out := make([]Outcome, n+1)
	for k := 0; k <= n; k++ {
		out[k] = Outcome{Hits: k, Prob: binomialPMF(n, k, p)}
	}
	return out
}

func binomialPMF(n, k int, p float64) float64 {
	switch {
	case p <= 0:
		if k == 0 {
			return 1
		}
		return 0
	case p >= 1:
		if k == n {
			return 1
		}
		return 0
	}
	if n > 1000 {
		ln, _ := math.Lgamma(float64(n + 1))
		lk, _ := math.Lgamma(float64(k + 1))
		lnk, _ := math.Lgamma(float64(n - k + 1))
		return math.Exp(ln - lk - lnk + float64(k)*math.Log(p) + float64(n-k)*math.Log1p(-p))
	}
	return choose(n, k) * math.Pow(p, float64(k)) * math.Pow(1-p, float64(n-k))
}

func choose(n, k int) float64 {
	if k > n-k {
		k = n - k
	}
	c := 1.0
	for i := 1; i <= k; i++ {
		c = c * float64(n-k+i) / float64(i)
	}
	return c
}

// HitBranch is one possible roll outcome of a side with its probability and
// the side's tag state on that branch.
type HitBranch struct {
	Hits Hits
	Tags TagState
	Prob float64
}

// mergeBranches sums the probability of branches with identical hits and tags.
func mergeBranches(in []HitBranch) []HitBranch {
	index := make(map[string]int, len(in))
	out := make([]HitBranch, 0, len(in))
	for _, b := range in {
		sig := b.Hits.signature() + "|" + tagSignature(b.Tags)
		if i, ok := index[sig]; ok {
			out[i].Prob += b.Prob
			continue
		}
		index[sig] = len(out)
		out = append(out, b)
	}
	return out
}

func tagSignature(t TagState) string {
	s := ""
	for _, e := range t {
		s += string(e.ID) + "=" + e.Value + ";"
	}
	return s
}

// convolve combines every branch with an independent hit-count table for key.
func convolve(branches []HitBranch, key HitKey, rolls int, table []Outcome) []HitBranch {
	out := make([]HitBranch, 0, len(branches)*len(table))
	for _, b := range branches {
		for _, o := range table {
			if o.Prob == 0 {
				continue
			}
			out = append(out, HitBranch{
				Hits: b.Hits.Add(key, o.Hits, rolls),
				Tags: b.Tags,
				Prob: b.Prob * o.Prob,
			})
		}
	}
	return mergeBranches(out)
}

// Reroll returns the outcomes of re-rolling every missed combat roll of b
// once. Buckets that are not combat rolls are left alone.
func Reroll(b HitBranch) []HitBranch {
	out := []HitBranch{{Hits: b.Hits.Clone(), Tags: b.Tags, Prob: b.Prob}}
	for _, k := range b.Hits.Keys() {
		c := b.Hits[k]
		if !k.CombatRoll() || k.Value() == 0 || c.Misses() == 0 {
			continue
		}
		out = convolve(out, k, 0, Binomial(c.Misses(), HitProbability(k.Value())))
	}
	return out
}

// rollBranches enumerates every roll outcome of one side for a stage, then
// lets the side's CalculateHits hooks rewrite each branch.
func (c *computation) rollBranches(state CombatState, side Side, snaps []Snapshot) ([]HitBranch, error) {
	tags := state.Sides[side].Tags
	branches := []HitBranch{{Hits: Hits{}, Tags: tags, Prob: 1}}
	if !state.Stage.Fires(side) {
		return branches, nil
	}

	grouped := make(map[HitKey]int)
	var extra []HitKey
	for _, s := range snaps {
		if !s.Fires() {
			continue
		}
		if n := s.RollCount(); n > 0 {
			grouped[MakeHitKey(s.Category, clampCombat(s.Combat), s.CombatRoll)] += n
		}
		for _, v := range s.ExtraRolls {
			extra = append(extra, MakeHitKey(s.Category, clampCombat(v), s.CombatRoll))
		}
	}

	keys := make([]HitKey, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	raw := 1.0
	for _, k := range keys {
		n := grouped[k]
		table := Binomial(n, HitProbability(k.Value()))
		raw *= float64(len(table))
		if target := c.engine.opts.SimplifyTarget; target > 0 && len(table) > target {
			table = c.simplifyTable(table, target)
		}
		branches = convolve(branches, k, n, table)
	}
	for _, k := range extra {
		p := HitProbability(k.Value())
		raw *= 2
		branches = convolve(branches, k, 1, []Outcome{{Hits: 0, Prob: 1 - p}, {Hits: 1, Prob: p}})
	}
	if raw > c.diag.MaxBranchCount {
		c.diag.MaxBranchCount = raw
	}

	reg := c.engine.registry
	for _, e := range reg.active(tags) {
		h, ok := e.(CalculateHitsHook)
		if !ok {
			continue
		}
		next := make([]HitBranch, 0, len(branches))
		for _, b := range branches {
			value, _ := b.Tags.Get(e.ID())
			ctx := c.hookContext(state, side, value)
			in := HitBranch{Hits: b.Hits.Clone(), Tags: b.Tags, Prob: b.Prob}
			res, err := h.CalculateHits(ctx, in)
			if err != nil {
				return nil, hookErr("calculate hits", e.ID(), state.Stage, err)
			}
			total := 0.0
			for _, r := range res {
				total += r.Prob
			}
			if math.Abs(total-b.Prob) > Tolerance {
				return nil, fmt.Errorf("calculate hits hook %s at %s: %w: branch %.12f became %.12f",
					e.ID(), state.Stage, ErrProbabilityDrift, b.Prob, total)
			}
			next = append(next, res...)
		}
		branches = mergeBranches(next)
	}
	return branches, nil
}
