package combat

import (
	"math"
	"sort"
)

// Bucket is one value of a discrete distribution.
type Bucket struct {
	Value float64 `json:"value"`
	Prob  float64 `json:"prob"`
}

// Mean is the probability-weighted mean of dist.
func Mean(dist []Bucket) float64 {
	m := 0.0
	for _, b := range dist {
		m += b.Value * b.Prob
	}
	return m
}

// Simplify reduces dist to at most target buckets. The least probable bucket
// is folded into its nearest neighbour by value, the merged bucket taking the
// probability-weighted value of both, until the target is reached. Values
// are then rounded to integers (the lowest down, the highest up, so they
// still enclose the mean) and probability is moved toward the extreme
// buckets until the mean matches the original again. It returns the reduced
// distribution and how much probability was moved to restore the mean.
// Total probability is unchanged and every value stays within the range of
// dist. A single bucket cannot carry a non-integer mean, so targets below 2
// only preserve the total.
//
// This is a lossy approximation; callers use it only to bound branching.
func Simplify(dist []Bucket, target int) ([]Bucket, float64) {
	out := make([]Bucket, 0, len(dist))
	for _, b := range dist {
		if b.Prob > 0 {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	if target < 1 || len(out) <= target {
		return out, 0
	}
	mean := Mean(out)

	for len(out) > target {
		least := 0
		for i := range out {
			if out[i].Prob < out[least].Prob {
				least = i
			}
		}
		into := nearestNeighbour(out, least)
		a, b := out[into], out[least]
		p := a.Prob + b.Prob
		out[into] = Bucket{Value: (a.Value*a.Prob + b.Value*b.Prob) / p, Prob: p}
		out = append(out[:least], out[least+1:]...)
	}

	last := len(out) - 1
	rounded := out[:0]
	for i, b := range out {
		switch i {
		case 0:
			b.Value = math.Floor(b.Value)
		case last:
			b.Value = math.Ceil(b.Value)
		default:
			b.Value = math.Round(b.Value)
		}
		if n := len(rounded); n > 0 && rounded[n-1].Value == b.Value {
			rounded[n-1].Prob += b.Prob
			continue
		}
		rounded = append(rounded, b)
	}
	out = rounded
	if len(out) < 2 {
		return out, 0
	}
	moved := restoreMean(out, mean)

	nonEmpty := out[:0]
	for _, b := range out {
		if b.Prob > 0 {
			nonEmpty = append(nonEmpty, b)
		}
	}
	return nonEmpty, moved
}

func nearestNeighbour(dist []Bucket, i int) int {
	switch {
	case i == 0:
		return 1
	case i == len(dist)-1:
		return i - 1
	}
	below := dist[i].Value - dist[i-1].Value
	above := dist[i+1].Value - dist[i].Value
	switch {
	case below < above:
		return i - 1
	case above < below:
		return i + 1
	case dist[i-1].Prob >= dist[i+1].Prob:
		return i - 1
	default:
		return i + 1
	}
}

// restoreMean moves probability from the far end of dist to the bucket at
// the other end until the mean equals want. dist is sorted by value.
func restoreMean(dist []Bucket, want float64) float64 {
	moved := 0.0
	diff := want - Mean(dist)
	if math.Abs(diff) < 1e-15 {
		return 0
	}
	if diff > 0 {
		top := len(dist) - 1
		for i := 0; i < top && diff > 1e-15; i++ {
			step := dist[top].Value - dist[i].Value
			amount := math.Min(dist[i].Prob, diff/step)
			dist[i].Prob -= amount
			dist[top].Prob += amount
			diff -= amount * step
			moved += amount
		}
		return moved
	}
	for i := len(dist) - 1; i > 0 && diff < -1e-15; i-- {
		step := dist[i].Value - dist[0].Value
		amount := math.Min(dist[i].Prob, -diff/step)
		dist[i].Prob -= amount
		dist[0].Prob += amount
		diff += amount * step
		moved += amount
	}
	return moved
}

// simplifyTable applies Simplify to a hit-count table and records how much
// probability it moved.
func (c *computation) simplifyTable(table []Outcome, target int) []Outcome {
	dist := make([]Bucket, len(table))
	for i, o := range table {
		dist[i] = Bucket{Value: float64(o.Hits), Prob: o.Prob}
	}
	reduced, moved := Simplify(dist, target)
	c.diag.Redistributed += moved
	c.diag.Simplifications++
	out := make([]Outcome, len(reduced))
	for i, b := range reduced {
		out[i] = Outcome{Hits: int(b.Value), Prob: b.Prob}
	}
	return out
}
