package combat

import (
	"math"
	"testing"
)

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %.12f, want %.12f", name, got, want)
	}
}

func TestHitProbability(t *testing.T) {
	tests := []struct {
		value int
		want  float64
	}{
		{value: 1, want: 1.0},
		{value: 5, want: 0.6},
		{value: 9, want: 0.2},
		{value: 10, want: 0.1},
		{value: 0, want: 1.0},
		{value: 14, want: 0.1},
	}
	for _, tt := range tests {
		approx(t, "HitProbability", HitProbability(tt.value), tt.want)
	}
}

func TestBinomial(t *testing.T) {
	got := Binomial(3, 0.4)
	want := []float64{0.216, 0.432, 0.288, 0.064}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for k, w := range want {
		if got[k].Hits != k {
			t.Fatalf("entry %d has %d hits", k, got[k].Hits)
		}
		approx(t, "P", got[k].Prob, w)
	}
}

func TestBinomialLargeSumsToOne(t *testing.T) {
	total := 0.0
	for _, o := range Binomial(1500, 0.3) {
		total += o.Prob
	}
	approx(t, "total", total, 1)
}

func TestBinomialCertainty(t *testing.T) {
	got := Binomial(4, 1)
	approx(t, "P(4)", got[4].Prob, 1)
	approx(t, "P(3)", got[3].Prob, 0)
}

func TestConvolveMergesBranches(t *testing.T) {
	key := MakeHitKey(HitStandard, 9, true)
	start := []HitBranch{{Hits: Hits{}, Prob: 1}}
	one := []Outcome{{Hits: 0, Prob: 0.8}, {Hits: 1, Prob: 0.2}}

	// Two independent single rolls must merge into a three-entry distribution.
	got := convolve(convolve(start, key, 1, one), key, 1, one)
	if len(got) != 3 {
		t.Fatalf("branches = %d, want 3", len(got))
	}
	probs := map[int]float64{}
	for _, b := range got {
		if b.Hits[key].Rolls != 2 {
			t.Fatalf("rolls = %d, want 2", b.Hits[key].Rolls)
		}
		probs[b.Hits[key].Hits] += b.Prob
	}
	approx(t, "P(0)", probs[0], 0.64)
	approx(t, "P(1)", probs[1], 0.32)
	approx(t, "P(2)", probs[2], 0.04)
}

func TestReroll(t *testing.T) {
	key := MakeHitKey(HitStandard, 9, true)
	auto := AutomaticHit(HitStandard)
	in := HitBranch{Hits: Hits{key: {Hits: 0, Rolls: 2}, auto: {Hits: 1}}, Prob: 0.5}

	got := Reroll(in)
	total := 0.0
	probs := map[int]float64{}
	for _, b := range got {
		total += b.Prob
		probs[b.Hits[key].Hits] += b.Prob
		if b.Hits[auto].Hits != 1 {
			t.Fatalf("automatic hits changed: %+v", b.Hits[auto])
		}
	}
	approx(t, "total", total, 0.5)
	approx(t, "P(0)", probs[0], 0.5*0.64)
	approx(t, "P(2)", probs[2], 0.5*0.04)
}

func TestHitKeyRoundTrip(t *testing.T) {
	for _, cat := range []HitCategory{HitStandard, HitNonFighterIfAble, HitNonFighter, HitFighter} {
		for v := 0; v <= MaxCombatValue; v++ {
			for _, roll := range []bool{true, false} {
				k := MakeHitKey(cat, v, roll)
				gc, gv, gr := k.Unpack()
				if gc != cat || gv != v || gr != roll {
					t.Fatalf("MakeHitKey(%s, %d, %t) unpacked to (%s, %d, %t)", cat, v, roll, gc, gv, gr)
				}
			}
		}
	}
}

func TestHitKeyOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MakeHitKey(HitStandard, MaxCombatValue+1, true)
}

func TestHitsKeysOrder(t *testing.T) {
	h := Hits{
		MakeHitKey(HitStandard, 5, true):   {Hits: 1},
		MakeHitKey(HitFighter, 9, true):    {Hits: 1},
		MakeHitKey(HitNonFighter, 6, true): {Hits: 1},
	}
	keys := h.Keys()
	want := []HitCategory{HitFighter, HitNonFighter, HitStandard}
	for i, k := range keys {
		if k.Category() != want[i] {
			t.Fatalf("key %d category = %s, want %s", i, k.Category(), want[i])
		}
	}
	if h.Total() != 3 {
		t.Fatalf("total = %d, want 3", h.Total())
	}
}
