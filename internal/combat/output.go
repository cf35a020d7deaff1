package combat

import (
	"fmt"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
)

// Victors holds the probability of each terminal outcome. Mass that never
// reached a terminal state before the round cap is Undetermined.
type Victors struct {
	Attacker     float64 `json:"attacker"`
	Defender     float64 `json:"defender"`
	Draw         float64 `json:"draw"`
	Undetermined float64 `json:"undetermined"`
}

// Sum is the total terminal probability.
func (v Victors) Sum() float64 {
	return v.Attacker + v.Defender + v.Draw
}

// StageResult summarizes one resolved stage. ExpectedHits is the mean
// number of hits each side scored given the stage was reached, and
// AssignedHits the mean number of those that landed on a unit.
type StageResult struct {
	Stage        Stage      `json:"stage"`
	Round        int        `json:"round,omitempty"`
	Reached      float64    `json:"reached"`
	Victors      Victors    `json:"victors"`
	ExpectedHits [2]float64 `json:"expected_hits"`
	AssignedHits [2]float64 `json:"assigned_hits"`
}

// Key identifies the stage instance, e.g. "space_combat#2". Non-repeating
// stages use round 0.
func (r StageResult) Key() string {
	return fmt.Sprintf("%s#%d", r.Stage, r.Round)
}

// SurvivorStats describes a side's surviving forces over all final states.
type SurvivorStats struct {
	// Counts maps a number of surviving targetable units to its probability.
	Counts map[int]float64 `json:"counts"`
	// Expected is the mean number of surviving units per type.
	Expected map[catalog.UnitType]float64 `json:"expected"`
}

// Diagnostics reports what simplification did to a computation.
type Diagnostics struct {
	// MaxBranchCount is the largest number of roll branches one side would
	// have produced in a stage without simplification.
	MaxBranchCount  float64 `json:"max_branch_count"`
	Simplifications int     `json:"simplifications"`
	// Redistributed is the probability moved to restore table means.
	Redistributed float64 `json:"redistributed"`
	MemoHits      int     `json:"memo_hits"`
	MemoMisses    int     `json:"memo_misses"`
}

// CalculationOutput is the result of Compute.
type CalculationOutput struct {
	Victors     Victors                  `json:"victors"`
	Stages      []StageResult            `json:"stages"`
	FinalStates []CombatStateProbability `json:"final_states"`
	Survivors   [2]SurvivorStats         `json:"survivors"`
	// Diagnostics is set when simplification was requested.
	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`
}

// Empty reports whether the computation had nothing to resolve.
func (o CalculationOutput) Empty() bool {
	return len(o.FinalStates) == 0
}

// StageMap indexes Stages by Key.
func (o CalculationOutput) StageMap() map[string]StageResult {
	m := make(map[string]StageResult, len(o.Stages))
	for _, r := range o.Stages {
		m[r.Key()] = r
	}
	return m
}
