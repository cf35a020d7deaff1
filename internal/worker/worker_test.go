package worker

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/combat"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/effects"
)

func duel() combat.CalculationInput {
	return combat.CalculationInput{
		CombatType: combat.SpaceCombat,
		Attacker:   combat.ParticipantInput{Faction: "sol", Units: []combat.UnitInput{{Type: catalog.Fighter}}},
		Defender:   combat.ParticipantInput{Faction: "hacan", Units: []combat.UnitInput{{Type: catalog.Fighter}}},
	}
}

func newPool(workers int) *Pool {
	engine := combat.NewEngine(catalog.Default(), effects.Default(), combat.Options{})
	return NewPool(engine, workers, nil)
}

func TestPoolCompute(t *testing.T) {
	p := newPool(2)
	out, err := p.Compute(context.Background(), duel())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if out.Victors.Attacker <= 0 || out.Victors.Attacker != out.Victors.Defender {
		t.Fatalf("unexpected victors %+v", out.Victors)
	}
}

func TestPoolComputeInputError(t *testing.T) {
	in := duel()
	in.Attacker.Faction = "nobody"
	_, err := newPool(1).Compute(context.Background(), in)
	if !errors.Is(err, combat.ErrUnknownFaction) {
		t.Fatalf("expected unknown faction, got %v", err)
	}
}

func TestPoolComputeCancelledWhileWaiting(t *testing.T) {
	p := newPool(1)
	if err := p.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer p.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Compute(ctx, duel()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSessionDiscardsStaleResults(t *testing.T) {
	p := newPool(1)
	// Hold the only slot so both submissions finish after the second one
	// became the latest.
	if err := p.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	var delivered []Result
	var accepted []string
	s := p.NewSession(func(r Result) { delivered = append(delivered, r) })
	s.OnAccept(func(token string) { accepted = append(accepted, token) })
	first := s.Submit(context.Background(), duel())
	second := s.Submit(context.Background(), duel())
	if first == second {
		t.Fatal("tokens must be unique")
	}
	if len(accepted) != 2 || accepted[0] != first || accepted[1] != second {
		t.Fatalf("unexpected accepted tokens %v", accepted)
	}
	if s.Latest() != second {
		t.Fatalf("expected latest %s, got %s", second, s.Latest())
	}

	p.sem.Release(1)
	s.Wait()

	if len(delivered) != 1 || delivered[0].Token != second {
		t.Fatalf("expected only %s delivered, got %+v", second, delivered)
	}
	if delivered[0].Err != nil {
		t.Fatalf("unexpected error %v", delivered[0].Err)
	}
	if s.Discarded() != 1 {
		t.Fatalf("expected 1 discarded result, got %d", s.Discarded())
	}
}

func TestSessionSkipsSupersededSubmissions(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	engine := combat.NewEngine(catalog.Default(), effects.Default(), combat.Options{})
	p := NewPool(engine, 1, zap.New(core))
	if err := p.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	var delivered []Result
	s := p.NewSession(func(r Result) { delivered = append(delivered, r) })
	for i := 0; i < 3; i++ {
		s.Submit(context.Background(), duel())
	}
	p.sem.Release(1)
	s.Wait()

	if n := logs.FilterMessage("computation done").Len(); n != 1 {
		t.Fatalf("expected 1 computation, got %d", n)
	}
	if len(delivered) != 1 || delivered[0].Token != s.Latest() {
		t.Fatalf("expected only the latest result, got %+v", delivered)
	}
	if s.Discarded() != 2 {
		t.Fatalf("expected 2 discarded submissions, got %d", s.Discarded())
	}
}
