// Package worker runs combat computations off the caller's goroutine.
//
// A Pool bounds how many computations run at once. A Session belongs to one
// client: every submission gets a fresh token, and a result is delivered
// only if no newer submission was made while it was computing.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/combat"
)

// ErrStale reports a submission superseded before it started computing.
var ErrStale = errors.New("submission superseded")

// Pool runs computations on a shared engine.
type Pool struct {
	engine *combat.Engine
	sem    *semaphore.Weighted
	logger *zap.Logger
}

// NewPool returns a pool running at most workers computations at once.
func NewPool(engine *combat.Engine, workers int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{engine: engine, sem: semaphore.NewWeighted(int64(workers)), logger: logger}
}

// Engine returns the engine the pool computes with.
func (p *Pool) Engine() *combat.Engine {
	return p.engine
}

// Compute waits for a free slot and runs one computation. ctx only bounds
// the wait; a started computation runs to completion.
func (p *Pool) Compute(ctx context.Context, in combat.CalculationInput) (combat.CalculationOutput, error) {
	return p.compute(ctx, in, nil)
}

// compute runs in once a slot is free. If current is set and reports false
// by then, the computation is skipped with ErrStale.
func (p *Pool) compute(ctx context.Context, in combat.CalculationInput, current func() bool) (combat.CalculationOutput, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return combat.CalculationOutput{}, err
	}
	defer p.sem.Release(1)
	if current != nil && !current() {
		return combat.CalculationOutput{}, ErrStale
	}

	start := time.Now()
	out, err := p.engine.Compute(in)
	if err != nil {
		p.logger.Warn("computation failed", zap.Error(err))
		return combat.CalculationOutput{}, err
	}
	p.logger.Info("computation done",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("stages", len(out.Stages)),
		zap.Int("final_states", len(out.FinalStates)),
		zap.Float64("attacker", out.Victors.Attacker),
		zap.Float64("defender", out.Victors.Defender),
		zap.Float64("draw", out.Victors.Draw))
	return out, nil
}

// Result is a completed submission.
type Result struct {
	Token   string
	Output  combat.CalculationOutput
	Err     error
	Elapsed time.Duration
}

// Session tracks the latest submission of one client.
type Session struct {
	pool    *Pool
	deliver func(Result)
	accept  func(token string)

	mu        sync.Mutex
	latest    string
	discarded int
	wg        sync.WaitGroup
}

// NewSession returns a session that hands current results to deliver.
// deliver is never called concurrently.
func (p *Pool) NewSession(deliver func(Result)) *Session {
	return &Session{pool: p, deliver: deliver}
}

// OnAccept registers fn to be called with every new token before its
// computation starts. Set it before the first Submit.
func (s *Session) OnAccept(fn func(token string)) {
	s.accept = fn
}

// Submit starts computing in and returns its token. Any earlier submission
// still running becomes stale.
func (s *Session) Submit(ctx context.Context, in combat.CalculationInput) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.latest = token
	s.mu.Unlock()
	if s.accept != nil {
		s.accept(token)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		start := time.Now()
		out, err := s.pool.compute(ctx, in, func() bool { return s.Latest() == token })

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.latest != token || errors.Is(err, ErrStale) {
			s.discarded++
			s.pool.logger.Debug("discarding stale result", zap.String("token", token), zap.String("latest", s.latest))
			return
		}
		s.deliver(Result{Token: token, Output: out, Err: err, Elapsed: time.Since(start)})
	}()
	return token
}

// Latest is the token of the newest submission.
func (s *Session) Latest() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Discarded counts results dropped as stale.
func (s *Session) Discarded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discarded
}

// Wait blocks until every submission has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}
