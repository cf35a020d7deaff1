package effects

import (
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/combat"
)

// shieldsHolding cancels up to two hits scored against the owning side in a
// space combat round. A use is spent only when a hit was cancelled.
type shieldsHolding struct{}

const shieldsHoldingCancels = 2

func (shieldsHolding) ID() catalog.TagID { return catalog.ShieldsHolding }

func (shieldsHolding) DefaultSettings() string { return usesCodec.DefaultSettings() }

func (shieldsHolding) DecodeSettings(value string) (any, error) {
	return usesCodec.DecodeSettings(value)
}

func (shieldsHolding) EncodeSettings(settings any) (string, error) {
	return usesCodec.EncodeSettings(settings)
}

func (s shieldsHolding) PreAssignOpponentHits(ctx combat.HookContext, r combat.Resolution) (combat.Resolution, error) {
	uses := intValue(ctx.Value)
	opp := ctx.Side.Opponent()
	if ctx.Stage != combat.StageSpaceCombat || uses < 1 || r.Hits[opp].Total() == 0 {
		return r, nil
	}
	left := shieldsHoldingCancels
	for _, k := range r.Hits[opp].Keys() {
		c := r.Hits[opp][k]
		n := c.Hits
		if n > left {
			n = left
		}
		c.Hits -= n
		r.Hits[opp][k] = c
		left -= n
		if left == 0 {
			break
		}
	}
	r.Tags[ctx.Side] = consume(r.Tags[ctx.Side], s.ID(), uses)
	return r, nil
}

// fireTeam re-rolls every missed combat roll of a ground combat round once.
// A use is spent only when there was a miss to re-roll.
type fireTeam struct{}

func (fireTeam) ID() catalog.TagID { return catalog.FireTeam }

func (fireTeam) DefaultSettings() string { return usesCodec.DefaultSettings() }

func (fireTeam) DecodeSettings(value string) (any, error) { return usesCodec.DecodeSettings(value) }

func (fireTeam) EncodeSettings(settings any) (string, error) {
	return usesCodec.EncodeSettings(settings)
}

func (f fireTeam) CalculateHits(ctx combat.HookContext, b combat.HitBranch) ([]combat.HitBranch, error) {
	uses := intValue(ctx.Value)
	if ctx.Stage != combat.StageGroundCombat || uses < 1 || !hasMisses(b.Hits) {
		return []combat.HitBranch{b}, nil
	}
	out := combat.Reroll(b)
	tags := consume(b.Tags, f.ID(), uses)
	for i := range out {
		out[i].Tags = tags
	}
	return out, nil
}

func hasMisses(h combat.Hits) bool {
	for k, c := range h {
		if k.CombatRoll() && k.Value() > 0 && c.Misses() > 0 {
			return true
		}
	}
	return false
}

// valkyrieParticleWeave produces one extra hit in a ground combat round in
// which the opponent scored at least one hit.
type valkyrieParticleWeave struct{}

func (valkyrieParticleWeave) ID() catalog.TagID { return catalog.ValkyrieParticleWeave }

func (valkyrieParticleWeave) PreAssignHits(ctx combat.HookContext, r combat.Resolution) (combat.Resolution, error) {
	if ctx.Stage != combat.StageGroundCombat || r.Hits[ctx.Side.Opponent()].Total() == 0 {
		return r, nil
	}
	r.Hits[ctx.Side] = r.Hits[ctx.Side].Add(combat.AutomaticHit(combat.HitStandard), 1, 0)
	return r, nil
}
