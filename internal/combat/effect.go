package combat

import (
	"fmt"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
)

// Effect is the implementation of a tag. Besides ID it implements any subset
// of the hook interfaces below; the engine detects them by type assertion.
//
// Hooks receive copies and return new values. A hook that fails must return
// an error and no partial result; the computation is aborted.
type Effect interface {
	ID() catalog.TagID
}

// SnapshotHook adjusts the owning side's unit snapshots.
type SnapshotHook interface {
	ComputeSnapshots(ctx HookContext, units []Snapshot) ([]Snapshot, error)
}

// OpponentSnapshotHook adjusts the opposing side's unit snapshots.
type OpponentSnapshotHook interface {
	ComputeOpponentSnapshots(ctx HookContext, units []Snapshot) ([]Snapshot, error)
}

// UnitSnapshotHook adjusts the snapshot of a unit carrying the tag.
// value is the unit's own tag value.
type UnitSnapshotHook interface {
	ComputeUnitSnapshot(ctx HookContext, unit Snapshot, value string) (Snapshot, error)
}

// PreAssignHook rewrites the owning side's hits before they are assigned.
type PreAssignHook interface {
	PreAssignHits(ctx HookContext, r Resolution) (Resolution, error)
}

// OpponentPreAssignHook rewrites the opposing side's hits before they are
// assigned.
type OpponentPreAssignHook interface {
	PreAssignOpponentHits(ctx HookContext, r Resolution) (Resolution, error)
}

// CalculateHitsHook rewrites a whole roll outcome of the owning side. The
// returned branches must carry the probability of the input branch in total.
type CalculateHitsHook interface {
	CalculateHits(ctx HookContext, branch HitBranch) ([]HitBranch, error)
}

// SettingsCodec is implemented by tags that take settings. The engine only
// uses it to validate and normalize configured values; the textual form is
// also what persistence layers store.
type SettingsCodec interface {
	DefaultSettings() string
	DecodeSettings(value string) (any, error)
	EncodeSettings(settings any) (string, error)
}

// HookContext is what a hook knows about the stage it runs in.
type HookContext struct {
	Stage      Stage
	CombatType CombatType
	Side       Side
	Faction    catalog.FactionID

	// OpponentFaction is the faction of the Opponent units.
	OpponentFaction catalog.FactionID

	// Value is the owning side's current value of the tag.
	Value    string
	Own      ParticipantState
	Opponent ParticipantState
	Catalog  *catalog.Catalog
}

// Resolution is the pending outcome of one branch of a stage: hits scored by
// each side, the snapshots hits will be assigned to, and each side's tag
// state after the stage.
type Resolution struct {
	Hits      [2]Hits
	Snapshots [2][]Snapshot
	Tags      [2]TagState
}

func (r Resolution) clone() Resolution {
	out := r
	for _, side := range Sides {
		out.Hits[side] = r.Hits[side].Clone()
		out.Snapshots[side] = cloneSnapshots(r.Snapshots[side])
	}
	return out
}

// Registry maps tag ids to effects in a declared order. Hooks of the same
// kind run in that order, and later hooks observe what earlier ones did.
type Registry struct {
	order   []catalog.TagID
	effects map[catalog.TagID]Effect
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{effects: make(map[catalog.TagID]Effect)}
}

// Register appends effects in order. Registering an id twice panics.
func (r *Registry) Register(effects ...Effect) *Registry {
	for _, e := range effects {
		r.add(e.ID(), e)
	}
	return r
}

// Inert declares tags that are known but not implemented. They are accepted
// in input and have no effect.
func (r *Registry) Inert(ids ...catalog.TagID) *Registry {
	for _, id := range ids {
		r.add(id, nil)
	}
	return r
}

func (r *Registry) add(id catalog.TagID, e Effect) {
	if _, dup := r.effects[id]; dup {
		panic(fmt.Sprintf("combat: tag %s registered twice", id))
	}
	r.effects[id] = e
	r.order = append(r.order, id)
}

// Lookup returns the effect of id. A nil effect with ok true means the tag
// is known but inert.
func (r *Registry) Lookup(id catalog.TagID) (Effect, bool) {
	e, ok := r.effects[id]
	return e, ok
}

// Implemented reports whether id has an effect.
func (r *Registry) Implemented(id catalog.TagID) bool {
	e, ok := r.effects[id]
	return ok && e != nil
}

// IDs lists every registered id in declared order.
func (r *Registry) IDs() []catalog.TagID {
	return append([]catalog.TagID(nil), r.order...)
}

// active returns the effects present in tags, in declared order.
func (r *Registry) active(tags TagState) []Effect {
	var out []Effect
	for _, id := range r.order {
		e := r.effects[id]
		if e != nil && tags.Has(id) {
			out = append(out, e)
		}
	}
	return out
}
