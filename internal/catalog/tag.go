package catalog

import "fmt"

// TagID identifies a rule modifier: a technology, faction ability, action
// card, leader, situational condition or per-unit attribute.
type TagID string

// Known tag identifiers. The catalog tables describe each one; whether a tag
// changes combat is decided by the effect registry, not here.
const (
	HylarVAssaultLaser      TagID = "hylar_v_assault_laser"
	AdvancedFighters        TagID = "advanced_fighters"
	Cybernetics             TagID = "cybernetics"
	AutomatedDefenseTurrets TagID = "automated_defense_turrets"
	AssaultCannon           TagID = "assault_cannon"
	GravitonLaserSystem     TagID = "graviton_laser_system"
	PlasmaScoring           TagID = "plasma_scoring"
	ManeuveringJets         TagID = "maneuvering_jets"
	ValkyrieParticleWeave   TagID = "valkyrie_particle_weave"
	DeepSpaceCannon         TagID = "deep_space_cannon"
	DuraniumArmor           TagID = "duranium_armor"
	MagenDefenseGrid        TagID = "magen_defense_grid"
	X89BacterialWeapon      TagID = "x89_bacterial_weapon"

	SardakkUnrelenting TagID = "sardakk_unrelenting"
	JolNarFragile      TagID = "jolnar_fragile"
	MentakAmbush       TagID = "mentak_ambush"

	General TagID = "general"

	MoraleBoost    TagID = "morale_boost"
	ShieldsHolding TagID = "shields_holding"
	FireTeam       TagID = "fire_team"
	Disable        TagID = "disable"
	DirectHit      TagID = "direct_hit"

	Nebula TagID = "nebula"

	Admiral        TagID = "admiral"
	CombatModifier TagID = "combat_modifier"
)

// TagKind groups tags for presentation.
type TagKind string

const (
	KindTechnology  TagKind = "technology"
	KindAbility     TagKind = "ability"
	KindAction      TagKind = "action"
	KindLeader      TagKind = "leader"
	KindSituational TagKind = "situational"
	KindUnit        TagKind = "unit"
)

// TagScope tells whether a tag attaches to a participant or to a single unit.
type TagScope string

const (
	ScopeParticipant TagScope = "participant"
	ScopeUnit        TagScope = "unit"
)

// TagInfo is the catalog entry for a tag.
type TagInfo struct {
	ID          TagID    `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Kind        TagKind  `yaml:"kind" json:"kind"`
	Scope       TagScope `yaml:"scope" json:"scope"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
}

func (t TagInfo) validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: tag without id", ErrInvalidDefinition)
	}
	switch t.Scope {
	case ScopeParticipant, ScopeUnit:
	default:
		return fmt.Errorf("%s: %w: scope %q", t.ID, ErrInvalidDefinition, t.Scope)
	}
	switch t.Kind {
	case KindTechnology, KindAbility, KindAction, KindLeader, KindSituational, KindUnit:
	default:
		return fmt.Errorf("%s: %w: kind %q", t.ID, ErrInvalidDefinition, t.Kind)
	}
	return nil
}
