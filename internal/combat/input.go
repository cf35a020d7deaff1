package combat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
)

var (
	ErrUnknownCombatType = errors.New("unknown combat type")
	ErrUnknownUnitType   = errors.New("unknown unit type")
	ErrUnknownFaction    = errors.New("unknown faction")
	ErrUnknownTag        = errors.New("unknown tag")
	ErrTagScope          = errors.New("tag not allowed here")
	ErrNegativeCount     = errors.New("count must not be negative")
	ErrSustainExceeded   = errors.New("sustained hits exceed sustain capacity")
	ErrInvalidSettings   = errors.New("invalid tag settings")
)

// InputError reports a malformed input field.
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func inputErr(field string, err error) error {
	return &InputError{Field: field, Err: err}
}

// Setting is the configured value of a tag: present or not, plus an optional
// tag-specific encoded settings string. An empty value means the tag's
// default settings.
type Setting struct {
	Enabled bool
	Value   string
}

// On is a present tag with default settings.
func On() Setting {
	return Setting{Enabled: true}
}

// WithValue is a present tag with explicit encoded settings.
func WithValue(value string) Setting {
	return Setting{Enabled: true, Value: value}
}

func (s Setting) MarshalJSON() ([]byte, error) {
	if !s.Enabled || s.Value == "" {
		return json.Marshal(s.Enabled)
	}
	return json.Marshal(s.Value)
}

func (s *Setting) UnmarshalJSON(data []byte) error {
	var raw interface{}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	return s.fromRaw(raw)
}

func (s *Setting) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return s.fromRaw(raw)
}

func (s *Setting) fromRaw(raw interface{}) error {
	switch v := raw.(type) {
	case nil:
		*s = Setting{}
	case bool:
		*s = Setting{Enabled: v}
	case string:
		*s = WithValue(v)
	case json.Number:
		*s = WithValue(v.String())
	case int:
		*s = WithValue(strconv.Itoa(v))
	case float64:
		*s = WithValue(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return fmt.Errorf("%w: unsupported value %T", ErrInvalidSettings, raw)
	}
	return nil
}

// UnitInput is one unit instance of a participant.
type UnitInput struct {
	Type      catalog.UnitType          `json:"type" yaml:"type"`
	Sustained int                       `json:"sustained,omitempty" yaml:"sustained,omitempty"`
	Tags      map[catalog.TagID]Setting `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ParticipantInput is one side of the combat.
type ParticipantInput struct {
	Faction catalog.FactionID         `json:"faction" yaml:"faction"`
	Units   []UnitInput               `json:"units" yaml:"units"`
	Tags    map[catalog.TagID]Setting `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// CalculationInput is the complete configuration of one computation.
type CalculationInput struct {
	CombatType CombatType       `json:"combat_type" yaml:"combat_type"`
	Attacker   ParticipantInput `json:"attacker" yaml:"attacker"`
	Defender   ParticipantInput `json:"defender" yaml:"defender"`
}

// Participant returns the input of side.
func (in CalculationInput) Participant(side Side) ParticipantInput {
	if side == Attacker {
		return in.Attacker
	}
	return in.Defender
}

// initialState validates in and builds the first combat state.
func (e *Engine) initialState(in CalculationInput) (CombatState, error) {
	if !in.CombatType.valid() {
		return CombatState{}, inputErr("combat_type", fmt.Errorf("%w: %q", ErrUnknownCombatType, in.CombatType))
	}
	state := CombatState{Stage: firstStage(in.CombatType)}
	for _, side := range Sides {
		p, err := e.participantState(side.String(), in.Participant(side))
		if err != nil {
			return CombatState{}, err
		}
		state.Sides[side] = p
	}
	return state, nil
}

func (e *Engine) participantState(field string, in ParticipantInput) (ParticipantState, error) {
	if _, ok := e.catalog.Faction(in.Faction); !ok {
		return ParticipantState{}, inputErr(field+".faction", fmt.Errorf("%w: %q", ErrUnknownFaction, in.Faction))
	}
	units := make([]UnitState, 0, len(in.Units))
	for i, u := range in.Units {
		uf := fmt.Sprintf("%s.units[%d]", field, i)
		if !u.Type.Valid() {
			return ParticipantState{}, inputErr(uf+".type", ErrUnknownUnitType)
		}
		def, err := e.catalog.UnitFor(in.Faction, u.Type)
		if err != nil {
			return ParticipantState{}, inputErr(uf+".type", err)
		}
		if u.Sustained < 0 {
			return ParticipantState{}, inputErr(uf+".sustained", ErrNegativeCount)
		}
		if u.Sustained > def.Sustain {
			return ParticipantState{}, inputErr(uf+".sustained", fmt.Errorf("%w: %d > %d", ErrSustainExceeded, u.Sustained, def.Sustain))
		}
		tags, err := e.tagState(uf+".tags", catalog.ScopeUnit, u.Tags)
		if err != nil {
			return ParticipantState{}, err
		}
		units = append(units, UnitState{Type: u.Type, Sustained: u.Sustained, Tags: tags})
	}
	tags, err := e.tagState(field+".tags", catalog.ScopeParticipant, in.Tags)
	if err != nil {
		return ParticipantState{}, err
	}
	return NewParticipantState(units, tags), nil
}

// tagState validates configured tags and keeps the ones with an effect.
// Inert tags are dropped so that they cannot influence hashing or output.
func (e *Engine) tagState(field string, scope catalog.TagScope, in map[catalog.TagID]Setting) (TagState, error) {
	values := make(map[catalog.TagID]string, len(in))
	for id, setting := range in {
		tf := field + "." + string(id)
		info, ok := e.catalog.Tag(id)
		if !ok {
			return nil, inputErr(tf, ErrUnknownTag)
		}
		if info.Scope != scope {
			return nil, inputErr(tf, fmt.Errorf("%w: %s tag", ErrTagScope, info.Scope))
		}
		if !setting.Enabled {
			continue
		}
		effect, ok := e.registry.Lookup(id)
		if !ok || effect == nil {
			continue
		}
		value, err := normalizeSettings(effect, setting.Value)
		if err != nil {
			return nil, inputErr(tf, err)
		}
		values[id] = value
	}
	return newTagState(values), nil
}

func normalizeSettings(effect Effect, value string) (string, error) {
	codec, ok := effect.(SettingsCodec)
	if !ok {
		return "", nil
	}
	if value == "" {
		value = codec.DefaultSettings()
	}
	decoded, err := codec.DecodeSettings(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	encoded, err := codec.EncodeSettings(decoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return encoded, nil
}
