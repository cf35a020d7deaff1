// Package catalog holds the static unit, faction and tag tables.
//
// The tables are YAML documents embedded in the binary and parsed once.
// A loaded Catalog is never mutated, so it can be shared by any number of
// concurrent computations.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v2"
)

var (
	ErrUnknownUnitType   = errors.New("unknown unit type")
	ErrUnknownFaction    = errors.New("unknown faction")
	ErrUnknownTag        = errors.New("unknown tag")
	ErrInvalidDefinition = errors.New("invalid catalog definition")
)

//go:embed library/*.yaml
var library embed.FS

// FactionID identifies a faction.
type FactionID string

// Faction is a playable faction. Only the flagship differs between factions
// at the catalog level; everything else is expressed through tags.
type Faction struct {
	ID       FactionID `yaml:"id" json:"id"`
	Name     string    `yaml:"name" json:"name"`
	Flagship Ability   `yaml:"flagship" json:"flagship"`
}

type tables struct {
	Units    []Definition `yaml:"units"`
	Factions []Faction    `yaml:"factions"`
	Tags     []TagInfo    `yaml:"tags"`
}

// Catalog is an immutable lookup over the static tables.
type Catalog struct {
	units    map[UnitType]Definition
	factions map[FactionID]Faction
	tags     map[TagID]TagInfo

	factionOrder []FactionID
	tagOrder     []TagID
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog built from the embedded tables. The embedded
// tables are part of the binary, so a parse failure is a programming error.
func Default() *Catalog {
	defaultOnce.Do(func() {
		var docs [3][]byte
		for i, name := range []string{"library/units.yaml", "library/factions.yaml", "library/tags.yaml"} {
			data, err := library.ReadFile(name)
			if err != nil {
				defaultErr = err
				return
			}
			docs[i] = data
		}
		defaultCatalog, defaultErr = Load(docs[0], docs[1], docs[2])
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("catalog: embedded library: %v", defaultErr))
	}
	return defaultCatalog
}

// Load parses and validates the unit, faction and tag tables.
func Load(units, factions, tags []byte) (*Catalog, error) {
	var t tables
	for _, doc := range [][]byte{units, factions, tags} {
		var part tables
		if err := yaml.UnmarshalStrict(doc, &part); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
		t.Units = append(t.Units, part.Units...)
		t.Factions = append(t.Factions, part.Factions...)
		t.Tags = append(t.Tags, part.Tags...)
	}

	c := &Catalog{
		units:    make(map[UnitType]Definition, len(t.Units)),
		factions: make(map[FactionID]Faction, len(t.Factions)),
		tags:     make(map[TagID]TagInfo, len(t.Tags)),
	}
	for _, d := range t.Units {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.units[d.Type]; dup {
			return nil, fmt.Errorf("%w: duplicate unit %s", ErrInvalidDefinition, d.Type)
		}
		c.units[d.Type] = d
	}
	for _, ut := range UnitTypes() {
		if _, ok := c.units[ut]; !ok {
			return nil, fmt.Errorf("%w: missing unit %s", ErrInvalidDefinition, ut)
		}
	}
	for _, f := range t.Factions {
		if f.ID == "" {
			return nil, fmt.Errorf("%w: faction without id", ErrInvalidDefinition)
		}
		if _, dup := c.factions[f.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate faction %s", ErrInvalidDefinition, f.ID)
		}
		c.factions[f.ID] = f
		c.factionOrder = append(c.factionOrder, f.ID)
	}
	for _, tag := range t.Tags {
		if err := tag.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.tags[tag.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate tag %s", ErrInvalidDefinition, tag.ID)
		}
		c.tags[tag.ID] = tag
		c.tagOrder = append(c.tagOrder, tag.ID)
	}
	return c, nil
}

// Unit returns the faction-independent definition of t.
func (c *Catalog) Unit(t UnitType) (Definition, bool) {
	d, ok := c.units[t]
	return d, ok
}

// UnitFor returns the definition of t as fielded by a faction.
func (c *Catalog) UnitFor(faction FactionID, t UnitType) (Definition, error) {
	d, ok := c.units[t]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownUnitType, t)
	}
	f, ok := c.factions[faction]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownFaction, faction)
	}
	if t == Flagship && f.Flagship.Combat > 0 {
		d.Combat = f.Flagship.Combat
		d.Rolls = f.Flagship.Rolls
	}
	return d, nil
}

// Units lists every definition in canonical order.
func (c *Catalog) Units() []Definition {
	out := make([]Definition, 0, len(c.units))
	for _, ut := range UnitTypes() {
		out = append(out, c.units[ut])
	}
	return out
}

// Faction looks up a faction by id.
func (c *Catalog) Faction(id FactionID) (Faction, bool) {
	f, ok := c.factions[id]
	return f, ok
}

// Factions lists the factions sorted by id.
func (c *Catalog) Factions() []Faction {
	ids := append([]FactionID(nil), c.factionOrder...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Faction, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.factions[id])
	}
	return out
}

// Tag looks up a tag by id.
func (c *Catalog) Tag(id TagID) (TagInfo, bool) {
	t, ok := c.tags[id]
	return t, ok
}

// Tags lists the tags in table order.
func (c *Catalog) Tags() []TagInfo {
	out := make([]TagInfo, 0, len(c.tagOrder))
	for _, id := range c.tagOrder {
		out = append(out, c.tags[id])
	}
	return out
}
