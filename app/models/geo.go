package models

import (
	"encoding/json"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// RawProperties are the properties of an input road segment. Only the name
// is interpreted; every other member is carried through untouched.
type RawProperties struct {
	Name  *string                                         // nil when absent or not a string
	Extra *orderedmap.OrderedMap[string, json.RawMessage] // other members, in document order
}

// NameOrEmpty returns the segment name, "" when missing.
func (p *RawProperties) NameOrEmpty() string {
	if p == nil || p.Name == nil {
		return ""
	}
	return *p.Name
}

// Named reports whether the segment carries a non-blank name.
func (p *RawProperties) Named() bool {
	return strings.TrimSpace(p.NameOrEmpty()) != ""
}

func (p *RawProperties) UnmarshalJSON(data []byte) error {
	*p = RawProperties{}
	if isNull(data) {
		return nil
	}
	members := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, members); err != nil {
		return err
	}
	if raw, ok := members.Get("name"); ok {
		var name string
		if err := json.Unmarshal(raw, &name); err == nil {
			p.Name = &name
			members.Delete("name")
		}
	}
	p.Extra = members
	return nil
}

func (p RawProperties) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.members())
}

func (p RawProperties) members() *orderedmap.OrderedMap[string, any] {
	size := 1
	if p.Extra != nil {
		size += p.Extra.Len()
	}
	om := orderedmap.New[string, any](size)
	if p.Name != nil {
		om.Set("name", *p.Name)
	}
	if p.Extra != nil {
		for pair := p.Extra.Oldest(); pair != nil; pair = pair.Next() {
			om.Set(pair.Key, pair.Value)
		}
	}
	return om
}

// EnrichedProperties are the raw properties plus the attribution fields.
type EnrichedProperties struct {
	RawProperties
	Genero  string // matched genero, or "otro"
	Matched bool   // a registry entry matched the segment name
	HasName bool   // the raw name is non-blank
}

// MarshalJSON writes the raw members followed by genero, matched and hasName.
// Raw members with those keys are overwritten in place.
func (p EnrichedProperties) MarshalJSON() ([]byte, error) {
	om := p.RawProperties.members()
	om.Set("genero", p.Genero)
	om.Set("matched", p.Matched)
	om.Set("hasName", p.HasName)
	return json.Marshal(om)
}

func (p *EnrichedProperties) UnmarshalJSON(data []byte) error {
	*p = EnrichedProperties{}
	if err := p.RawProperties.UnmarshalJSON(data); err != nil {
		return err
	}
	if p.Extra == nil {
		return nil
	}
	if raw, ok := p.Extra.Get("genero"); ok {
		_ = json.Unmarshal(raw, &p.Genero)
		p.Extra.Delete("genero")
	}
	if raw, ok := p.Extra.Get("matched"); ok {
		_ = json.Unmarshal(raw, &p.Matched)
		p.Extra.Delete("matched")
	}
	if raw, ok := p.Extra.Get("hasName"); ok {
		_ = json.Unmarshal(raw, &p.HasName)
		p.Extra.Delete("hasName")
	}
	return nil
}

// GeoFeature is one road segment. Geometry is opaque.
type GeoFeature struct {
	Type       string          `json:"type"`
	ID         json.RawMessage `json:"id,omitempty"`
	BBox       json.RawMessage `json:"bbox,omitempty"`
	Properties *RawProperties  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// EnrichedFeature is a GeoFeature after annotation.
type EnrichedFeature struct {
	Type       string             `json:"type"`
	ID         json.RawMessage    `json:"id,omitempty"`
	BBox       json.RawMessage    `json:"bbox,omitempty"`
	Properties EnrichedProperties `json:"properties"`
	Geometry   json.RawMessage    `json:"geometry"`
}

// GeoCollection is a GeoJSON FeatureCollection of road segments.
type GeoCollection struct {
	Type     string          `json:"type"`
	Name     string          `json:"name,omitempty"`
	CRS      json.RawMessage `json:"crs,omitempty"`
	BBox     json.RawMessage `json:"bbox,omitempty"`
	Features []GeoFeature    `json:"features"`
}

// EnrichedCollection is the annotated counterpart of GeoCollection.
type EnrichedCollection struct {
	Type     string            `json:"type"`
	Name     string            `json:"name,omitempty"`
	CRS      json.RawMessage   `json:"crs,omitempty"`
	BBox     json.RawMessage   `json:"bbox,omitempty"`
	Features []EnrichedFeature `json:"features"`
}

const FeatureCollectionType = "FeatureCollection"

// WithFeatures returns a shallow copy of c holding features instead.
func (c *EnrichedCollection) WithFeatures(features []EnrichedFeature) *EnrichedCollection {
	out := *c
	out.Features = features
	return &out
}
