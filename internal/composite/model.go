package composite

import (
	"bytes"
	"encoding/json"

	"github.com/solatis/courier/internal/types"
)

/*
 * Composite schema and value trees.
 *
 * Both persist as JSON with the fieldsets -> properties nesting. Decoding is
 * permissive: members a struct does not declare are kept verbatim and written
 * back on encode, so a round trip through this package never drops data
 * written by a newer editor version. Numbers inside property values decode as
 * json.Number to avoid float rounding of large ids.
 */

// Schema is the allowed structure of a composite, stored as JSON in the
// composite data type's first prevalue.
type Schema struct {
	Fieldsets []*SchemaFieldset `json:"fieldsets"`
	extra     map[string]json.RawMessage
}

// SchemaFieldset is one fieldset definition.
type SchemaFieldset struct {
	Alias      string            `json:"alias,omitempty"`
	Properties []*SchemaProperty `json:"properties"`
	extra      map[string]json.RawMessage
}

// SchemaProperty is one property definition. Exactly one of TypeLocalID and
// TypeStableKey is authoritative depending on direction; the rewriter derives
// the other.
type SchemaProperty struct {
	Alias         string          `json:"alias"`
	TypeLocalID   types.LocalID   `json:"typeLocalId"`
	TypeStableKey types.StableKey `json:"typeStableKey"`
	extra         map[string]json.RawMessage
}

// Properties returns every property definition, fieldset by fieldset.
func (s *Schema) Properties() []*SchemaProperty {
	var out []*SchemaProperty
	for _, f := range s.Fieldsets {
		if f == nil {
			continue
		}
		for _, p := range f.Properties {
			if p != nil {
				out = append(out, p)
			}
		}
	}
	return out
}

// Lookup finds the definition for a property, preferring a match inside the
// named fieldset and falling back to the first property with that alias.
func (s *Schema) Lookup(fieldset, alias string) *SchemaProperty {
	var fallback *SchemaProperty
	for _, f := range s.Fieldsets {
		if f == nil {
			continue
		}
		for _, p := range f.Properties {
			if p == nil || p.Alias != alias {
				continue
			}
			if f.Alias == fieldset {
				return p
			}
			if fallback == nil {
				fallback = p
			}
		}
	}
	return fallback
}

// Value is a runtime composite instance.
type Value struct {
	Fieldsets []*Fieldset `json:"fieldsets"`
	extra     map[string]json.RawMessage
}

// Fieldset is one fieldset instance.
type Fieldset struct {
	Alias      string      `json:"alias,omitempty"`
	Properties []*Property `json:"properties"`
	extra      map[string]json.RawMessage
}

// Property is one property instance. Value holds a primitive, a resource
// reference, a generic JSON tree, or a nested *Value once resolved.
type Property struct {
	Alias       string        `json:"alias"`
	TypeLocalID types.LocalID `json:"typeLocalId"`
	EditorAlias string        `json:"editorKind"`
	Value       any           `json:"value"`
	Numeric     bool          `json:"numeric,omitempty"`
	extra       map[string]json.RawMessage
}

// Properties returns every property instance, fieldset by fieldset.
func (v *Value) Properties() []*Property {
	var out []*Property
	for _, f := range v.Fieldsets {
		if f == nil {
			continue
		}
		for _, p := range f.Properties {
			if p != nil {
				out = append(out, p)
			}
		}
	}
	return out
}

func (s Schema) MarshalJSON() ([]byte, error) {
	type plain Schema
	return encodeObject(plain(s), s.extra)
}

func (s *Schema) UnmarshalJSON(data []byte) error {
	type plain Schema
	var p plain
	extra, err := decodeObject(data, &p, "fieldsets")
	if err != nil {
		return err
	}
	*s = Schema(p)
	s.extra = extra
	return nil
}

func (f SchemaFieldset) MarshalJSON() ([]byte, error) {
	type plain SchemaFieldset
	return encodeObject(plain(f), f.extra)
}

func (f *SchemaFieldset) UnmarshalJSON(data []byte) error {
	type plain SchemaFieldset
	var p plain
	extra, err := decodeObject(data, &p, "alias", "properties")
	if err != nil {
		return err
	}
	*f = SchemaFieldset(p)
	f.extra = extra
	return nil
}

func (sp SchemaProperty) MarshalJSON() ([]byte, error) {
	type plain SchemaProperty
	return encodeObject(plain(sp), sp.extra)
}

func (sp *SchemaProperty) UnmarshalJSON(data []byte) error {
	type plain SchemaProperty
	var p plain
	extra, err := decodeObject(data, &p, "alias", "typeLocalId", "typeStableKey")
	if err != nil {
		return err
	}
	*sp = SchemaProperty(p)
	sp.extra = extra
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	type plain Value
	return encodeObject(plain(v), v.extra)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	type plain Value
	var p plain
	extra, err := decodeObject(data, &p, "fieldsets")
	if err != nil {
		return err
	}
	*v = Value(p)
	v.extra = extra
	return nil
}

func (f Fieldset) MarshalJSON() ([]byte, error) {
	type plain Fieldset
	return encodeObject(plain(f), f.extra)
}

func (f *Fieldset) UnmarshalJSON(data []byte) error {
	type plain Fieldset
	var p plain
	extra, err := decodeObject(data, &p, "alias", "properties")
	if err != nil {
		return err
	}
	*f = Fieldset(p)
	f.extra = extra
	return nil
}

func (p Property) MarshalJSON() ([]byte, error) {
	type plain Property
	return encodeObject(plain(p), p.extra)
}

func (p *Property) UnmarshalJSON(data []byte) error {
	type plain Property
	var pl plain
	extra, err := decodeObject(data, &pl, "alias", "typeLocalId", "editorKind", "value", "numeric")
	if err != nil {
		return err
	}
	*p = Property(pl)
	p.extra = extra
	return nil
}

// decodeObject decodes a JSON object into dst and returns the members whose
// names are not in known.
func decodeObject(data []byte, dst any, known ...string) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return nil, err
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	for _, name := range known {
		delete(members, name)
	}
	if len(members) == 0 {
		return nil, nil
	}
	return members, nil
}

// encodeObject encodes src and adds the preserved members back. Declared
// fields win over preserved members of the same name.
func encodeObject(src any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(src)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	for name, raw := range extra {
		if _, declared := members[name]; !declared {
			members[name] = raw
		}
	}
	return json.Marshal(members)
}
