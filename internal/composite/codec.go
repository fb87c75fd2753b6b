package composite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/solatis/courier/internal/types"
)

// Converter turns raw editor values into composite trees and back.
type Converter interface {
	// Decode returns nil when raw is not a composite value for editorAlias.
	Decode(ctx context.Context, raw any, typeID types.LocalID, editorAlias string) *Value
	// Encode returns the canonical JSON text of v. Encode output must decode
	// back to an equal tree.
	Encode(v *Value) (string, error)
}

// SchemaSource supplies the type information a stored composite value omits.
type SchemaSource interface {
	// Schema returns the composite schema of a composite data type.
	Schema(ctx context.Context, typeID types.LocalID) (*Schema, bool)
	// EditorAlias returns the editor alias of any data type.
	EditorAlias(ctx context.Context, typeID types.LocalID) (string, bool)
}

// JSONConverter is the Converter for JSON-persisted composite values.
type JSONConverter struct {
	editorAlias string
	schemas     SchemaSource
}

// NewJSONConverter creates a converter for the composite editor. schemas may
// be nil, in which case values are decoded exactly as stored.
func NewJSONConverter(schemas SchemaSource) *JSONConverter {
	return &JSONConverter{
		editorAlias: types.CompositeEditorAlias,
		schemas:     schemas,
	}
}

// ForEditor returns a copy of c that decodes values of another editor alias.
func (c *JSONConverter) ForEditor(alias string) *JSONConverter {
	out := *c
	out.editorAlias = alias
	return &out
}

// Decode implements Converter.
//
// Accepted raw forms: JSON text (string, []byte, json.RawMessage), a decoded
// JSON tree (map[string]any), or an already structured Value. The value must
// be an object with a non-null fieldsets member.
//
// When a schema is known for typeID, the schema is authoritative for each
// property's typeLocalId, and a blank editorKind is filled from the property's
// data type.
func (c *JSONConverter) Decode(ctx context.Context, raw any, typeID types.LocalID, editorAlias string) *Value {
	if editorAlias != "" && !strings.EqualFold(editorAlias, c.editorAlias) {
		return nil
	}

	v, err := decodeValue(raw)
	if err != nil || v == nil || v.Fieldsets == nil {
		return nil
	}

	if c.schemas != nil {
		c.enrich(ctx, v, typeID)
	}
	return v
}

// Encode implements Converter.
func (c *JSONConverter) Encode(v *Value) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: encode composite value: %w", types.ErrMalformedPayload, err)
	}
	return string(data), nil
}

func (c *JSONConverter) enrich(ctx context.Context, v *Value, typeID types.LocalID) {
	schema, ok := c.schemas.Schema(ctx, typeID)
	if !ok || schema == nil {
		return
	}

	for _, f := range v.Fieldsets {
		if f == nil {
			continue
		}
		for _, p := range f.Properties {
			if p == nil {
				continue
			}
			if def := schema.Lookup(f.Alias, p.Alias); def != nil && def.TypeLocalID != 0 {
				p.TypeLocalID = def.TypeLocalID
			}
			if p.EditorAlias == "" && p.TypeLocalID != 0 {
				if alias, ok := c.schemas.EditorAlias(ctx, p.TypeLocalID); ok {
					p.EditorAlias = alias
				}
			}
		}
	}
}

// decodeValue normalises the accepted raw forms into a *Value.
func decodeValue(raw any) (*Value, error) {
	var data []byte
	switch r := raw.(type) {
	case nil:
		return nil, nil
	case *Value:
		// Resolution writes into the tree; decode a copy so the caller's
		// value survives a failed run.
		encoded, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		data = encoded
	case Value:
		encoded, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		data = encoded
	case string:
		data = []byte(r)
	case []byte:
		data = r
	case json.RawMessage:
		data = r
	case map[string]any:
		encoded, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		data = encoded
	default:
		return nil, fmt.Errorf("%w: unsupported composite value type %T", types.ErrMalformedPayload, raw)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("%w: composite value is not a JSON object", types.ErrMalformedPayload)
	}

	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrMalformedPayload, err)
	}
	return &v, nil
}

// ParseSchema decodes a composite schema from prevalue text.
func ParseSchema(text string) (*Schema, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty composite schema", types.ErrMalformedPayload)
	}

	var s Schema
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrMalformedPayload, err)
	}
	return &s, nil
}

// Catalog is a SchemaSource fed with the data types of the current run.
// Safe for concurrent use.
type Catalog struct {
	mu          sync.RWMutex
	preValue    string
	schemas     map[types.LocalID]*Schema
	editorAlias map[types.LocalID]string
}

// NewCatalog creates an empty catalog. Only WithPreValueAlias applies; pass
// the options the Rewriter of the same run uses.
func NewCatalog(opts ...Option) *Catalog {
	return &Catalog{
		preValue:    newOptions(opts).preValue,
		schemas:     make(map[types.LocalID]*Schema),
		editorAlias: make(map[types.LocalID]string),
	}
}

// Remember records def under id, the data type's local id in the
// environment whose values will be decoded next. Data types without a
// parseable composite prevalue contribute their editor alias only.
func (c *Catalog) Remember(def *types.DataType, id types.LocalID) {
	if def == nil {
		return
	}

	var schema *Schema
	if len(def.PreValues) > 0 && strings.EqualFold(def.PreValues[0].Alias, c.preValue) {
		schema, _ = ParseSchema(def.PreValues[0].Value)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if def.EditorAlias != "" {
		c.editorAlias[id] = def.EditorAlias
	}
	if schema != nil {
		c.schemas[id] = schema
	}
}

// Schema implements SchemaSource.
func (c *Catalog) Schema(_ context.Context, typeID types.LocalID) (*Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.schemas[typeID]
	return s, ok
}

// EditorAlias implements SchemaSource.
func (c *Catalog) EditorAlias(_ context.Context, typeID types.LocalID) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	alias, ok := c.editorAlias[typeID]
	return alias, ok
}
