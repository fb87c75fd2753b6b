package composite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/solatis/courier/internal/identity"
	"github.com/solatis/courier/internal/types"
)

/*
 * Type reference rewriting for composite data types.
 *
 * A composite data type stores its schema as JSON in prevalue 0. Each
 * property definition references another data type twice: by local id and by
 * stable key. Packaging derives the stable key from the local id and records
 * a data type dependency; extracting derives the local id from the stable
 * key. The schema is written back even when some lookups missed, keeping
 * whatever part did translate.
 */

// Rewriter rewrites type references inside composite data type schemas.
type Rewriter struct {
	ids  identity.Map
	opts options
}

// NewRewriter creates a rewriter over an identifier map.
func NewRewriter(ids identity.Map, opts ...Option) *Rewriter {
	return &Rewriter{ids: ids, opts: newOptions(opts)}
}

// Rewrite translates def's composite schema in place. It is a no-op when def
// has no composite prevalue, the prevalue is blank or unparseable, or the
// schema has no fieldsets. Lookup misses leave the field untouched.
func (r *Rewriter) Rewrite(ctx context.Context, def *types.DataType, direction types.Direction) {
	if def == nil || len(def.PreValues) == 0 {
		return
	}
	if direction != types.Packaging && direction != types.Extracting {
		return
	}

	pv := &def.PreValues[0]
	if !strings.EqualFold(pv.Alias, r.opts.preValue) || strings.TrimSpace(pv.Value) == "" {
		return
	}

	schema, err := ParseSchema(pv.Value)
	if err != nil {
		r.opts.report(Diagnostic{Kind: MalformedPayload, Direction: direction, Subject: def.Name, Err: err})
		return
	}
	if len(schema.Fieldsets) == 0 {
		return
	}

	for _, prop := range schema.Properties() {
		switch direction {
		case types.Packaging:
			r.pack(ctx, def, prop)
		case types.Extracting:
			r.extract(ctx, def, prop)
		}
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		r.opts.report(Diagnostic{Kind: MalformedPayload, Direction: direction, Subject: def.Name, Err: err})
		return
	}
	pv.Value = string(data)
}

func (r *Rewriter) pack(ctx context.Context, def *types.DataType, prop *SchemaProperty) {
	key, err := r.ids.ToStableKey(ctx, prop.TypeLocalID, types.KindDataType)
	if err != nil {
		r.opts.report(Diagnostic{Kind: MissingMapping, Direction: types.Packaging, Subject: def.Name, Alias: prop.Alias, Err: err})
		return
	}

	def.Dependencies.Add(types.Dependency{Key: key, Provider: types.KindDataType})
	prop.TypeStableKey = key
}

func (r *Rewriter) extract(ctx context.Context, def *types.DataType, prop *SchemaProperty) {
	if prop.TypeStableKey.IsZero() {
		r.opts.report(Diagnostic{
			Kind:      MissingMapping,
			Direction: types.Extracting,
			Subject:   def.Name,
			Alias:     prop.Alias,
			Err:       fmt.Errorf("%w: blank stable key", types.ErrNotFound),
		})
		return
	}

	id, err := r.ids.ToLocalID(ctx, prop.TypeStableKey, types.KindDataType)
	if err != nil {
		r.opts.report(Diagnostic{Kind: MissingMapping, Direction: types.Extracting, Subject: def.Name, Alias: prop.Alias, Err: err})
		return
	}
	prop.TypeLocalID = id
}
