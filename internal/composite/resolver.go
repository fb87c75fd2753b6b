package composite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/solatis/courier/internal/identity"
	"github.com/solatis/courier/internal/types"
)

/*
 * Composite value resolution.
 *
 * Resolve walks every property instance of a composite value and pushes it
 * through the generic resolution pipeline as if it were a top-level property
 * (see adapter.go). Records produced for nested properties bubble up to the
 * real item. Nested properties may themselves be composites, in which case
 * the pipeline calls back into Resolve one level deeper.
 *
 * Output form is positional: an item at depth 0 is real content and gets the
 * composite back as JSON text; deeper items return the structured *Value so
 * the root serializes the whole tree exactly once.
 */

// Pipeline is the generic resolution pipeline. Implementations must be
// re-entrant: Resolve calls them from inside their own resolver dispatch.
type Pipeline interface {
	PackagingItem(ctx context.Context, item *types.Item) error
	ExtractingItem(ctx context.Context, item *types.Item) error
}

// Resolver resolves composite property values.
type Resolver struct {
	ids       identity.Map
	pipeline  Pipeline
	converter Converter
	opts      options
}

// NewResolver creates a resolver. converter defaults to a JSONConverter
// without schema enrichment when nil. A JSONConverter is bound to the
// resolver's editor alias.
func NewResolver(ids identity.Map, pipeline Pipeline, converter Converter, opts ...Option) *Resolver {
	o := newOptions(opts)
	switch c := converter.(type) {
	case nil:
		converter = NewJSONConverter(nil).ForEditor(o.editorAlias)
	case *JSONConverter:
		converter = c.ForEditor(o.editorAlias)
	}
	return &Resolver{
		ids:       ids,
		pipeline:  pipeline,
		converter: converter,
		opts:      o,
	}
}

// Resolve translates prop's composite value in place and merges the records
// of every nested property into item.
//
// Empty and undecodable values are left untouched. A pipeline error on any
// nested property is returned wrapped in types.ErrPipelineFailure; prop.Value
// and item's records are then left as they were.
func (r *Resolver) Resolve(ctx context.Context, item *types.Item, prop *types.Property, direction types.Direction) error {
	if isEmptyValue(prop.Value) {
		return nil
	}

	run, err := r.runner(direction)
	if err != nil {
		return err
	}

	typeID, err := r.ids.ToLocalID(ctx, prop.DataType, types.KindDataType)
	if err != nil {
		r.opts.report(Diagnostic{Kind: MissingMapping, Direction: direction, Subject: item.Name, Alias: prop.Alias, Err: err})
		typeID = 0
	}

	value := r.converter.Decode(ctx, prop.Value, typeID, r.opts.editorAlias)
	if value == nil {
		r.opts.report(Diagnostic{
			Kind:      MalformedPayload,
			Direction: direction,
			Subject:   item.Name,
			Alias:     prop.Alias,
			Err:       fmt.Errorf("%w: value is not a composite", types.ErrMalformedPayload),
		})
		return nil
	}

	// Records collect here and reach item only once every nested property
	// resolved.
	staged := &types.Item{}
	for _, nested := range value.Properties() {
		dataType, err := r.ids.ToStableKey(ctx, nested.TypeLocalID, types.KindDataType)
		if err != nil {
			r.opts.report(Diagnostic{Kind: MissingMapping, Direction: direction, Subject: item.Name, Alias: nested.Alias, Err: err})
			dataType = ""
		}

		synthetic := Synthesize(item, r.opts.editorAlias, nested, dataType)
		if err := run(ctx, synthetic); err != nil {
			return fmt.Errorf("%w: %s: %w", types.ErrPipelineFailure, synthetic.Name, err)
		}

		if resolved, ok := Harvest(staged, synthetic); ok {
			nested.Value = resolved
			nested.Numeric = synthetic.Properties[0].Numeric
		}
	}
	item.Dependencies.AddAll(staged.Dependencies)
	item.Resources.AddAll(staged.Resources)

	if item.Nested() {
		prop.Value = value
		return nil
	}

	encoded, err := r.converter.Encode(value)
	if err != nil {
		return err
	}
	prop.Value = encoded
	return nil
}

func (r *Resolver) runner(direction types.Direction) (func(context.Context, *types.Item) error, error) {
	switch direction {
	case types.Packaging:
		return r.pipeline.PackagingItem, nil
	case types.Extracting:
		return r.pipeline.ExtractingItem, nil
	default:
		return nil, fmt.Errorf("%w: %d", types.ErrUnknownDirection, direction)
	}
}

// isEmptyValue reports nil, blank text, and empty byte values.
func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []byte:
		return len(bytes.TrimSpace(t)) == 0
	case json.RawMessage:
		trimmed := bytes.TrimSpace(t)
		return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
	default:
		return false
	}
}

// IsPipelineFailure reports whether err came from a nested property's
// resolution rather than from the composite itself.
func IsPipelineFailure(err error) bool {
	return errors.Is(err, types.ErrPipelineFailure)
}
