package composite

import (
	"fmt"

	"github.com/solatis/courier/internal/types"
)

// Synthetic request adapter.
//
// The resolution pipeline only accepts items. To resolve one nested property
// with the exact logic a top-level property would get, the resolver wraps it
// in a one-property item, runs the pipeline on that item, then harvests the
// outcome back into the real item.

// Synthesize builds the single-property item for a nested property.
//
// Contract of the returned item:
//   - ID is parent.ID, so records and logs point at the real content item;
//   - Depth is parent.Depth+1, which marks every resolver call on it as nested;
//   - Name is "<parent name> [<editor>: Nested <property editor> (<alias>)]",
//     for display only;
//   - Properties holds exactly one property carrying the instance's alias,
//     editor alias, value and numeric marker, typed by dataType;
//   - Dependencies and Resources start empty.
func Synthesize(parent *types.Item, editorAlias string, p *Property, dataType types.StableKey) *types.Item {
	return &types.Item{
		ID:    parent.ID,
		Name:  fmt.Sprintf("%s [%s: Nested %s (%s)]", parent.Name, editorAlias, p.EditorAlias, p.Alias),
		Depth: parent.Depth + 1,
		Properties: []*types.Property{{
			Alias:       p.Alias,
			DataType:    dataType,
			EditorAlias: p.EditorAlias,
			Value:       p.Value,
			Numeric:     p.Numeric,
		}},
	}
}

// Harvest merges a resolved synthetic item's dependencies and resources into
// parent and returns the resolved property value. ok is false when the
// pipeline left the synthetic item without a property.
func Harvest(parent, synthetic *types.Item) (value any, ok bool) {
	parent.Dependencies.AddAll(synthetic.Dependencies)
	parent.Resources.AddAll(synthetic.Resources)

	if len(synthetic.Properties) == 0 || synthetic.Properties[0] == nil {
		return nil, false
	}
	return synthetic.Properties[0].Value, true
}
