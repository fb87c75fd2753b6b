package resolution

import (
	"context"
	"errors"
	"log/slog"

	"github.com/solatis/courier/internal/identity"
	"github.com/solatis/courier/internal/types"
)

// Picker resolves editors whose value is a list of references to other
// entities of a single kind. Packaging swaps local ids for stable keys and
// records a dependency per reference; extracting swaps them back.
//
// Tokens without a mapping are left as they are. Lookup failures other than
// types.ErrNotFound are returned. References stored as JSON numbers come back
// as numbers on extracting, tracked by types.Property.Numeric in between.
type Picker struct {
	alias    string
	kind     types.Kind
	resource bool
	ids      identity.Map
	logger   *slog.Logger
}

// NewMediaPicker creates the media picker resolver. Every packaged media
// reference is also recorded as a resource so the file travels along.
func NewMediaPicker(ids identity.Map, logger *slog.Logger) *Picker {
	return newPicker(types.MediaPickerEditorAlias, types.KindMedia, true, ids, logger)
}

// NewContentPicker creates the content picker resolver.
func NewContentPicker(ids identity.Map, logger *slog.Logger) *Picker {
	return newPicker(types.ContentPickerEditorAlias, types.KindDocument, false, ids, logger)
}

func newPicker(alias string, kind types.Kind, resource bool, ids identity.Map, logger *slog.Logger) *Picker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Picker{alias: alias, kind: kind, resource: resource, ids: ids, logger: logger}
}

// EditorAlias is the editor this picker handles.
func (p *Picker) EditorAlias() string {
	return p.alias
}

// PackagingProperty implements PropertyResolver.
func (p *Picker) PackagingProperty(ctx context.Context, item *types.Item, prop *types.Property) error {
	return p.translate(ctx, item, prop, types.Packaging, func(token string) (string, bool, error) {
		id, err := types.ParseLocalID(token)
		if err != nil {
			// Not an id; possibly packaged already.
			return token, false, nil
		}

		key, err := p.ids.ToStableKey(ctx, id, p.kind)
		if err != nil {
			return token, false, err
		}

		item.Dependencies.Add(types.Dependency{Key: key, Provider: p.kind})
		if p.resource {
			item.Resources.Add(types.Resource{Kind: p.kind, Key: key})
		}
		return string(key), true, nil
	})
}

// ExtractingProperty implements PropertyResolver.
func (p *Picker) ExtractingProperty(ctx context.Context, item *types.Item, prop *types.Property) error {
	return p.translate(ctx, item, prop, types.Extracting, func(token string) (string, bool, error) {
		if _, err := types.ParseLocalID(token); err == nil {
			// Already a local id.
			return token, false, nil
		}

		id, err := p.ids.ToLocalID(ctx, types.StableKey(token), p.kind)
		if err != nil {
			return token, false, err
		}
		return id.String(), true, nil
	})
}

func (p *Picker) translate(ctx context.Context, item *types.Item, prop *types.Property, direction types.Direction, swap func(string) (string, bool, error)) error {
	pv, ok, err := coercePicker(prop.Value)
	if err != nil {
		p.logger.WarnContext(ctx, "picker value left untouched",
			slog.String("item", item.Name),
			slog.String("alias", prop.Alias),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if !ok {
		return nil
	}

	changed := false
	for i, token := range pv.tokens {
		out, swapped, err := swap(token)
		if errors.Is(err, types.ErrNotFound) {
			p.logger.DebugContext(ctx, "picker reference has no mapping",
				slog.String("item", item.Name),
				slog.String("alias", prop.Alias),
				slog.String("token", token),
			)
			continue
		}
		if err != nil {
			return err
		}
		if swapped {
			pv.tokens[i] = out
			changed = true
		}
	}

	if !changed {
		return nil
	}

	switch direction {
	case types.Packaging:
		prop.Numeric = pv.numeric
	case types.Extracting:
		pv.numeric = pv.numeric || prop.Numeric
		prop.Numeric = false
	}
	prop.Value = pv.value()
	return nil
}
