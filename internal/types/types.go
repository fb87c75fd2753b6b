// Package types provides domain models shared across courier components.
//
// Zero-dependency design: types.go, sets.go and errors.go use only the
// standard library so the model can be imported by every layer. ID helpers in
// ids.go import uuid but are isolated from the rest of the model.
//
// Wire shape: field names follow the persisted JSON of the host content store.
// The composite schema/value trees themselves live in internal/composite.
package types

import (
	"fmt"
	"strings"
)

// Direction selects which way identifiers are translated.
type Direction int

const (
	DirectionUnspecified Direction = iota
	// Packaging converts local identifiers into stable keys (export).
	Packaging
	// Extracting converts stable keys back into local identifiers (import).
	Extracting
)

// String returns the lower-case name used in logs, metrics, and the CLI.
func (d Direction) String() string {
	switch d {
	case Packaging:
		return "packaging"
	case Extracting:
		return "extracting"
	default:
		return "unspecified"
	}
}

// ParseDirection accepts "packaging"/"package" and "extracting"/"extract".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "packaging", "package":
		return Packaging, nil
	case "extracting", "extract":
		return Extracting, nil
	default:
		return DirectionUnspecified, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
}

// Kind names the family of entity an identifier belongs to.
// Identifier maps are keyed by (Kind, id) so equal numbers in different
// families never collide.
type Kind string

const (
	KindDataType Kind = "dataType"
	KindDocument Kind = "document"
	KindMedia    Kind = "media"
)

// Editor and prevalue aliases recognised by the built-in resolvers.
// Alias comparison is case-insensitive everywhere.
const (
	// CompositeEditorAlias identifies the composite property editor.
	CompositeEditorAlias = "Courier.Composite"

	// CompositePreValueAlias marks prevalue 0 as a JSON composite schema.
	CompositePreValueAlias = "compositeConfig"

	MediaPickerEditorAlias   = "Courier.MediaPicker"
	ContentPickerEditorAlias = "Courier.ContentPicker"
)

// PreValue is one entry of a data type's configuration.
type PreValue struct {
	Alias     string `json:"alias"`
	Value     string `json:"value"`
	SortOrder int    `json:"sortOrder,omitempty"`
}

// DataType is a type definition record. The rewriter mutates PreValues in
// place and appends to Dependencies.
type DataType struct {
	ID           LocalID       `json:"id"`
	Key          StableKey     `json:"key,omitempty"`
	Name         string        `json:"name,omitempty"`
	EditorAlias  string        `json:"editorAlias"`
	PreValues    []PreValue    `json:"preValues,omitempty"`
	Dependencies DependencySet `json:"dependencies,omitempty"`
}

// Property is one property value on an item. DataType references the
// property's type definition by stable key.
//
// Numeric is set by packaging when a reference value was stored as JSON
// numbers and now holds stable keys; extracting writes the local ids back as
// numbers and clears it.
type Property struct {
	Alias       string    `json:"alias"`
	DataType    StableKey `json:"dataType,omitempty"`
	EditorAlias string    `json:"editorAlias"`
	Value       any       `json:"value"`
	Numeric     bool      `json:"numeric,omitempty"`
}

// Item is the container the resolution pipeline operates on: a content item,
// or a synthetic one-property item built while resolving nested values.
//
// Depth is 0 for real content and parent depth + 1 for synthetic items. It is
// the only signal resolvers use to tell nested calls from root calls; Name is
// for display only.
type Item struct {
	ID           string        `json:"id"`
	Name         string        `json:"name,omitempty"`
	Depth        int           `json:"-"`
	Properties   []*Property   `json:"properties"`
	Dependencies DependencySet `json:"dependencies,omitempty"`
	Resources    ResourceSet   `json:"resources,omitempty"`
}

// Nested reports whether the item was synthesized for a nested property.
func (i *Item) Nested() bool {
	return i.Depth > 0
}

// Property returns the first property with the given alias, or nil.
func (i *Item) Property(alias string) *Property {
	for _, p := range i.Properties {
		if p != nil && strings.EqualFold(p.Alias, alias) {
			return p
		}
	}
	return nil
}
