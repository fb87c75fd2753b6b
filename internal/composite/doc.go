// Package composite translates composite property values and composite data
// type schemas between environments.
//
// A composite value is a tree of fieldsets holding typed properties whose
// values may themselves be composites. Packaging replaces local type ids with
// stable keys and reports every dependency and resource found in the tree;
// extracting maps stable keys back to the destination's local ids.
//
// Key types:
//   - Rewriter: rewrites type references in a composite data type's schema
//   - Resolver: resolves every nested property through the generic Pipeline
//   - Provider: exposes both to the pipeline under the composite editor alias
//   - JSONConverter, Catalog: decode/encode values, enrich them from schemas
//
// Translation is best-effort. Missing mappings and malformed payloads are
// reported through WithDiagnostics and never abort a run; failures inside a
// nested property's own resolution are returned to the caller.
package composite
