package composite

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/courier/internal/identity"
	"github.com/solatis/courier/internal/types"
)

// schemaWith builds a schema with n properties typed offset..offset+n-1,
// split over two fieldsets.
func schemaWith(n int, offset int64) string {
	var a, b []string
	for i := 0; i < n; i++ {
		p := fmt.Sprintf(`{"alias":"p%d","typeLocalId":%d,"typeStableKey":""}`, i, offset+int64(i))
		if i%2 == 0 {
			a = append(a, p)
		} else {
			b = append(b, p)
		}
	}
	return fmt.Sprintf(`{"fieldsets":[{"alias":"a","properties":[%s]},{"alias":"b","properties":[%s]}]}`,
		strings.Join(a, ","), strings.Join(b, ","))
}

func sourceIDs(n int, offset int64) *identity.Memory {
	m := identity.NewMemory()
	for i := 0; i < n; i++ {
		m.Put(types.KindDataType, types.LocalID(offset+int64(i)), types.StableKey(fmt.Sprintf("key-%d", i)))
	}
	return m
}

// Property-based test: packaging then extracting with inverse maps restores
// every type reference.
func TestRewrite_PropertyRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("round trip restores typeLocalId under the destination map", prop.ForAll(
		func(n int, offset int64, shift int64) bool {
			ctx := context.Background()
			src := sourceIDs(n, offset)
			dst := src.Remapped(func(id types.LocalID) types.LocalID { return id + types.LocalID(shift) })

			def := compositeDataType(schemaWith(n, offset))
			NewRewriter(src).Rewrite(ctx, def, types.Packaging)
			if len(def.Dependencies) != n {
				return false
			}
			NewRewriter(dst).Rewrite(ctx, def, types.Extracting)

			s, err := ParseSchema(def.PreValues[0].Value)
			if err != nil {
				return false
			}
			for _, p := range s.Properties() {
				var i int64
				if _, err := fmt.Sscanf(p.Alias, "p%d", &i); err != nil {
					return false
				}
				if p.TypeLocalID != types.LocalID(offset+i+shift) {
					return false
				}
			}
			return len(s.Properties()) == n
		},
		gen.IntRange(1, 12),
		gen.Int64Range(1, 1_000_000),
		gen.Int64Range(0, 5_000),
	))

	properties.TestingRun(t)
}

// Property-based test: packaging is idempotent.
func TestRewrite_PropertyRepeatedPackaging(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("second packaging changes nothing", prop.ForAll(
		func(n int, offset int64) bool {
			ctx := context.Background()
			ids := sourceIDs(n, offset)
			def := compositeDataType(schemaWith(n, offset))
			r := NewRewriter(ids)

			r.Rewrite(ctx, def, types.Packaging)
			first := def.PreValues[0].Value
			r.Rewrite(ctx, def, types.Packaging)
			return first == def.PreValues[0].Value && len(def.Dependencies) == n
		},
		gen.IntRange(1, 12),
		gen.Int64Range(1, 1_000_000),
	))

	properties.TestingRun(t)
}

// Property-based test: resolution never panics on arbitrary text.
func TestResolve_PropertyNeverCrashes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("resolve tolerates arbitrary values", prop.ForAll(
		func(text string) bool {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Resolve() panicked: %v", r)
				}
			}()
			m := newManager(t, baseIDs(), textResolver{})
			item, _ := rootItem(text)
			return m.PackagingItem(context.Background(), item) == nil
		},
		gen.OneGenOf(
			gen.AnyString(),
			gen.Const(`{"fieldsets":[{"properties":[null]}]}`),
			gen.Const(`{"fieldsets":[null,{"properties":null}]}`),
			gen.Const(`{"fieldsets":[{"properties":[{"alias":"x","editorKind":"Courier.Composite","value":"{"}]}]}`),
		),
	))

	properties.TestingRun(t)
}
