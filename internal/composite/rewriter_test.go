package composite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/courier/internal/identity"
	"github.com/solatis/courier/internal/types"
)

const singleSchema = `{"fieldsets":[{"alias":"fs","properties":[{"alias":"a","typeLocalId":5,"typeStableKey":""}]}]}`

func TestRewrite_Packaging(t *testing.T) {
	ids := identity.NewMemory(identity.Entry{Kind: types.KindDataType, LocalID: 5, StableKey: "guid-5"})
	def := compositeDataType(singleSchema)

	NewRewriter(ids).Rewrite(context.Background(), def, types.Packaging)

	schema := mustSchema(t, def.PreValues[0].Value)
	require.Len(t, schema.Properties(), 1)
	assert.Equal(t, types.StableKey("guid-5"), schema.Properties()[0].TypeStableKey)
	assert.Equal(t, types.LocalID(5), schema.Properties()[0].TypeLocalID)
	assert.Equal(t, types.DependencySet{{Key: "guid-5", Provider: types.KindDataType}}, def.Dependencies)
}

func TestRewrite_Extracting(t *testing.T) {
	ids := identity.NewMemory(identity.Entry{Kind: types.KindDataType, LocalID: 7, StableKey: "guid-5"})
	def := compositeDataType(`{"fieldsets":[{"alias":"fs","properties":[{"alias":"a","typeLocalId":5,"typeStableKey":"guid-5"}]}]}`)

	NewRewriter(ids).Rewrite(context.Background(), def, types.Extracting)

	schema := mustSchema(t, def.PreValues[0].Value)
	assert.Equal(t, types.LocalID(7), schema.Properties()[0].TypeLocalID)
	assert.Empty(t, def.Dependencies, "extracting records no dependencies")
}

func TestRewrite_MissingMapping(t *testing.T) {
	diags := &collector{}
	def := compositeDataType(`{"fieldsets":[{"alias":"fs","properties":[
		{"alias":"a","typeLocalId":5,"typeStableKey":"old-key"},
		{"alias":"b","typeLocalId":6,"typeStableKey":""}]}]}`)
	ids := identity.NewMemory(identity.Entry{Kind: types.KindDataType, LocalID: 6, StableKey: "guid-6"})

	NewRewriter(ids, WithDiagnostics(diags.record)).Rewrite(context.Background(), def, types.Packaging)

	props := mustSchema(t, def.PreValues[0].Value).Properties()
	assert.Equal(t, types.StableKey("old-key"), props[0].TypeStableKey, "miss keeps the prior key")
	assert.Equal(t, types.StableKey("guid-6"), props[1].TypeStableKey, "other properties still translate")
	assert.Equal(t, []DiagnosticKind{MissingMapping}, diags.kinds())
	assert.Len(t, def.Dependencies, 1)
}

func TestRewrite_BlankKeyOnExtractIsMiss(t *testing.T) {
	diags := &collector{}
	def := compositeDataType(singleSchema)

	NewRewriter(identity.NewMemory(), WithDiagnostics(diags.record)).Rewrite(context.Background(), def, types.Extracting)

	assert.Equal(t, types.LocalID(5), mustSchema(t, def.PreValues[0].Value).Properties()[0].TypeLocalID)
	assert.Equal(t, []DiagnosticKind{MissingMapping}, diags.kinds())
}

func TestRewrite_NoOps(t *testing.T) {
	ids := identity.NewMemory(identity.Entry{Kind: types.KindDataType, LocalID: 5, StableKey: "guid-5"})

	tests := []struct {
		name      string
		def       *types.DataType
		direction types.Direction
	}{
		{"no prevalues", &types.DataType{Name: "x"}, types.Packaging},
		{"other prevalue alias", &types.DataType{PreValues: []types.PreValue{{Alias: "maxChars", Value: singleSchema}}}, types.Packaging},
		{"blank value", compositeDataType("   "), types.Packaging},
		{"no fieldsets", compositeDataType(`{"fieldsets":[]}`), types.Packaging},
		{"unknown direction", compositeDataType(singleSchema), types.DirectionUnspecified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before string
			if len(tt.def.PreValues) > 0 {
				before = tt.def.PreValues[0].Value
			}

			NewRewriter(ids).Rewrite(context.Background(), tt.def, tt.direction)

			if len(tt.def.PreValues) > 0 {
				assert.Equal(t, before, tt.def.PreValues[0].Value)
			}
			assert.Empty(t, tt.def.Dependencies)
		})
	}
}

func TestRewrite_MalformedSchema(t *testing.T) {
	diags := &collector{}
	def := compositeDataType(`{"fieldsets": [`)

	NewRewriter(identity.NewMemory(), WithDiagnostics(diags.record)).Rewrite(context.Background(), def, types.Packaging)

	assert.Equal(t, `{"fieldsets": [`, def.PreValues[0].Value)
	assert.Equal(t, []DiagnosticKind{MalformedPayload}, diags.kinds())
}

func TestRewrite_AliasIsCaseInsensitive(t *testing.T) {
	ids := identity.NewMemory(identity.Entry{Kind: types.KindDataType, LocalID: 5, StableKey: "guid-5"})
	def := compositeDataType(singleSchema)
	def.PreValues[0].Alias = "COMPOSITECONFIG"

	NewRewriter(ids).Rewrite(context.Background(), def, types.Packaging)

	assert.Equal(t, types.StableKey("guid-5"), mustSchema(t, def.PreValues[0].Value).Properties()[0].TypeStableKey)
}

func TestRewrite_RepeatedPackagingIsStable(t *testing.T) {
	ids := identity.NewMemory(identity.Entry{Kind: types.KindDataType, LocalID: 5, StableKey: "guid-5"})
	def := compositeDataType(singleSchema)
	r := NewRewriter(ids)

	r.Rewrite(context.Background(), def, types.Packaging)
	first := def.PreValues[0].Value
	r.Rewrite(context.Background(), def, types.Packaging)

	assert.Equal(t, first, def.PreValues[0].Value)
	assert.Len(t, def.Dependencies, 1, "dependency set deduplicates")
}

func TestRewrite_PreservesUnknownMembers(t *testing.T) {
	ids := identity.NewMemory(identity.Entry{Kind: types.KindDataType, LocalID: 5, StableKey: "guid-5"})
	def := compositeDataType(`{"version":2,"fieldsets":[{"alias":"fs","label":"Main","properties":[{"alias":"a","typeLocalId":5,"typeStableKey":"","mandatory":true}]}]}`)

	NewRewriter(ids).Rewrite(context.Background(), def, types.Packaging)

	assert.JSONEq(t,
		`{"version":2,"fieldsets":[{"alias":"fs","label":"Main","properties":[{"alias":"a","typeLocalId":5,"typeStableKey":"guid-5","mandatory":true}]}]}`,
		def.PreValues[0].Value)
}

func TestRewrite_IndentedOutput(t *testing.T) {
	ids := identity.NewMemory(identity.Entry{Kind: types.KindDataType, LocalID: 5, StableKey: "guid-5"})
	def := compositeDataType(singleSchema)

	NewRewriter(ids).Rewrite(context.Background(), def, types.Packaging)

	assert.Contains(t, def.PreValues[0].Value, "\n  \"fieldsets\": [")
}
