package composite

import (
	"context"

	"github.com/solatis/courier/internal/identity"
	"github.com/solatis/courier/internal/types"
)

// Provider registers composite handling with the resolution pipeline: the
// Rewriter for composite data types and the Resolver for composite property
// values, in both directions.
type Provider struct {
	alias    string
	rewriter *Rewriter
	resolver *Resolver
}

// NewProvider wires a Rewriter and Resolver sharing ids and options.
func NewProvider(ids identity.Map, pipeline Pipeline, converter Converter, opts ...Option) *Provider {
	return &Provider{
		alias:    newOptions(opts).editorAlias,
		rewriter: NewRewriter(ids, opts...),
		resolver: NewResolver(ids, pipeline, converter, opts...),
	}
}

// EditorAlias is the editor this provider handles.
func (p *Provider) EditorAlias() string {
	return p.alias
}

func (p *Provider) PackagingDataType(ctx context.Context, def *types.DataType) {
	p.rewriter.Rewrite(ctx, def, types.Packaging)
}

func (p *Provider) ExtractingDataType(ctx context.Context, def *types.DataType) {
	p.rewriter.Rewrite(ctx, def, types.Extracting)
}

func (p *Provider) PackagingProperty(ctx context.Context, item *types.Item, prop *types.Property) error {
	return p.resolver.Resolve(ctx, item, prop, types.Packaging)
}

func (p *Provider) ExtractingProperty(ctx context.Context, item *types.Item, prop *types.Property) error {
	return p.resolver.Resolve(ctx, item, prop, types.Extracting)
}
