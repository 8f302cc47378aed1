// Package analysis holds the per-run state shared by every finding: the
// module graph, the parsed facts, resolved references and classpath
// closures. All derived values are memoized in a run-scoped cache.
package analysis

import (
	"context"
	"log/slog"

	"modcheck/internal/core/ports"
	"modcheck/internal/engine/cache"
	"modcheck/internal/engine/facts"
	"modcheck/internal/engine/graph"
	"modcheck/internal/engine/names"
	"modcheck/internal/engine/resolver"
	"modcheck/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Options tune reference resolution.
type Options struct {
	Stdlib        *resolver.Stdlib
	LogUnresolved bool
}

// Context is created at the start of a run and dropped at its end. It is
// safe for concurrent use.
type Context struct {
	graph     *graph.Graph
	facts     ports.SourceFactsProvider
	resources []ports.ResourceIndexProvider
	opts      Options
	cache     *cache.Cache
}

func New(g *graph.Graph, provider ports.SourceFactsProvider, resources []ports.ResourceIndexProvider, opts Options) *Context {
	if opts.Stdlib == nil {
		opts.Stdlib = resolver.DefaultStdlib()
	}
	return &Context{
		graph:     g,
		facts:     provider,
		resources: append([]ports.ResourceIndexProvider(nil), resources...),
		opts:      opts,
		cache:     cache.New(),
	}
}

func (c *Context) Graph() *graph.Graph { return c.graph }

func key(p *graph.Project, kind cache.Kind, sub string) cache.Key {
	project := ""
	if p != nil {
		project = p.Path().Key()
	}
	return cache.Key{Project: project, Kind: kind, Sub: sub}
}

// SourceFacts returns the valid file facts of one source set. Files that
// fail validation are skipped with a warning.
func (c *Context) SourceFacts(ctx context.Context, p *graph.Project, sourceSet string) ([]facts.FileFacts, error) {
	return cache.GetOrPut(ctx, c.cache, key(p, cache.KindSourceFacts, sourceSet), func(ctx context.Context) ([]facts.FileFacts, error) {
		if _, err := p.WithUpstream(sourceSet); err != nil {
			return nil, err
		}
		files, err := c.facts.SourceFacts(ctx, p.Path().String(), sourceSet)
		if err != nil {
			return nil, err
		}
		valid := make([]facts.FileFacts, 0, len(files))
		for _, f := range files {
			if err := f.Validate(); err != nil {
				slog.Warn("skipping invalid source facts", "project", p.Path().String(), "source_set", sourceSet, "error", err)
				continue
			}
			valid = append(valid, f)
		}
		return valid, nil
	})
}

// Declarations indexes what one source set of p declares.
func (c *Context) Declarations(ctx context.Context, p *graph.Project, sourceSet string) (*resolver.Index, error) {
	return cache.GetOrPut(ctx, c.cache, key(p, cache.KindDeclarations, sourceSet), func(ctx context.Context) (*resolver.Index, error) {
		files, err := c.SourceFacts(ctx, p, sourceSet)
		if err != nil {
			return nil, err
		}
		batches := make([][]names.DeclaredName, 0, len(files))
		for _, f := range files {
			batches = append(batches, f.DeclaredNames)
		}
		return resolver.NewIndex(batches...), nil
	})
}

// DeclarationIndex is the build-wide index of source declarations that the
// import, package and wildcard interceptors resolve against.
func (c *Context) DeclarationIndex(ctx context.Context) (*resolver.Index, error) {
	return cache.GetOrPut(ctx, c.cache, key(nil, cache.KindDeclarationIndex, ""), func(ctx context.Context) (*resolver.Index, error) {
		var batches [][]names.DeclaredName
		for _, p := range c.graph.Projects() {
			for _, ss := range p.SourceSets() {
				idx, err := c.Declarations(ctx, p, ss)
				if err != nil {
					return nil, err
				}
				batches = append(batches, idx.All())
			}
		}
		return resolver.NewIndex(batches...), nil
	})
}

// Closure is the cached classpath closure of a source set.
func (c *Context) Closure(ctx context.Context, p *graph.Project, sourceSet string) ([]graph.TransitiveDependency, error) {
	return cache.GetOrPut(ctx, c.cache, key(p, cache.KindClosure, sourceSet), func(ctx context.Context) ([]graph.TransitiveDependency, error) {
		return c.graph.Closure(p, sourceSet)
	})
}

// APIClosure is the cached propagating closure of a single declared edge.
func (c *Context) APIClosure(ctx context.Context, p *graph.Project, d graph.ConfiguredDependency) ([]graph.TransitiveDependency, error) {
	return cache.GetOrPut(ctx, c.cache, key(p, cache.KindAPIClosure, graph.DeclarationKey(d)), func(ctx context.Context) ([]graph.TransitiveDependency, error) {
		return c.graph.APIClosure(d)
	})
}

// References resolves every file of one source set. The result covers the
// source set's own files only, not those of source sets it extends.
func (c *Context) References(ctx context.Context, p *graph.Project, sourceSet string) (*References, error) {
	return cache.GetOrPut(ctx, c.cache, key(p, cache.KindReferences, sourceSet), func(ctx context.Context) (*References, error) {
		ctx, span := observability.Tracer.Start(ctx, "analysis.References", trace.WithAttributes(
			attribute.String("project", p.Path().String()),
			attribute.String("source_set", sourceSet),
		))
		defer span.End()

		files, err := c.SourceFacts(ctx, p, sourceSet)
		if err != nil {
			return nil, err
		}
		chain, err := c.chain(ctx, p, sourceSet)
		if err != nil {
			return nil, err
		}

		refs := newReferences()
		for _, f := range files {
			packet, err := chain.ResolveFile(ctx, f)
			if err != nil {
				return nil, err
			}
			refs.add(packet)
		}
		span.SetAttributes(
			attribute.Int("resolved", len(refs.All)),
			attribute.Int("unresolved", len(refs.Unresolved)),
		)
		return refs, nil
	})
}

func (c *Context) chain(ctx context.Context, p *graph.Project, sourceSet string) (*resolver.Chain, error) {
	index, err := c.DeclarationIndex(ctx)
	if err != nil {
		return nil, err
	}
	interceptors, err := c.resourceInterceptors(ctx, p, sourceSet)
	if err != nil {
		return nil, err
	}
	return resolver.NewDefaultChain(resolver.Options{
		Declarations:  index,
		Resources:     interceptors,
		Stdlib:        c.opts.Stdlib,
		LogUnresolved: c.opts.LogUnresolved,
	}), nil
}
