package analysis

import (
	"context"

	"modcheck/internal/core/ports"
	"modcheck/internal/engine/cache"
	"modcheck/internal/engine/graph"
	"modcheck/internal/engine/names"
	"modcheck/internal/engine/resolver"
)

// Target is what a module dependency brings onto the classpath: the
// declarations and generated symbols of one source set of another project.
type Target struct {
	Dependency graph.ModuleDependency
	Project    *graph.Project
	SourceSet  string

	declarations *resolver.Index
	resources    *resolver.Index
}

// TargetSourceSet is the source set a module dependency consumes: test
// fixtures for test-fixture edges, main otherwise.
func TargetSourceSet(md graph.ModuleDependency) string {
	if md.TestFixtures {
		return graph.TestFixturesSourceSet
	}
	return graph.MainSourceSet
}

// Satisfies reports whether ref points into the target. Stdlib names never
// do; generated names only match generated symbols.
func (t *Target) Satisfies(ref names.ReferenceName) bool {
	switch ref.Origin {
	case names.OriginStdlib:
		return false
	case names.OriginResource, names.OriginBinding:
		return t.SuppliesResource(ref)
	default:
		if _, ok := t.declarations.Lookup(ref.Key()); ok {
			return true
		}
		return t.SuppliesResource(ref)
	}
}

// SuppliesResource reports whether the target generates ref.
func (t *Target) SuppliesResource(ref names.ReferenceName) bool {
	_, ok := t.resources.Lookup(ref.Key())
	return ok
}

// Target resolves md to the project it points at. A missing project is a
// NotFound error.
func (c *Context) Target(ctx context.Context, md graph.ModuleDependency) (*Target, error) {
	return cache.GetOrPut(ctx, c.cache, cache.Key{Kind: cache.KindTarget, Sub: md.TargetKey()}, func(ctx context.Context) (*Target, error) {
		p, err := c.graph.Project(md.Path)
		if err != nil {
			return nil, err
		}
		t := &Target{
			Dependency: md,
			Project:    p,
			SourceSet:  TargetSourceSet(md),
		}
		if !p.HasSourceSet(t.SourceSet) {
			t.declarations = resolver.NewIndex()
			t.resources = resolver.NewIndex()
			return t, nil
		}

		if t.declarations, err = c.Declarations(ctx, p, t.SourceSet); err != nil {
			return nil, err
		}
		var generated [][]names.DeclaredName
		for _, provider := range c.resources {
			entries, err := c.resourceEntries(ctx, provider, p, t.SourceSet)
			if err != nil {
				return nil, err
			}
			generated = append(generated, entries)
		}
		t.resources = resolver.NewIndex(generated...)
		return t, nil
	})
}

// Uses reports whether any reference of sourceSet in p points into the
// target of md.
func (c *Context) Uses(ctx context.Context, p *graph.Project, sourceSet string, md graph.ModuleDependency) (bool, error) {
	return cache.GetOrPut(ctx, c.cache, key(p, cache.KindUsage, sourceSet+"|"+md.TargetKey()), func(ctx context.Context) (bool, error) {
		refs, err := c.References(ctx, p, sourceSet)
		if err != nil {
			return false, err
		}
		target, err := c.Target(ctx, md)
		if err != nil {
			return false, err
		}
		for _, ref := range refs.All {
			if target.Satisfies(ref) {
				return true, nil
			}
		}
		return false, nil
	})
}

// IsSelf reports whether md points back at p, such as a test source set
// depending on its own project's fixtures.
func IsSelf(p *graph.Project, md graph.ModuleDependency) bool {
	return md.Path.Equal(p.Path())
}

// resourceEntries returns what provider generates for one source set of p.
func (c *Context) resourceEntries(ctx context.Context, provider ports.ResourceIndexProvider, p *graph.Project, sourceSet string) ([]names.DeclaredName, error) {
	sub := provider.Origin().String() + "|" + sourceSet
	return cache.GetOrPut(ctx, c.cache, key(p, cache.KindResourceIndex, sub), func(ctx context.Context) ([]names.DeclaredName, error) {
		return provider.All(ctx, p.Path().String(), sourceSet)
	})
}

// resourceInterceptors builds one interceptor per provider. Each index holds
// the project's own generated symbols for sourceSet and the source sets it
// extends, followed by those of every module on its classpath closure.
func (c *Context) resourceInterceptors(ctx context.Context, p *graph.Project, sourceSet string) ([]*resolver.ResourceInterceptor, error) {
	if len(c.resources) == 0 {
		return nil, nil
	}
	upstream, err := p.WithUpstream(sourceSet)
	if err != nil {
		return nil, err
	}
	closure, err := c.Closure(ctx, p, sourceSet)
	if err != nil {
		return nil, err
	}

	out := make([]*resolver.ResourceInterceptor, 0, len(c.resources))
	for _, provider := range c.resources {
		var entries []names.DeclaredName
		for _, ss := range upstream {
			own, err := c.resourceEntries(ctx, provider, p, ss)
			if err != nil {
				return nil, err
			}
			entries = append(entries, own...)
		}
		for _, td := range closure {
			md, ok := td.Contributed.(graph.ModuleDependency)
			if !ok {
				continue
			}
			target, err := c.graph.Project(md.Path)
			if err != nil {
				return nil, err
			}
			ss := TargetSourceSet(md)
			if !target.HasSourceSet(ss) {
				continue
			}
			generated, err := c.resourceEntries(ctx, provider, target, ss)
			if err != nil {
				return nil, err
			}
			entries = append(entries, generated...)
		}

		local, err := provider.LocalOrNull(ctx, p.Path().String(), sourceSet)
		if err != nil {
			return nil, err
		}
		out = append(out, resolver.NewResourceInterceptor(provider.Origin(), entries, local))
	}
	return out, nil
}
