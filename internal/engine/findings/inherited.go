package findings

import (
	"context"

	"modcheck/internal/engine/analysis"
	"modcheck/internal/engine/graph"
	"modcheck/internal/engine/names"
)

// Inherited reports modules that a source set references directly but only
// receives transitively. Source sets are visited in topological order and a
// module already reported for an upstream source set is not repeated.
func Inherited(ctx context.Context, actx *analysis.Context, p *graph.Project) ([]Finding, error) {
	var out []Finding
	reported := make(map[string]map[string]bool)

	for _, ss := range p.SourceSets() {
		found, err := inheritedIn(ctx, actx, p, ss)
		if err != nil {
			return nil, err
		}
		upstream, err := p.WithUpstream(ss)
		if err != nil {
			return nil, err
		}

		reported[ss] = make(map[string]bool)
		for _, f := range found {
			targetKey := f.Dependency.TargetKey()
			if reportedUpstream(reported, upstream[1:], targetKey) {
				continue
			}
			reported[ss][targetKey] = true
			out = append(out, f)
		}
	}
	return out, nil
}

func reportedUpstream(reported map[string]map[string]bool, upstream []string, targetKey string) bool {
	for _, u := range upstream {
		if reported[u][targetKey] {
			return true
		}
	}
	return false
}

type inheritedCandidate struct {
	via    graph.TransitiveDependency
	target *analysis.Target
	used   bool
	api    bool
}

func inheritedIn(ctx context.Context, actx *analysis.Context, p *graph.Project, ss string) ([]InheritedDependency, error) {
	visible, err := p.VisibleDependencies(ss)
	if err != nil {
		return nil, err
	}
	directKeys := make(map[string]bool, len(visible))
	var direct []*analysis.Target
	for _, d := range visible {
		directKeys[d.TargetKey()] = true
		md, ok := d.(graph.ModuleDependency)
		if !ok || !graph.IsCompileVisible(md.Configuration) {
			continue
		}
		t, err := actx.Target(ctx, md)
		if err != nil {
			return nil, err
		}
		direct = append(direct, t)
	}

	closure, err := actx.Closure(ctx, p, ss)
	if err != nil {
		return nil, err
	}
	var candidates []*inheritedCandidate
	for _, td := range closure {
		md, ok := td.Contributed.(graph.ModuleDependency)
		if !ok || directKeys[md.TargetKey()] || analysis.IsSelf(p, md) {
			continue
		}
		if !graph.IsCompileVisible(td.Source.ConfigurationName()) {
			continue
		}
		t, err := actx.Target(ctx, md)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, &inheritedCandidate{via: td, target: t})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	refs, err := actx.References(ctx, p, ss)
	if err != nil {
		return nil, err
	}
	api := make(map[string]bool, len(refs.API))
	for _, r := range refs.API {
		api[r.Key()] = true
	}

	for _, ref := range analysis.Attributable(refs.All) {
		synthetic := ref.Origin.IsSynthetic()
		if suppliedByDirect(direct, ref, synthetic) {
			continue
		}
		for _, c := range candidates {
			if !supplies(c.target, ref, synthetic) {
				continue
			}
			c.used = true
			if api[ref.Key()] {
				c.api = true
			}
			break
		}
	}

	var out []InheritedDependency
	for _, c := range candidates {
		if !c.used {
			continue
		}
		config, mustBeAPI, ok := inheritedConfiguration(p, ss, c)
		if !ok {
			continue
		}
		out = append(out, InheritedDependency{
			Project:    p.Path(),
			SourceSet:  ss,
			Dependency: graph.WithConfiguration(c.via.Contributed, config),
			Source:     c.via.Source,
			MustBeAPI:  mustBeAPI,
		})
	}
	return out, nil
}

// supplies matches source references against declarations and generated
// references against the generated symbols of the target only, so an
// aggregated resource class never attributes ordinary symbols.
func supplies(t *analysis.Target, ref names.ReferenceName, synthetic bool) bool {
	if synthetic {
		return t.SuppliesResource(ref)
	}
	return t.Satisfies(ref)
}

func suppliedByDirect(direct []*analysis.Target, ref names.ReferenceName, synthetic bool) bool {
	for _, t := range direct {
		if supplies(t, ref, synthetic) {
			return true
		}
	}
	return false
}

// inheritedConfiguration picks the bucket for a new declaration in ss: api
// when a public signature needs the module and ss may propagate, otherwise
// the base of the edge the module arrives through, narrowed from api to
// implementation.
func inheritedConfiguration(p *graph.Project, ss string, c *inheritedCandidate) (string, bool, bool) {
	if c.api && !p.IsTestingOnly(ss) {
		name := graph.ConfigurationName(ss, graph.BaseAPI)
		if _, ok := p.Configuration(name); ok {
			return name, true, true
		}
	}
	base := graph.BaseConfiguration(c.via.Source.ConfigurationName())
	if base == graph.BaseAPI {
		base = graph.BaseImplementation
	}
	for _, b := range []string{base, graph.BaseImplementation} {
		name := graph.ConfigurationName(ss, b)
		if _, ok := p.Configuration(name); ok {
			return name, false, true
		}
	}
	return "", false, false
}
