package graph

import (
	domainerrors "modcheck/internal/core/errors"
)

// Closure returns every dependency visible to sourceSet of p: its direct
// dependencies (including those of upstream source sets) plus everything
// they forward through propagating configurations. Each entry keeps the
// direct edge that first reached it; contributed dependencies are re-scoped
// into that edge's configuration.
func (g *Graph) Closure(p *Project, sourceSet string) ([]TransitiveDependency, error) {
	direct, err := p.VisibleDependencies(sourceSet)
	if err != nil {
		return nil, err
	}
	return g.closureFrom(direct, true)
}

// APIClosure returns what the single dependency d forwards to a consumer
// through propagating configurations, excluding d itself.
func (g *Graph) APIClosure(d ConfiguredDependency) ([]TransitiveDependency, error) {
	return g.closureFrom([]ConfiguredDependency{d}, false)
}

type closureNode struct {
	source ConfiguredDependency
	dep    ModuleDependency
}

func (g *Graph) closureFrom(roots []ConfiguredDependency, includeRoots bool) ([]TransitiveDependency, error) {
	var (
		out   []TransitiveDependency
		queue []closureNode
	)
	seen := make(map[string]bool)
	expanded := make(map[string]bool)

	add := func(source, contributed ConfiguredDependency, record bool) {
		key := contributed.TargetKey()
		if seen[key] {
			return
		}
		seen[key] = true
		if record {
			out = append(out, TransitiveDependency{Source: source, Contributed: contributed})
		}
		if md, ok := contributed.(ModuleDependency); ok {
			queue = append(queue, closureNode{source: source, dep: md})
		}
	}

	for _, root := range roots {
		add(root, root, includeRoots)
	}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		visitKey := node.dep.TargetKey()
		if expanded[visitKey] {
			continue
		}
		expanded[visitKey] = true

		target, err := g.Project(node.dep.Path)
		if err != nil {
			return nil, domainerrors.AddContext(err, domainerrors.CtxConfiguration, node.source.ConfigurationName())
		}
		forwarded := target.DependenciesIn(target.PropagatingConfigurations(node.dep.TestFixtures)...)
		for _, next := range forwarded {
			add(node.source, WithConfiguration(next, node.source.ConfigurationName()), true)
		}
	}

	return out, nil
}
