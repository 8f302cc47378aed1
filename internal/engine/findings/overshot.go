package findings

import (
	"context"

	"modcheck/internal/engine/analysis"
	"modcheck/internal/engine/graph"
)

// OverShot reports declarations unused in their own source set but used by
// source sets downstream of it. Only the most general qualifying source sets
// are proposed: one that extends another qualifying source set is pruned.
func OverShot(ctx context.Context, actx *analysis.Context, p *graph.Project) ([]Finding, error) {
	var out []Finding
	for _, c := range checkable(p) {
		u, err := usageOf(ctx, actx, p, c)
		if err != nil {
			return nil, err
		}
		if u.usedInOwn || len(u.users) == 0 {
			continue
		}

		general, err := mostGeneral(p, u.users)
		if err != nil {
			return nil, err
		}
		var to []graph.ConfiguredDependency
		for _, ss := range general {
			if config, ok := rescope(p, c.dep.Configuration, ss); ok {
				to = append(to, graph.WithConfiguration(c.dep, config))
			}
		}
		if len(to) == 0 {
			continue
		}
		out = append(out, OverShotDependency{Project: p.Path(), Dependency: c.dep, To: to})
	}
	return out, nil
}

// mostGeneral drops every source set that extends another one in the list.
func mostGeneral(p *graph.Project, sourceSets []string) ([]string, error) {
	qualifying := make(map[string]bool, len(sourceSets))
	for _, ss := range sourceSets {
		qualifying[ss] = true
	}
	var out []string
	for _, ss := range sourceSets {
		upstream, err := p.WithUpstream(ss)
		if err != nil {
			return nil, err
		}
		pruned := false
		for _, u := range upstream[1:] {
			if qualifying[u] {
				pruned = true
				break
			}
		}
		if !pruned {
			out = append(out, ss)
		}
	}
	return out, nil
}

// rescope maps a configuration onto another source set, keeping its base.
// Testing-only source sets cannot propagate, so api becomes implementation.
func rescope(p *graph.Project, configuration, sourceSet string) (string, bool) {
	base := graph.BaseConfiguration(configuration)
	if base == graph.BaseAPI && p.IsTestingOnly(sourceSet) {
		base = graph.BaseImplementation
	}
	for _, b := range []string{base, graph.BaseImplementation} {
		name := graph.ConfigurationName(sourceSet, b)
		if _, ok := p.Configuration(name); ok {
			return name, true
		}
	}
	return "", false
}
