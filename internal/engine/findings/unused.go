package findings

import (
	"context"

	"modcheck/internal/engine/analysis"
	"modcheck/internal/engine/graph"
)

// candidate is a declared module dependency whose usage can be judged from
// source references.
type candidate struct {
	dep       graph.ModuleDependency
	sourceSet string
}

// checkable returns the module dependencies of p that usage-based findings
// look at: compile visible, not pointing back at p.
func checkable(p *graph.Project) []candidate {
	var out []candidate
	for _, d := range p.Dependencies() {
		md, ok := d.(graph.ModuleDependency)
		if !ok || analysis.IsSelf(p, md) || !graph.IsCompileVisible(md.Configuration) {
			continue
		}
		ss, ok := p.SourceSetOf(md.Configuration)
		if !ok {
			continue
		}
		out = append(out, candidate{dep: md, sourceSet: ss})
	}
	return out
}

// usage records, for one declaration, which source sets at or below its own
// actually rely on it.
type usage struct {
	usedInOwn bool
	// users are downstream source sets using the dependency without declaring
	// it themselves, nearest first.
	users []string
}

func (u usage) used() bool { return u.usedInOwn || len(u.users) > 0 }

func usageOf(ctx context.Context, actx *analysis.Context, p *graph.Project, c candidate) (usage, error) {
	var u usage
	var err error
	u.usedInOwn, err = actx.Uses(ctx, p, c.sourceSet, c.dep)
	if err != nil {
		return usage{}, err
	}

	downstream, err := p.WithDownstream(c.sourceSet)
	if err != nil {
		return usage{}, err
	}
	below := make(map[string]bool, len(downstream))
	for _, ss := range downstream {
		below[ss] = true
	}

	for _, ss := range downstream[1:] {
		covered, err := coveredBelow(p, c.sourceSet, ss, below, c.dep.TargetKey())
		if err != nil {
			return usage{}, err
		}
		if covered {
			continue
		}
		used, err := actx.Uses(ctx, p, ss, c.dep)
		if err != nil {
			return usage{}, err
		}
		if used {
			u.users = append(u.users, ss)
		}
	}
	return u, nil
}

// coveredBelow reports whether ss, or a source set between declaring and ss,
// declares the same target itself. Usage there is served by that
// declaration, not by the one in declaring.
func coveredBelow(p *graph.Project, declaring, ss string, below map[string]bool, targetKey string) (bool, error) {
	upstream, err := p.WithUpstream(ss)
	if err != nil {
		return false, err
	}
	for _, u := range upstream {
		if u == declaring || !below[u] {
			continue
		}
		for _, d := range p.DeclaredIn(u) {
			if d.TargetKey() == targetKey && graph.IsCompileVisible(d.ConfigurationName()) {
				return true, nil
			}
		}
	}
	return false, nil
}

// Unused reports declarations nothing references, neither the declaring
// source set nor anything extending it.
func Unused(ctx context.Context, actx *analysis.Context, p *graph.Project) ([]Finding, error) {
	var out []Finding
	for _, c := range checkable(p) {
		u, err := usageOf(ctx, actx, p, c)
		if err != nil {
			return nil, err
		}
		if !u.used() {
			out = append(out, UnusedDependency{Project: p.Path(), Dependency: c.dep})
		}
	}
	return out, nil
}
