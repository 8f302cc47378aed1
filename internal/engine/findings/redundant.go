package findings

import (
	"context"

	"modcheck/internal/engine/analysis"
	"modcheck/internal/engine/graph"
)

// Redundant reports module dependencies that another dependency visible to
// the same source set already forwards through its propagating
// configurations.
func Redundant(ctx context.Context, actx *analysis.Context, p *graph.Project) ([]Finding, error) {
	var out []Finding
	for _, ss := range p.SourceSets() {
		visible, err := p.VisibleDependencies(ss)
		if err != nil {
			return nil, err
		}
		for _, d := range p.DeclaredIn(ss) {
			md, ok := d.(graph.ModuleDependency)
			if !ok || analysis.IsSelf(p, md) || !graph.IsCompileVisible(md.Configuration) {
				continue
			}

			var from []graph.ConfiguredDependency
			for _, e := range visible {
				if e.TargetKey() == md.TargetKey() || !graph.IsCompileVisible(e.ConfigurationName()) {
					continue
				}
				forwarded, err := actx.APIClosure(ctx, p, e)
				if err != nil {
					return nil, err
				}
				for _, td := range forwarded {
					if td.Contributed.TargetKey() == md.TargetKey() {
						from = append(from, e)
						break
					}
				}
			}
			if len(from) > 0 {
				out = append(out, RedundantDependency{Project: p.Path(), Dependency: md, From: from})
			}
		}
	}
	return out, nil
}
