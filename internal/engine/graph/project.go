package graph

import (
	"sort"
	"strings"

	domainerrors "modcheck/internal/core/errors"
)

// Project is a single module. Source sets are stored in an arena indexed by
// position in topological order; upstream holds the authoritative
// extends-from edges and downstream is derived from it once at build time.
type Project struct {
	path ProjectPath

	sourceSets []string
	ssIndex    map[string]int
	upstream   [][]int
	downstream [][]int

	configs     map[string]Configuration
	configOrder []string

	dependencies []ConfiguredDependency

	opts Options
}

func (p *Project) Path() ProjectPath { return p.path }

// SourceSets returns source set names in topological order: every source set
// appears after everything it extends from, ties broken alphabetically.
func (p *Project) SourceSets() []string {
	return append([]string(nil), p.sourceSets...)
}

func (p *Project) HasSourceSet(name string) bool {
	_, ok := p.ssIndex[name]
	return ok
}

func (p *Project) sourceSetIndex(name string) (int, error) {
	idx, ok := p.ssIndex[name]
	if !ok {
		err := domainerrors.Newf(domainerrors.CodeNotFound, "source set %q not found", name)
		err = domainerrors.AddContext(err, domainerrors.CtxProject, p.path.String())
		return 0, err
	}
	return idx, nil
}

// Upstream returns the source sets name directly extends, nearest first.
func (p *Project) Upstream(name string) ([]string, error) {
	idx, err := p.sourceSetIndex(name)
	if err != nil {
		return nil, err
	}
	return p.namesOf(p.upstream[idx]), nil
}

// WithUpstream returns name and everything it transitively extends,
// nearest first.
func (p *Project) WithUpstream(name string) ([]string, error) {
	idx, err := p.sourceSetIndex(name)
	if err != nil {
		return nil, err
	}
	return p.namesOf(closure(idx, p.upstream)), nil
}

// WithDownstream returns name and every source set that transitively extends
// it, nearest first.
func (p *Project) WithDownstream(name string) ([]string, error) {
	idx, err := p.sourceSetIndex(name)
	if err != nil {
		return nil, err
	}
	return p.namesOf(closure(idx, p.downstream)), nil
}

// closure is a breadth-first walk. Build rejects cyclic source sets, so the
// visited set only guards against diamonds.
func closure(start int, adjacency [][]int) []int {
	out := []int{start}
	seen := map[int]bool{start: true}
	for i := 0; i < len(out); i++ {
		for _, next := range adjacency[out[i]] {
			if seen[next] {
				continue
			}
			seen[next] = true
			out = append(out, next)
		}
	}
	return out
}

func (p *Project) namesOf(indexes []int) []string {
	out := make([]string, len(indexes))
	for i, idx := range indexes {
		out[i] = p.sourceSets[idx]
	}
	return out
}

// IsTestingOnly reports whether a source set only holds tests. Test fixtures
// are shared with other projects and are not testing-only.
func (p *Project) IsTestingOnly(sourceSet string) bool {
	return isTestingOnly(sourceSet, p.opts.TestingPrefixes)
}

func isTestingOnly(sourceSet string, prefixes []string) bool {
	if strings.HasPrefix(sourceSet, TestFixturesSourceSet) {
		return false
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(sourceSet, prefix) {
			return true
		}
	}
	return false
}

// Configurations returns all buckets in declaration order.
func (p *Project) Configurations() []Configuration {
	out := make([]Configuration, 0, len(p.configOrder))
	for _, name := range p.configOrder {
		out = append(out, p.configs[name].clone())
	}
	return out
}

func (p *Project) Configuration(name string) (Configuration, bool) {
	c, ok := p.configs[name]
	if !ok {
		return Configuration{}, false
	}
	return c.clone(), true
}

// ConfigurationsFor returns the buckets bound to sourceSet.
func (p *Project) ConfigurationsFor(sourceSet string) []Configuration {
	var out []Configuration
	for _, name := range p.configOrder {
		if c := p.configs[name]; c.SourceSet == sourceSet {
			out = append(out, c.clone())
		}
	}
	return out
}

// SourceSetOf returns the source set a configuration belongs to.
func (p *Project) SourceSetOf(configuration string) (string, bool) {
	c, ok := p.configs[configuration]
	if !ok {
		return "", false
	}
	return c.SourceSet, true
}

// ConfigurationClosure returns name and every configuration it transitively
// extends from, nearest first.
func (p *Project) ConfigurationClosure(name string) []string {
	if _, ok := p.configs[name]; !ok {
		return nil
	}
	out := []string{name}
	seen := map[string]bool{name: true}
	for i := 0; i < len(out); i++ {
		for _, next := range p.configs[out[i]].ExtendsFrom {
			if seen[next] {
				continue
			}
			seen[next] = true
			out = append(out, next)
		}
	}
	return out
}

// PropagatingConfigurations returns the buckets whose contents reach a
// dependent that consumes this project, following extends-from edges between
// propagating buckets only. testFixtures selects the test fixtures variant.
func (p *Project) PropagatingConfigurations(testFixtures bool) []string {
	sourceSet := MainSourceSet
	if testFixtures {
		sourceSet = TestFixturesSourceSet
	}
	var roots []string
	for _, base := range p.opts.PropagatingBases {
		name := ConfigurationName(sourceSet, base)
		if c, ok := p.configs[name]; ok && c.Propagating {
			roots = append(roots, name)
		}
	}

	out := make([]string, 0, len(roots))
	seen := make(map[string]bool)
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		if seen[curr] {
			continue
		}
		seen[curr] = true
		out = append(out, curr)
		for _, next := range p.configs[curr].ExtendsFrom {
			if c, ok := p.configs[next]; ok && c.Propagating && !seen[next] {
				queue = append(queue, next)
			}
		}
	}
	return out
}

// Dependencies returns every declared dependency in declaration order.
func (p *Project) Dependencies() []ConfiguredDependency {
	return append([]ConfiguredDependency(nil), p.dependencies...)
}

// DependenciesIn returns dependencies declared directly in the given
// configurations, in declaration order.
func (p *Project) DependenciesIn(configurations ...string) []ConfiguredDependency {
	wanted := make(map[string]bool, len(configurations))
	for _, c := range configurations {
		wanted[c] = true
	}
	var out []ConfiguredDependency
	for _, d := range p.dependencies {
		if wanted[d.ConfigurationName()] {
			out = append(out, d)
		}
	}
	return out
}

// DeclaredIn returns dependencies whose configuration is bound to sourceSet.
func (p *Project) DeclaredIn(sourceSet string) []ConfiguredDependency {
	var out []ConfiguredDependency
	for _, d := range p.dependencies {
		if ss, ok := p.SourceSetOf(d.ConfigurationName()); ok && ss == sourceSet {
			out = append(out, d)
		}
	}
	return out
}

// VisibleDependencies returns the direct dependencies of sourceSet and of the
// source sets it extends, nearest source set first.
func (p *Project) VisibleDependencies(sourceSet string) ([]ConfiguredDependency, error) {
	sets, err := p.WithUpstream(sourceSet)
	if err != nil {
		return nil, err
	}
	var out []ConfiguredDependency
	for _, ss := range sets {
		out = append(out, p.DeclaredIn(ss)...)
	}
	return out, nil
}

// sortedProjects orders projects by their normalized path.
func sortedProjects(projects []*Project) []*Project {
	out := append([]*Project(nil), projects...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].path.Key() < out[j].path.Key()
	})
	return out
}
