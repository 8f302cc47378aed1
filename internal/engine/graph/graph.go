package graph

import (
	"fmt"
	"strings"

	domainerrors "modcheck/internal/core/errors"
	"modcheck/internal/shared/observability"
)

// Graph is the read-only module graph of one analysis run. Projects live in
// an arena and are looked up by normalized path.
type Graph struct {
	projects []*Project
	index    map[string]int
	opts     Options
}

// Build validates a snapshot and turns it into a Graph. Source-set and
// configuration cycles fail with CodeCycle, dependencies on unknown projects
// with CodeNotFound.
func Build(s Snapshot, opts Options) (*Graph, error) {
	opts = opts.withDefaults()
	g := &Graph{
		projects: make([]*Project, 0, len(s.Projects)),
		index:    make(map[string]int, len(s.Projects)),
		opts:     opts,
	}

	for _, ps := range s.Projects {
		p, err := buildProject(ps, opts)
		if err != nil {
			return nil, domainerrors.AddContext(err, domainerrors.CtxProject, ps.Path)
		}
		if _, dup := g.index[p.path.Key()]; dup {
			err := domainerrors.Newf(domainerrors.CodeConflict, "duplicate project path %q", ps.Path)
			return nil, domainerrors.AddContext(err, domainerrors.CtxProject, ps.Path)
		}
		g.index[p.path.Key()] = len(g.projects)
		g.projects = append(g.projects, p)
	}

	for _, p := range g.projects {
		for _, d := range p.dependencies {
			md, ok := d.(ModuleDependency)
			if !ok {
				continue
			}
			if _, err := g.Project(md.Path); err != nil {
				err = domainerrors.AddContext(err, domainerrors.CtxProject, p.path.String())
				return nil, domainerrors.AddContext(err, domainerrors.CtxConfiguration, md.Configuration)
			}
		}
	}

	observability.GraphProjects.Set(float64(len(g.projects)))
	return g, nil
}

func buildProject(ps ProjectSnapshot, opts Options) (*Project, error) {
	path := NewProjectPath(ps.Path)
	if path.IsZero() {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "project path must not be empty")
	}

	p := &Project{
		path:    path,
		ssIndex: make(map[string]int),
		configs: make(map[string]Configuration),
		opts:    opts,
	}

	if err := p.buildSourceSets(ps.SourceSets); err != nil {
		return nil, err
	}
	if err := p.buildConfigurations(ps.Configurations); err != nil {
		return nil, err
	}
	if err := p.buildDependencies(ps.Dependencies); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Project) buildSourceSets(snapshots []SourceSetSnapshot) error {
	if len(snapshots) == 0 {
		snapshots = []SourceSetSnapshot{{Name: MainSourceSet}}
	}

	names := make([]string, 0, len(snapshots))
	extends := make(map[string][]string, len(snapshots))
	for _, ss := range snapshots {
		name := strings.TrimSpace(ss.Name)
		if name == "" {
			return domainerrors.New(domainerrors.CodeValidationError, "source set name must not be empty")
		}
		if _, dup := extends[name]; dup {
			return domainerrors.Newf(domainerrors.CodeConflict, "duplicate source set %q", name)
		}
		names = append(names, name)
		extends[name] = append([]string{}, ss.ExtendsFrom...)
	}
	for _, name := range names {
		for _, up := range extends[name] {
			if _, ok := extends[up]; !ok {
				err := domainerrors.Newf(domainerrors.CodeNotFound, "source set %q extends unknown source set %q", name, up)
				return domainerrors.AddContext(err, domainerrors.CtxSourceSet, name)
			}
		}
	}

	order, cycle := topoSort(names, extends)
	if cycle != nil {
		err := domainerrors.New(domainerrors.CodeCycle, "source set inheritance is cyclic")
		return domainerrors.AddContext(err, domainerrors.CtxCycle, strings.Join(cycle, " -> "))
	}

	p.sourceSets = order
	for i, name := range order {
		p.ssIndex[name] = i
	}
	p.upstream = make([][]int, len(order))
	p.downstream = make([][]int, len(order))
	for i, name := range order {
		for _, up := range extends[name] {
			j := p.ssIndex[up]
			p.upstream[i] = append(p.upstream[i], j)
			p.downstream[j] = append(p.downstream[j], i)
		}
	}
	return nil
}

func (p *Project) buildConfigurations(snapshots []ConfigurationSnapshot) error {
	propagating := make(map[string]bool, len(p.opts.PropagatingBases))
	for _, base := range p.opts.PropagatingBases {
		propagating[base] = true
	}

	var configs []Configuration
	if len(snapshots) == 0 {
		upstream := make(map[string][]string, len(p.sourceSets))
		for i, name := range p.sourceSets {
			upstream[name] = p.namesOf(p.upstream[i])
		}
		configs = synthesizeConfigurations(p.sourceSets, upstream, propagating)
	} else {
		for _, cs := range snapshots {
			c, err := p.configurationFromSnapshot(cs, propagating)
			if err != nil {
				return err
			}
			configs = append(configs, c)
		}
	}

	for _, c := range configs {
		if _, dup := p.configs[c.Name]; dup {
			return domainerrors.Newf(domainerrors.CodeConflict, "duplicate configuration %q", c.Name)
		}
		p.configs[c.Name] = c
		p.configOrder = append(p.configOrder, c.Name)
	}
	return p.validateConfigurations()
}

func (p *Project) configurationFromSnapshot(cs ConfigurationSnapshot, propagating map[string]bool) (Configuration, error) {
	name := strings.TrimSpace(cs.Name)
	if name == "" {
		return Configuration{}, domainerrors.New(domainerrors.CodeValidationError, "configuration name must not be empty")
	}
	sourceSet := strings.TrimSpace(cs.SourceSet)
	if sourceSet == "" {
		derived, _, ok := SplitConfigurationName(name)
		if !ok || !p.HasSourceSet(derived) {
			err := domainerrors.Newf(domainerrors.CodeValidationError, "cannot derive source set of configuration %q", name)
			return Configuration{}, domainerrors.AddContext(err, domainerrors.CtxConfiguration, name)
		}
		sourceSet = derived
	}
	if !p.HasSourceSet(sourceSet) {
		err := domainerrors.Newf(domainerrors.CodeNotFound, "configuration %q is bound to unknown source set %q", name, sourceSet)
		return Configuration{}, domainerrors.AddContext(err, domainerrors.CtxConfiguration, name)
	}
	isPropagating := propagating[BaseConfiguration(name)]
	if cs.Propagating != nil {
		isPropagating = *cs.Propagating
	}
	return Configuration{
		Name:        name,
		SourceSet:   sourceSet,
		ExtendsFrom: append([]string(nil), cs.ExtendsFrom...),
		Propagating: isPropagating,
	}, nil
}

func (p *Project) validateConfigurations() error {
	extends := make(map[string][]string, len(p.configs))
	for _, name := range p.configOrder {
		c := p.configs[name]
		for _, up := range c.ExtendsFrom {
			if _, ok := p.configs[up]; !ok {
				err := domainerrors.Newf(domainerrors.CodeNotFound, "configuration %q extends unknown configuration %q", name, up)
				return domainerrors.AddContext(err, domainerrors.CtxConfiguration, name)
			}
		}
		extends[name] = c.ExtendsFrom
	}
	if _, cycle := topoSort(p.configOrder, extends); cycle != nil {
		err := domainerrors.New(domainerrors.CodeCycle, "configuration inheritance is cyclic")
		return domainerrors.AddContext(err, domainerrors.CtxCycle, strings.Join(cycle, " -> "))
	}
	return nil
}

func (p *Project) buildDependencies(snapshots []DependencySnapshot) error {
	for _, ds := range snapshots {
		config := strings.TrimSpace(ds.Configuration)
		if _, ok := p.configs[config]; !ok {
			err := domainerrors.Newf(domainerrors.CodeNotFound, "dependency declared in unknown configuration %q", config)
			return domainerrors.AddContext(err, domainerrors.CtxConfiguration, config)
		}

		switch {
		case strings.TrimSpace(ds.Project) != "" && strings.TrimSpace(ds.Coordinates) != "":
			return domainerrors.Newf(domainerrors.CodeValidationError, "dependency in %q has both a project and coordinates", config)
		case strings.TrimSpace(ds.Project) != "":
			p.dependencies = append(p.dependencies, ModuleDependency{
				Configuration: config,
				Path:          NewProjectPath(ds.Project),
				TestFixtures:  ds.TestFixtures,
			})
		case strings.TrimSpace(ds.Coordinates) != "":
			ext, err := ParseCoordinates(config, ds.Coordinates)
			if err != nil {
				return domainerrors.Wrap(err, domainerrors.CodeValidationError, "invalid external dependency")
			}
			ext.TestFixtures = ds.TestFixtures
			p.dependencies = append(p.dependencies, ext)
		default:
			return domainerrors.Newf(domainerrors.CodeValidationError, "dependency in %q has neither a project nor coordinates", config)
		}
	}
	return nil
}

// Project looks up a project by path. A missing project is a lookup failure,
// never an empty result.
func (g *Graph) Project(path ProjectPath) (*Project, error) {
	idx, ok := g.index[path.Key()]
	if !ok {
		err := domainerrors.Newf(domainerrors.CodeNotFound, "project %q not found", path.String())
		return nil, domainerrors.AddContext(err, domainerrors.CtxPath, path.String())
	}
	return g.projects[idx], nil
}

// Projects returns all projects ordered by path.
func (g *Graph) Projects() []*Project {
	return sortedProjects(g.projects)
}

func (g *Graph) Len() int { return len(g.projects) }

func (g *Graph) Options() Options { return g.opts }

func (g *Graph) String() string {
	return fmt.Sprintf("graph(%d projects)", len(g.projects))
}
