// Package snapshot reads a build snapshot file: the project model together
// with the per-source-set facts and generated-symbol indexes a run needs.
package snapshot

import (
	"fmt"
	"os"
	"sort"
	"strings"

	domainerrors "modcheck/internal/core/errors"
	"modcheck/internal/engine/facts"
	"modcheck/internal/engine/graph"
	"modcheck/internal/engine/names"

	"github.com/BurntSushi/toml"
	"github.com/cespare/xxhash/v2"
)

// Snapshot is everything decoded from one snapshot file.
type Snapshot struct {
	Graph     graph.Snapshot
	Facts     *facts.Static
	Resources []*facts.StaticResources
	// Fingerprint is the xxhash of the raw file, stable across loads of
	// identical content.
	Fingerprint string
}

type document struct {
	Projects  []projectDoc  `toml:"projects"`
	Facts     []factsDoc    `toml:"facts"`
	Resources []resourceDoc `toml:"resources"`
}

type projectDoc struct {
	Path           string             `toml:"path"`
	SourceSets     []sourceSetDoc     `toml:"source_sets"`
	Configurations []configurationDoc `toml:"configurations"`
	Dependencies   []dependencyDoc    `toml:"dependencies"`
}

type sourceSetDoc struct {
	Name        string   `toml:"name"`
	ExtendsFrom []string `toml:"extends_from"`
}

type configurationDoc struct {
	Name        string   `toml:"name"`
	SourceSet   string   `toml:"source_set"`
	ExtendsFrom []string `toml:"extends_from"`
	Propagating *bool    `toml:"propagating"`
}

type dependencyDoc struct {
	Configuration string `toml:"configuration"`
	Project       string `toml:"project"`
	Coordinates   string `toml:"coordinates"`
	TestFixtures  bool   `toml:"test_fixtures"`
}

type factsDoc struct {
	Project   string    `toml:"project"`
	SourceSet string    `toml:"source_set"`
	Files     []fileDoc `toml:"files"`
}

type fileDoc struct {
	Path            string            `toml:"path"`
	Package         string            `toml:"package"`
	Imports         []string          `toml:"imports"`
	WildcardImports []string          `toml:"wildcard_imports"`
	Aliases         map[string]string `toml:"aliases"`
	Declared        []string          `toml:"declared"`
	References      []string          `toml:"references"`
	APIReferences   []string          `toml:"api_references"`
}

type resourceDoc struct {
	Origin    string   `toml:"origin"`
	Project   string   `toml:"project"`
	SourceSet string   `toml:"source_set"`
	Package   string   `toml:"package"`
	Declared  []string `toml:"declared"`
	Local     string   `toml:"local"`
}

// Load reads and decodes a snapshot file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeNotFound, "read snapshot"),
			domainerrors.CtxPath, path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, domainerrors.AddContext(err, domainerrors.CtxPath, path)
	}
	return s, nil
}

// Fingerprint hashes raw snapshot content.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// Parse decodes snapshot content. Facts and resources must name projects
// declared in the same document; any path spelling is accepted and mapped to
// the declared one.
func Parse(data []byte) (*Snapshot, error) {
	var doc document
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "decode snapshot")
	}

	out := &Snapshot{
		Graph:       graph.Snapshot{Projects: make([]graph.ProjectSnapshot, 0, len(doc.Projects))},
		Facts:       facts.NewStatic(),
		Fingerprint: Fingerprint(data),
	}

	declared := make(map[string]string, len(doc.Projects))
	for _, p := range doc.Projects {
		out.Graph.Projects = append(out.Graph.Projects, p.toGraph())
		declared[graph.NewProjectPath(p.Path).Key()] = p.Path
	}
	canonical := func(section, raw string) (string, error) {
		path, ok := declared[graph.NewProjectPath(raw).Key()]
		if !ok {
			return "", domainerrors.Newf(domainerrors.CodeValidationError, "%s references unknown project %q", section, raw)
		}
		return path, nil
	}

	for i, fd := range doc.Facts {
		project, err := canonical(fmt.Sprintf("facts[%d]", i), fd.Project)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(fd.SourceSet) == "" {
			return nil, domainerrors.Newf(domainerrors.CodeValidationError, "facts[%d].source_set must not be empty", i)
		}
		for j, file := range fd.Files {
			ff, err := file.toFacts()
			if err != nil {
				return nil, domainerrors.AddContext(err, domainerrors.CtxSourceSet, fmt.Sprintf("facts[%d].files[%d]", i, j))
			}
			out.Facts.Add(project, fd.SourceSet, ff)
		}
	}

	byOrigin := make(map[names.Origin]*facts.StaticResources)
	for i, rd := range doc.Resources {
		ref := fmt.Sprintf("resources[%d]", i)
		project, err := canonical(ref, rd.Project)
		if err != nil {
			return nil, err
		}
		origin, err := parseOrigin(rd.Origin)
		if err != nil {
			return nil, domainerrors.AddContext(err, domainerrors.CtxPath, ref)
		}
		if strings.TrimSpace(rd.SourceSet) == "" {
			return nil, domainerrors.Newf(domainerrors.CodeValidationError, "%s.source_set must not be empty", ref)
		}
		idx, ok := byOrigin[origin]
		if !ok {
			idx = facts.NewStaticResources(origin)
			byOrigin[origin] = idx
		}

		pkg := names.PackageName(strings.TrimSpace(rd.Package))
		entries, err := declareAll(pkg, rd.Declared, origin)
		if err != nil {
			return nil, domainerrors.AddContext(err, domainerrors.CtxPath, ref)
		}
		idx.Add(project, rd.SourceSet, entries...)
		if local := strings.TrimSpace(rd.Local); local != "" {
			d, err := declare(pkg, local, origin)
			if err != nil {
				return nil, domainerrors.AddContext(err, domainerrors.CtxPath, ref)
			}
			idx.SetLocal(project, rd.SourceSet, d)
		}
	}

	origins := make([]names.Origin, 0, len(byOrigin))
	for o := range byOrigin {
		origins = append(origins, o)
	}
	sort.Slice(origins, func(i, j int) bool { return origins[i] < origins[j] })
	for _, o := range origins {
		out.Resources = append(out.Resources, byOrigin[o])
	}
	return out, nil
}

func (p projectDoc) toGraph() graph.ProjectSnapshot {
	ps := graph.ProjectSnapshot{Path: p.Path}
	for _, ss := range p.SourceSets {
		ps.SourceSets = append(ps.SourceSets, graph.SourceSetSnapshot{Name: ss.Name, ExtendsFrom: ss.ExtendsFrom})
	}
	for _, c := range p.Configurations {
		ps.Configurations = append(ps.Configurations, graph.ConfigurationSnapshot{
			Name:        c.Name,
			SourceSet:   c.SourceSet,
			ExtendsFrom: c.ExtendsFrom,
			Propagating: c.Propagating,
		})
	}
	for _, d := range p.Dependencies {
		ps.Dependencies = append(ps.Dependencies, graph.DependencySnapshot{
			Configuration: d.Configuration,
			Project:       d.Project,
			Coordinates:   d.Coordinates,
			TestFixtures:  d.TestFixtures,
		})
	}
	return ps
}

func (f fileDoc) toFacts() (facts.FileFacts, error) {
	pkg := names.PackageName(strings.TrimSpace(f.Package))
	declared, err := declareAll(pkg, f.Declared, names.OriginSource)
	if err != nil {
		return facts.FileFacts{}, err
	}
	ff := facts.FileFacts{
		Path:              f.Path,
		PackageName:       pkg,
		Imports:           f.Imports,
		WildcardImports:   f.WildcardImports,
		AliasedImports:    f.Aliases,
		DeclaredNames:     declared,
		ReferenceNames:    f.References,
		APIReferenceNames: f.APIReferences,
	}
	if err := ff.Validate(); err != nil {
		return facts.FileFacts{}, domainerrors.Wrap(err, domainerrors.CodeValidationError, "invalid file facts")
	}
	return ff, nil
}

// declare parses a declared name relative to pkg. Names already carrying
// the package prefix are accepted as is.
func declare(pkg names.PackageName, raw string, origin names.Origin) (names.DeclaredName, error) {
	raw = strings.TrimSpace(raw)
	if !pkg.IsDefault() && !strings.HasPrefix(raw, string(pkg)+".") {
		raw = pkg.Append(raw)
	}
	d, err := names.ParseDeclared(pkg, raw, origin)
	if err != nil {
		return names.DeclaredName{}, domainerrors.Wrap(err, domainerrors.CodeValidationError, fmt.Sprintf("invalid declared name %q", raw))
	}
	return d, nil
}

func declareAll(pkg names.PackageName, raw []string, origin names.Origin) ([]names.DeclaredName, error) {
	out := make([]names.DeclaredName, 0, len(raw))
	for _, r := range raw {
		d, err := declare(pkg, r, origin)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func parseOrigin(raw string) (names.Origin, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "resource":
		return names.OriginResource, nil
	case "binding":
		return names.OriginBinding, nil
	default:
		return 0, domainerrors.Newf(domainerrors.CodeValidationError, "unknown resource origin %q; expected resource or binding", raw)
	}
}
