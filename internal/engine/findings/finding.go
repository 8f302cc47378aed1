// Package findings computes dependency-health findings from a per-run
// analysis context.
package findings

import (
	"fmt"
	"strings"

	"modcheck/internal/core/ports"
	"modcheck/internal/engine/graph"
)

type Kind string

const (
	KindUnused    Kind = "unused"
	KindInherited Kind = "inherited"
	KindOverShot  Kind = "overshot"
	KindRedundant Kind = "redundant"
)

// Kinds lists every finding kind in report order.
var Kinds = []Kind{KindUnused, KindInherited, KindOverShot, KindRedundant}

func (k Kind) order() int {
	for i, kind := range Kinds {
		if kind == k {
			return i
		}
	}
	return len(Kinds)
}

// Finding is implemented by UnusedDependency, InheritedDependency,
// OverShotDependency and RedundantDependency only.
type Finding interface {
	ports.Finding
	finding()
}

// UnusedDependency is a declared module dependency whose symbols are never
// referenced by the declaring source set or the source sets extending it.
type UnusedDependency struct {
	Project    graph.ProjectPath
	Dependency graph.ConfiguredDependency
}

func (UnusedDependency) finding() {}

func (f UnusedDependency) Kind() string                 { return string(KindUnused) }
func (f UnusedDependency) ProjectPath() string          { return f.Project.String() }
func (f UnusedDependency) ConfigurationName() string    { return f.Dependency.ConfigurationName() }
func (f UnusedDependency) DependencyIdentifier() string { return f.Dependency.Identifier() }
func (f UnusedDependency) Fixable() bool                { return true }
func (f UnusedDependency) Provenance() []string         { return nil }

func (f UnusedDependency) Message() string {
	return fmt.Sprintf("unused dependency %s", f.Dependency)
}

// InheritedDependency is a module reached only transitively whose symbols
// are referenced directly. MustBeAPI is set when a public signature needs it.
type InheritedDependency struct {
	Project   graph.ProjectPath
	SourceSet string
	// Dependency is the declaration to add.
	Dependency graph.ConfiguredDependency
	// Source is the direct edge the dependency currently arrives through.
	Source    graph.ConfiguredDependency
	MustBeAPI bool
}

func (InheritedDependency) finding() {}

func (f InheritedDependency) Kind() string                 { return string(KindInherited) }
func (f InheritedDependency) ProjectPath() string          { return f.Project.String() }
func (f InheritedDependency) ConfigurationName() string    { return f.Dependency.ConfigurationName() }
func (f InheritedDependency) DependencyIdentifier() string { return f.Dependency.Identifier() }
func (f InheritedDependency) Fixable() bool                { return true }

func (f InheritedDependency) Provenance() []string {
	return []string{f.Source.String()}
}

func (f InheritedDependency) Message() string {
	verb := "must be declared"
	if f.MustBeAPI {
		verb = "must be api"
	}
	return fmt.Sprintf("%s: %s, currently inherited through %s", verb, f.Dependency, f.Source)
}

// OverShotDependency is declared in a source set that does not use it while
// source sets downstream of it do. To holds the narrower declarations.
type OverShotDependency struct {
	Project    graph.ProjectPath
	Dependency graph.ConfiguredDependency
	To         []graph.ConfiguredDependency
}

func (OverShotDependency) finding() {}

func (f OverShotDependency) Kind() string                 { return string(KindOverShot) }
func (f OverShotDependency) ProjectPath() string          { return f.Project.String() }
func (f OverShotDependency) ConfigurationName() string    { return f.Dependency.ConfigurationName() }
func (f OverShotDependency) DependencyIdentifier() string { return f.Dependency.Identifier() }
func (f OverShotDependency) Fixable() bool                { return len(f.To) > 0 }

func (f OverShotDependency) Provenance() []string {
	return dependencyStrings(f.To)
}

func (f OverShotDependency) Message() string {
	return fmt.Sprintf("%s is only used downstream, declare %s instead",
		f.Dependency, strings.Join(dependencyStrings(f.To), ", "))
}

// RedundantDependency is already provided by the propagating configurations
// of the dependencies in From.
type RedundantDependency struct {
	Project    graph.ProjectPath
	Dependency graph.ConfiguredDependency
	From       []graph.ConfiguredDependency
}

func (RedundantDependency) finding() {}

func (f RedundantDependency) Kind() string                 { return string(KindRedundant) }
func (f RedundantDependency) ProjectPath() string          { return f.Project.String() }
func (f RedundantDependency) ConfigurationName() string    { return f.Dependency.ConfigurationName() }
func (f RedundantDependency) DependencyIdentifier() string { return f.Dependency.Identifier() }
func (f RedundantDependency) Fixable() bool                { return true }

func (f RedundantDependency) Provenance() []string {
	out := make([]string, len(f.From))
	for i, d := range f.From {
		out[i] = d.Identifier()
	}
	return out
}

func (f RedundantDependency) Message() string {
	return fmt.Sprintf("redundant dependency %s, already provided by %s",
		f.Dependency, strings.Join(f.Provenance(), ", "))
}

func dependencyStrings(deps []graph.ConfiguredDependency) []string {
	out := make([]string, len(deps))
	for i, d := range deps {
		out[i] = d.String()
	}
	return out
}

// AsPorts widens findings to the port type consumed by sinks.
func AsPorts(in []Finding) []ports.Finding {
	out := make([]ports.Finding, len(in))
	for i, f := range in {
		out[i] = f
	}
	return out
}

// Key identifies a finding for set comparisons across runs.
func Key(f ports.Finding) string {
	return strings.Join([]string{f.ProjectPath(), f.Kind(), f.ConfigurationName(), f.DependencyIdentifier()}, "|")
}
