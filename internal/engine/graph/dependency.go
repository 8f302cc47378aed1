package graph

import (
	"fmt"
	"strings"
)

// ConfiguredDependency is a dependency declared in a configuration. The only
// implementations are ModuleDependency and ExternalDependency; consumers
// switch over those two types.
type ConfiguredDependency interface {
	ConfigurationName() string
	// Identifier is the module path or the group:module:version coordinate.
	Identifier() string
	// TargetKey identifies what the dependency points at, ignoring the
	// configuration it is declared in.
	TargetKey() string
	IsTestFixtures() bool
	String() string

	withConfiguration(name string) ConfiguredDependency
}

// ModuleDependency points at another project of the same build.
type ModuleDependency struct {
	Configuration string
	Path          ProjectPath
	TestFixtures  bool
}

func (d ModuleDependency) ConfigurationName() string { return d.Configuration }

func (d ModuleDependency) Identifier() string { return d.Path.String() }

func (d ModuleDependency) TargetKey() string {
	key := "project:" + d.Path.Key()
	if d.TestFixtures {
		key += "#testFixtures"
	}
	return key
}

func (d ModuleDependency) IsTestFixtures() bool { return d.TestFixtures }

func (d ModuleDependency) String() string {
	if d.TestFixtures {
		return fmt.Sprintf("%s(testFixtures(project(%q)))", d.Configuration, d.Path.String())
	}
	return fmt.Sprintf("%s(project(%q))", d.Configuration, d.Path.String())
}

func (d ModuleDependency) withConfiguration(name string) ConfiguredDependency {
	d.Configuration = name
	return d
}

// ExternalDependency is a binary coordinate resolved from a repository.
type ExternalDependency struct {
	Configuration string
	Group         string
	Module        string
	Version       string
	TestFixtures  bool
}

// ParseCoordinates splits "group:module[:version]".
func ParseCoordinates(configuration, coords string) (ExternalDependency, error) {
	parts := strings.Split(strings.TrimSpace(coords), ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return ExternalDependency{}, fmt.Errorf("invalid coordinates %q", coords)
	}
	d := ExternalDependency{Configuration: configuration, Group: parts[0], Module: parts[1]}
	if len(parts) == 3 {
		d.Version = parts[2]
	}
	return d, nil
}

func (d ExternalDependency) ConfigurationName() string { return d.Configuration }

func (d ExternalDependency) Identifier() string {
	if d.Version == "" {
		return d.Group + ":" + d.Module
	}
	return d.Group + ":" + d.Module + ":" + d.Version
}

// TargetKey ignores the version: two versions of one artifact are the same
// target for dependency-health purposes.
func (d ExternalDependency) TargetKey() string {
	key := "external:" + d.Group + ":" + d.Module
	if d.TestFixtures {
		key += "#testFixtures"
	}
	return key
}

func (d ExternalDependency) IsTestFixtures() bool { return d.TestFixtures }

func (d ExternalDependency) String() string {
	return fmt.Sprintf("%s(%q)", d.Configuration, d.Identifier())
}

func (d ExternalDependency) withConfiguration(name string) ConfiguredDependency {
	d.Configuration = name
	return d
}

// WithConfiguration returns a copy of d declared in another configuration.
func WithConfiguration(d ConfiguredDependency, name string) ConfiguredDependency {
	return d.withConfiguration(name)
}

// DeclarationKey identifies a single declaration: target plus configuration.
func DeclarationKey(d ConfiguredDependency) string {
	return d.ConfigurationName() + "|" + d.TargetKey()
}

// TransitiveDependency records that Contributed is reachable because of the
// direct dependency Source.
type TransitiveDependency struct {
	Source      ConfiguredDependency
	Contributed ConfiguredDependency
}

// IsDirect reports whether the contributed dependency is the direct edge
// itself.
func (t TransitiveDependency) IsDirect() bool {
	return t.Source.TargetKey() == t.Contributed.TargetKey()
}
