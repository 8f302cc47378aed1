package graph

// Snapshot is the immutable project model a run starts from. It is produced
// outside this module (by a build-tool integration or a snapshot file).
type Snapshot struct {
	Projects []ProjectSnapshot
}

type ProjectSnapshot struct {
	Path           string
	SourceSets     []SourceSetSnapshot
	Configurations []ConfigurationSnapshot
	Dependencies   []DependencySnapshot
}

// SourceSetSnapshot lists the source sets this one extends, nearest first.
type SourceSetSnapshot struct {
	Name        string
	ExtendsFrom []string
}

// ConfigurationSnapshot describes a bucket. An empty SourceSet is derived
// from the name; a nil Propagating flag falls back to the configured
// propagating bases.
type ConfigurationSnapshot struct {
	Name        string
	SourceSet   string
	ExtendsFrom []string
	Propagating *bool
}

// DependencySnapshot is either a project dependency (Project set) or an
// external one (Coordinates set).
type DependencySnapshot struct {
	Configuration string
	Project       string
	Coordinates   string
	TestFixtures  bool
}

// Options tune how a snapshot is interpreted.
type Options struct {
	// PropagatingBases are the configuration bases whose contents reach
	// dependents. Defaults to "api".
	PropagatingBases []string
	// TestingPrefixes mark testing-only source sets, which cannot declare
	// propagating dependencies. Defaults to "test" and "androidTest".
	TestingPrefixes []string
}

func (o Options) withDefaults() Options {
	if len(o.PropagatingBases) == 0 {
		o.PropagatingBases = []string{BaseAPI}
	}
	if len(o.TestingPrefixes) == 0 {
		o.TestingPrefixes = []string{"test", "androidTest"}
	}
	return o
}
