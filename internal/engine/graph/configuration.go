package graph

import (
	"strings"
	"unicode"
)

const (
	MainSourceSet         = "main"
	TestFixturesSourceSet = "testFixtures"
)

const (
	BaseAPI                 = "api"
	BaseImplementation      = "implementation"
	BaseCompileOnly         = "compileOnly"
	BaseRuntimeOnly         = "runtimeOnly"
	BaseAnnotationProcessor = "annotationProcessor"
)

var javaBases = []string{
	BaseAPI,
	BaseImplementation,
	BaseCompileOnly,
	BaseRuntimeOnly,
	BaseAnnotationProcessor,
}

// Configuration is a dependency bucket bound to a source set.
type Configuration struct {
	Name        string
	SourceSet   string
	ExtendsFrom []string
	Propagating bool
}

func (c Configuration) clone() Configuration {
	c.ExtendsFrom = append([]string(nil), c.ExtendsFrom...)
	return c
}

// ConfigurationName builds the bucket name for a source set, e.g. "api" for
// main and "testImplementation" for test.
func ConfigurationName(sourceSet, base string) string {
	if sourceSet == "" || sourceSet == MainSourceSet {
		return base
	}
	return sourceSet + capitalize(base)
}

// JavaConfigurationNames lists the canonical buckets of a source set.
func JavaConfigurationNames(sourceSet string) []string {
	out := make([]string, len(javaBases))
	for i, base := range javaBases {
		out[i] = ConfigurationName(sourceSet, base)
	}
	return out
}

// SplitConfigurationName is the inverse of ConfigurationName for the
// canonical bases. ok is false for names it does not understand.
func SplitConfigurationName(name string) (sourceSet, base string, ok bool) {
	for _, b := range javaBases {
		if name == b {
			return MainSourceSet, b, true
		}
	}
	for _, b := range javaBases {
		suffix := capitalize(b)
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return strings.TrimSuffix(name, suffix), b, true
		}
	}
	return "", "", false
}

// BaseConfiguration returns the canonical base of name, or name itself.
func BaseConfiguration(name string) string {
	if _, base, ok := SplitConfigurationName(name); ok {
		return base
	}
	return name
}

// IsCompileVisible reports whether dependencies in the bucket are visible to
// the compiler, which is what reference-based usage can observe.
func IsCompileVisible(configuration string) bool {
	switch BaseConfiguration(configuration) {
	case BaseAPI, BaseImplementation, BaseCompileOnly:
		return true
	default:
		return false
	}
}

func capitalize(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}

// synthesizeConfigurations creates the canonical buckets for every source set
// when a snapshot does not list them.
func synthesizeConfigurations(sourceSets []string, upstream map[string][]string, propagating map[string]bool) []Configuration {
	out := make([]Configuration, 0, len(sourceSets)*len(javaBases))
	for _, ss := range sourceSets {
		ups := upstream[ss]
		fromUpstream := func(base string) []string {
			names := make([]string, 0, len(ups))
			for _, u := range ups {
				names = append(names, ConfigurationName(u, base))
			}
			return names
		}
		for _, base := range javaBases {
			var extends []string
			switch base {
			case BaseAPI, BaseCompileOnly, BaseRuntimeOnly:
				extends = fromUpstream(base)
			case BaseImplementation:
				extends = append([]string{ConfigurationName(ss, BaseAPI)}, fromUpstream(base)...)
			}
			out = append(out, Configuration{
				Name:        ConfigurationName(ss, base),
				SourceSet:   ss,
				ExtendsFrom: extends,
				Propagating: propagating[base],
			})
		}
	}
	return out
}
