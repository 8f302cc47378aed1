package graph

import (
	"testing"

	domainerrors "modcheck/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopoSort(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []string
		extends map[string][]string
		order   []string
		cycle   []string
	}{
		{
			name:  "alphabetical ties",
			nodes: []string{"c", "b", "a"},
			order: []string{"a", "b", "c"},
		},
		{
			name:    "chain",
			nodes:   []string{"c", "b", "a"},
			extends: map[string][]string{"a": {"b"}, "b": {"c"}},
			order:   []string{"c", "b", "a"},
		},
		{
			name:    "diamond",
			nodes:   []string{"d", "c", "b", "a"},
			extends: map[string][]string{"d": {"b", "c"}, "b": {"a"}, "c": {"a"}},
			order:   []string{"a", "b", "c", "d"},
		},
		{
			name:    "three cycle",
			nodes:   []string{"a", "b", "c"},
			extends: map[string][]string{"a": {"b"}, "b": {"c"}, "c": {"a"}},
			cycle:   []string{"a", "b", "c", "a"},
		},
		{
			name:    "self loop",
			nodes:   []string{"main"},
			extends: map[string][]string{"main": {"main"}},
			cycle:   []string{"main", "main"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, cycle := topoSort(tt.nodes, tt.extends)
			assert.Equal(t, tt.order, order)
			assert.Equal(t, tt.cycle, cycle)
		})
	}
}

func closureKeys(deps []TransitiveDependency) []string {
	out := make([]string, len(deps))
	for i, d := range deps {
		out[i] = d.Contributed.Identifier()
	}
	return out
}

func TestClosure_PropagationFilter(t *testing.T) {
	g := mustBuild(t,
		javaProject(":a", dep("implementation", ":b")),
		javaProject(":b", dep("api", ":c"), dep("implementation", ":d")),
		javaProject(":c"),
		javaProject(":d"),
	)
	a, err := g.Project(NewProjectPath(":a"))
	require.NoError(t, err)
	b, err := g.Project(NewProjectPath(":b"))
	require.NoError(t, err)

	fromA, err := g.Closure(a, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{":b", ":c"}, closureKeys(fromA))
	assert.NotContains(t, closureKeys(fromA), ":d")

	c := fromA[1]
	assert.False(t, c.IsDirect())
	assert.Equal(t, ":b", c.Source.Identifier())
	assert.Equal(t, "implementation", c.Contributed.ConfigurationName())

	fromB, err := g.Closure(b, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{":c", ":d"}, closureKeys(fromB))
}

func TestClosure_ImplementationDoesNotLeak(t *testing.T) {
	g := mustBuild(t,
		javaProject(":a", dep("implementation", ":b")),
		javaProject(":b", dep("implementation", ":c")),
		javaProject(":c"),
	)
	a, _ := g.Project(NewProjectPath(":a"))
	fromA, err := g.Closure(a, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{":b"}, closureKeys(fromA))
}

func TestClosure_Diamond(t *testing.T) {
	g := mustBuild(t,
		javaProject(":app", dep("implementation", ":left"), dep("api", ":right")),
		javaProject(":left", dep("api", ":base")),
		javaProject(":right", dep("api", ":base")),
		javaProject(":base", DependencySnapshot{Configuration: "api", Coordinates: "com.squareup:okio:3.9.0"}),
	)
	app, _ := g.Project(NewProjectPath(":app"))
	deps, err := g.Closure(app, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{":left", ":right", ":base", "com.squareup:okio:3.9.0"}, closureKeys(deps))

	base := deps[2]
	assert.Equal(t, ":left", base.Source.Identifier(), "first discovered edge wins")
	assert.Equal(t, "implementation", base.Contributed.ConfigurationName())
}

func TestClosure_UpstreamSourceSetsAndTestFixtures(t *testing.T) {
	g := mustBuild(t,
		javaProject(":app",
			dep("implementation", ":lib"),
			DependencySnapshot{Configuration: "testImplementation", Project: ":lib", TestFixtures: true},
		),
		javaProject(":lib",
			dep("api", ":model"),
			dep("testFixturesApi", ":fakes"),
			dep("testFixturesImplementation", ":internal"),
		),
		javaProject(":model"),
		javaProject(":fakes"),
		javaProject(":internal"),
	)
	app, _ := g.Project(NewProjectPath(":app"))

	mainDeps, err := g.Closure(app, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{":lib", ":model"}, closureKeys(mainDeps))

	testDeps, err := g.Closure(app, "test")
	require.NoError(t, err)
	assert.Equal(t, []string{":lib", ":lib", ":model", ":fakes"}, closureKeys(testDeps))
	assert.True(t, testDeps[0].Contributed.IsTestFixtures())
	assert.Equal(t, "testImplementation", testDeps[3].Contributed.ConfigurationName())
}

func TestAPIClosure(t *testing.T) {
	g := mustBuild(t,
		javaProject(":a", dep("api", ":b"), dep("api", ":c")),
		javaProject(":b", dep("api", ":c")),
		javaProject(":c"),
	)
	a, _ := g.Project(NewProjectPath(":a"))
	deps := a.Dependencies()
	require.Len(t, deps, 2)

	forwarded, err := g.APIClosure(deps[0])
	require.NoError(t, err)
	assert.Equal(t, []string{":c"}, closureKeys(forwarded))

	none, err := g.APIClosure(deps[1])
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClosure_CyclicProjectsTerminate(t *testing.T) {
	g := mustBuild(t,
		javaProject(":a", dep("api", ":b")),
		javaProject(":b", dep("api", ":a")),
	)
	a, _ := g.Project(NewProjectPath(":a"))
	deps, err := g.Closure(a, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{":b", ":a"}, closureKeys(deps))
}

func TestClosure_UnknownSourceSet(t *testing.T) {
	g := mustBuild(t, javaProject(":a"))
	a, _ := g.Project(NewProjectPath(":a"))
	_, err := g.Closure(a, "release")
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))
}
