package graph

import (
	"fmt"
	"testing"
)

func chainSnapshot(n int) Snapshot {
	projects := make([]ProjectSnapshot, 0, n)
	for i := 0; i < n; i++ {
		var deps []DependencySnapshot
		if i+1 < n {
			deps = append(deps, dep("api", fmt.Sprintf(":p%d", i+1)))
		}
		if i+2 < n {
			deps = append(deps, dep("implementation", fmt.Sprintf(":p%d", i+2)))
		}
		projects = append(projects, javaProject(fmt.Sprintf(":p%d", i), deps...))
	}
	return Snapshot{Projects: projects}
}

func BenchmarkBuild(b *testing.B) {
	s := chainSnapshot(500)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Build(s, Options{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkClosure(b *testing.B) {
	g, err := Build(chainSnapshot(500), Options{})
	if err != nil {
		b.Fatal(err)
	}
	root, err := g.Project(NewProjectPath(":p0"))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := g.Closure(root, "test"); err != nil {
			b.Fatal(err)
		}
	}
}
