package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	domainerrors "modcheck/internal/core/errors"
	"modcheck/internal/engine/graph"
	"modcheck/internal/engine/names"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[[projects]]
path = ":app"
  [[projects.source_sets]]
  name = "main"
  [[projects.source_sets]]
  name = "test"
  extends_from = ["main"]
  [[projects.dependencies]]
  configuration = "implementation"
  project = "projects.core"
  [[projects.dependencies]]
  configuration = "implementation"
  coordinates = "com.squareup:okio:3.9.0"

[[projects]]
path = ":core"

[[facts]]
project = "projects.app"
source_set = "main"
  [[facts.files]]
  path = "app/src/main/kotlin/com/app/Main.kt"
  package = "com.app"
  imports = ["com.core.Thing"]
  declared = ["Main", "com.app.Main.Companion"]
  references = ["Thing", "R.string.title"]
  api_references = ["Thing"]
  aliases = { Alias = "com.core.Other" }

[[resources]]
project = ":app"
source_set = "main"
package = "com.app"
declared = ["R.string.title"]
local = "R"

[[resources]]
origin = "binding"
project = ":core"
source_set = "main"
package = "com.core.databinding"
declared = ["CoreViewBinding"]
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)

	require.Len(t, s.Graph.Projects, 2)
	app := s.Graph.Projects[0]
	assert.Equal(t, ":app", app.Path)
	assert.Equal(t, []string{"main"}, app.SourceSets[1].ExtendsFrom)
	require.Len(t, app.Dependencies, 2)
	assert.Equal(t, "projects.core", app.Dependencies[0].Project)
	assert.Equal(t, "com.squareup:okio:3.9.0", app.Dependencies[1].Coordinates)

	files, err := s.Facts.SourceFacts(context.Background(), ":app", "main")
	require.NoError(t, err)
	require.Len(t, files, 1)
	f := files[0]
	assert.Equal(t, names.PackageName("com.app"), f.PackageName)
	assert.Equal(t, map[string]string{"Alias": "com.core.Other"}, f.AliasedImports)
	require.Len(t, f.DeclaredNames, 2)
	assert.Equal(t, "com.app.Main", f.DeclaredNames[0].Key())
	assert.Equal(t, "com.app.Main.Companion", f.DeclaredNames[1].Key())
	assert.Equal(t, names.PackageName("com.app"), f.DeclaredNames[1].Package())
	assert.Equal(t, names.OriginSource, f.DeclaredNames[0].Origin)

	require.Len(t, s.Resources, 2)
	assert.Equal(t, names.OriginResource, s.Resources[0].Origin())
	assert.Equal(t, names.OriginBinding, s.Resources[1].Origin())

	entries, err := s.Resources[0].All(context.Background(), ":app", "main")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "com.app.R.string.title", entries[0].Key())
	assert.Equal(t, "R.string.title", entries[0].SimpleNames())

	local, err := s.Resources[0].LocalOrNull(context.Background(), ":app", "main")
	require.NoError(t, err)
	require.NotNil(t, local)
	assert.Equal(t, "com.app.R", local.Key())

	_, err = graph.Build(s.Graph, graph.Options{})
	require.NoError(t, err)
}

func TestParse_Fingerprint(t *testing.T) {
	a, err := Parse([]byte(sample))
	require.NoError(t, err)
	b, err := Parse([]byte(sample))
	require.NoError(t, err)
	c, err := Parse([]byte(sample + "\n# changed\n"))
	require.NoError(t, err)

	assert.Len(t, a.Fingerprint, 16)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bad toml",
			content: "[[projects]\n",
			want:    "decode snapshot",
		},
		{
			name:    "facts for unknown project",
			content: "[[projects]]\npath = \":app\"\n[[facts]]\nproject = \":ghost\"\nsource_set = \"main\"\n",
			want:    `unknown project ":ghost"`,
		},
		{
			name:    "facts without source set",
			content: "[[projects]]\npath = \":app\"\n[[facts]]\nproject = \":app\"\n",
			want:    "source_set must not be empty",
		},
		{
			name:    "file without path",
			content: "[[projects]]\npath = \":app\"\n[[facts]]\nproject = \":app\"\nsource_set = \"main\"\n[[facts.files]]\npackage = \"com.app\"\n",
			want:    "invalid file facts",
		},
		{
			name:    "unknown origin",
			content: "[[projects]]\npath = \":app\"\n[[resources]]\norigin = \"asset\"\nproject = \":app\"\nsource_set = \"main\"\n",
			want:    "unknown resource origin",
		},
		{
			name:    "malformed declared name",
			content: "[[projects]]\npath = \":app\"\n[[resources]]\nproject = \":app\"\nsource_set = \"main\"\ndeclared = [\"R..x\"]\n",
			want:    "invalid declared name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError), err.Error())
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Graph.Projects, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))
}
