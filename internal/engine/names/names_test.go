package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSimpleName(t *testing.T) {
	tests := []struct {
		raw     string
		want    SimpleName
		wantErr bool
	}{
		{raw: "Foo", want: "Foo"},
		{raw: "_bar$1", want: "_bar$1"},
		{raw: "`when`", want: "when"},
		{raw: "`a test name`", want: "a test name"},
		{raw: "a.b", wantErr: true},
		{raw: "1abc", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "``", wantErr: true},
	}

	for _, tt := range tests {
		got, err := NewSimpleName(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseQualified(t *testing.T) {
	tests := []struct {
		raw      string
		pkg      PackageName
		segments []SimpleName
	}{
		{raw: "com.example.Foo", pkg: "com.example", segments: []SimpleName{"Foo"}},
		{raw: "com.example.Foo.Bar.baz", pkg: "com.example", segments: []SimpleName{"Foo", "Bar", "baz"}},
		{raw: "kotlin.io.println", pkg: "kotlin.io", segments: []SimpleName{"println"}},
		{raw: "R.string.app_name", pkg: DefaultPackage, segments: []SimpleName{"R", "string", "app_name"}},
		{raw: "println", pkg: DefaultPackage, segments: []SimpleName{"println"}},
		{raw: "com.example.`fun name`", pkg: "com.example", segments: []SimpleName{"fun name"}},
	}

	for _, tt := range tests {
		q, err := ParseQualified(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.pkg, q.Package(), tt.raw)
		assert.Equal(t, tt.segments, q.Segments(), tt.raw)
	}
}

func TestParseQualified_Malformed(t *testing.T) {
	for _, raw := range []string{"", "  ", "com..Foo", ".Foo", "Foo.", "com.`open", "com.foo-bar.Baz", "a b"} {
		_, err := ParseQualified(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseInPackage(t *testing.T) {
	q, err := ParseInPackage("com.example.lower", "com.example.lower.helper")
	require.NoError(t, err)
	assert.Equal(t, PackageName("com.example.lower"), q.Package())
	assert.Equal(t, []SimpleName{"helper"}, q.Segments())
	assert.Equal(t, "com.example.lower.helper", q.Key())

	q, err = ParseInPackage("com.example", "org.other.Thing")
	require.NoError(t, err)
	assert.Equal(t, PackageName("org.other"), q.Package())
}

func TestEquality_IndependentOfVariant(t *testing.T) {
	declared, err := ParseDeclared("com.lib", "com.lib.Foo", OriginSource)
	require.NoError(t, err)
	ref, err := ParseReference("com.lib.Foo", OriginSource)
	require.NoError(t, err)

	assert.True(t, declared.Equal(ref))
	assert.True(t, ref.Equal(declared))
	assert.Equal(t, declared.Key(), declared.AsReference().Key())

	other, err := ParseReference("com.lib.Bar", OriginSource)
	require.NoError(t, err)
	assert.False(t, declared.Equal(other))
}

func TestParseParameterized(t *testing.T) {
	p, err := ParseParameterized("Map<String, List<com.lib.Item>>?")
	require.NoError(t, err)
	assert.Equal(t, "Map", p.Raw.Key())
	require.Len(t, p.TypeArguments, 2)
	assert.Equal(t, "String", p.TypeArguments[0].Key())
	assert.Equal(t, "List", p.TypeArguments[1].Key())
	assert.Equal(t, "Map", p.Key())
	assert.Equal(t, "Map<String, List>", p.String())

	p, err = ParseParameterized("Box<out Foo, *>")
	require.NoError(t, err)
	require.Len(t, p.TypeArguments, 1)
	assert.Equal(t, "Foo", p.TypeArguments[0].Key())

	_, err = ParseParameterized("Map<String")
	assert.Error(t, err)
	_, err = ParseParameterized("Map<String>>")
	assert.Error(t, err)
}

func TestPackageName_Append(t *testing.T) {
	assert.Equal(t, "Foo", DefaultPackage.Append("Foo"))
	assert.Equal(t, "com.a.Foo", PackageName("com.a").Append("Foo"))
	assert.Equal(t, "com.a", PackageName("com.a").Append(""))
}

func TestOrigin(t *testing.T) {
	assert.True(t, OriginResource.IsSynthetic())
	assert.True(t, OriginBinding.IsSynthetic())
	assert.False(t, OriginSource.IsSynthetic())
	assert.Equal(t, "stdlib", OriginStdlib.String())
}
