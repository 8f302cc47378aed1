package resolver

import (
	"context"
	"testing"

	"modcheck/internal/engine/facts"
	"modcheck/internal/engine/names"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func declared(t *testing.T, origin names.Origin, fqns ...string) []names.DeclaredName {
	t.Helper()
	out := make([]names.DeclaredName, 0, len(fqns))
	for _, fqn := range fqns {
		d, err := names.ParseDeclared(names.DefaultPackage, fqn, origin)
		require.NoError(t, err)
		out = append(out, d)
	}
	return out
}

func keys(refs []names.ReferenceName) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Key()
	}
	return out
}

// resolvedBy maps each resolved candidate to the interceptor that took it.
func resolvedBy(p Packet) map[string]string {
	out := make(map[string]string)
	for _, r := range p.Resolved() {
		out[r.Candidate] = r.Interceptor
	}
	return out
}

func namesOf(p Packet, candidate string) []string {
	for _, r := range p.Resolved() {
		if r.Candidate == candidate {
			return keys(r.Names)
		}
	}
	return nil
}

func TestChain_CanonicalOrder(t *testing.T) {
	res := NewResourceInterceptor(names.OriginResource, nil, nil)
	chain := NewDefaultChain(Options{Resources: []*ResourceInterceptor{res}})
	assert.Equal(t, []string{"import", "package", "wildcard", "resource:resource", "stdlib", "terminal"}, chain.Names())
}

func TestChain_Strategies(t *testing.T) {
	index := NewIndex(declared(t, names.OriginSource,
		"com.app.Helper",
		"com.other.Util",
		"com.lib.Thing",
		"com.a.Widget",
		"com.b.Widget",
		"com.b.Gadget",
		"com.app.Foo",
	))
	chain := NewDefaultChain(Options{Declarations: index})

	tests := []struct {
		name        string
		file        facts.FileFacts
		candidate   string
		interceptor string
		want        []string
	}{
		{
			name:        "unambiguous import wins without index hit",
			file:        facts.FileFacts{Path: "A.kt", Imports: []string{"com.external.Client"}, ReferenceNames: []string{"Client.connect"}},
			candidate:   "Client.connect",
			interceptor: "import",
			want:        []string{"com.external.Client.connect"},
		},
		{
			name:        "alias import",
			file:        facts.FileFacts{Path: "A.kt", AliasedImports: map[string]string{"OtherUtil": "com.other.Util"}, ReferenceNames: []string{"OtherUtil"}},
			candidate:   "OtherUtil",
			interceptor: "import",
			want:        []string{"com.other.Util"},
		},
		{
			name: "ambiguous imports keep first declared",
			file: facts.FileFacts{
				Path:           "A.kt",
				Imports:        []string{"com.x.Gadget", "com.b.Gadget"},
				ReferenceNames: []string{"Gadget"},
			},
			candidate:   "Gadget",
			interceptor: "import",
			want:        []string{"com.b.Gadget"},
		},
		{
			name: "ambiguous imports both declared follow import order",
			file: facts.FileFacts{
				Path:           "A.kt",
				Imports:        []string{"com.a.Widget", "com.b.Widget"},
				ReferenceNames: []string{"Widget"},
			},
			candidate:   "Widget",
			interceptor: "import",
			want:        []string{"com.a.Widget"},
		},
		{
			name:        "same package",
			file:        facts.FileFacts{Path: "A.kt", PackageName: "com.app", ReferenceNames: []string{"Helper"}},
			candidate:   "Helper",
			interceptor: "package",
			want:        []string{"com.app.Helper"},
		},
		{
			name:        "fully qualified member",
			file:        facts.FileFacts{Path: "A.kt", PackageName: "com.app", ReferenceNames: []string{"com.other.Util.run"}},
			candidate:   "com.other.Util.run",
			interceptor: "package",
			want:        []string{"com.other.Util.run"},
		},
		{
			name:        "wildcard import",
			file:        facts.FileFacts{Path: "A.kt", WildcardImports: []string{"com.missing.*", "com.lib.*"}, ReferenceNames: []string{"Thing"}},
			candidate:   "Thing",
			interceptor: "wildcard",
			want:        []string{"com.lib.Thing"},
		},
		{
			name: "import beats same package",
			file: facts.FileFacts{
				Path:           "A.kt",
				PackageName:    "com.app",
				Imports:        []string{"com.lib.Foo"},
				ReferenceNames: []string{"Foo"},
			},
			candidate:   "Foo",
			interceptor: "import",
			want:        []string{"com.lib.Foo"},
		},
		{
			name:        "stdlib simple name",
			file:        facts.FileFacts{Path: "A.kt", ReferenceNames: []string{"listOf"}},
			candidate:   "listOf",
			interceptor: "stdlib",
			want:        []string{"kotlin.collections.listOf"},
		},
		{
			name:        "stdlib qualified",
			file:        facts.FileFacts{Path: "A.kt", ReferenceNames: []string{"java.util.UUID"}},
			candidate:   "java.util.UUID",
			interceptor: "stdlib",
			want:        []string{"java.util.UUID"},
		},
		{
			name:        "type arguments are stripped",
			file:        facts.FileFacts{Path: "A.kt", ReferenceNames: []string{"Map<String, com.lib.Thing>?"}},
			candidate:   "Map",
			interceptor: "stdlib",
			want:        []string{"kotlin.collections.Map"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := chain.Resolve(NewPacket(tt.file))
			assert.Equal(t, tt.interceptor, resolvedBy(p)[tt.candidate])
			assert.Equal(t, tt.want, namesOf(p, tt.candidate))
		})
	}
}

func TestChain_AmbiguousImportsWithoutDeclarationStayUnresolved(t *testing.T) {
	chain := NewDefaultChain(Options{Declarations: NewIndex()})
	p := chain.Resolve(NewPacket(facts.FileFacts{
		Path:           "A.kt",
		Imports:        []string{"com.a.Widget", "com.b.Widget"},
		ReferenceNames: []string{"Widget"},
	}))
	assert.Empty(t, p.Resolved())
	assert.Equal(t, []string{"Widget"}, p.Unresolved())
}

func TestChain_StdlibOriginIsTagged(t *testing.T) {
	chain := NewDefaultChain(Options{})
	p := chain.Resolve(NewPacket(facts.FileFacts{Path: "A.kt", ReferenceNames: []string{"String", "println"}}))
	refs := p.ResolvedNames()
	require.Len(t, refs, 2)
	for _, r := range refs {
		assert.Equal(t, names.OriginStdlib, r.Origin)
	}
	assert.Equal(t, []string{"kotlin.String", "kotlin.io.println"}, keys(refs))
}

func TestResourceInterceptor_DualForms(t *testing.T) {
	local, err := names.ParseDeclared("com.app", "com.app.R", names.OriginResource)
	require.NoError(t, err)
	resources := NewResourceInterceptor(names.OriginResource, declared(t, names.OriginResource,
		"com.app.R.string.app_name",
		"com.lib.R.string.lib_name",
		"com.lib.R.string.app_name",
	), &local)
	bindings := NewResourceInterceptor(names.OriginBinding, declared(t, names.OriginBinding,
		"com.lib.databinding.RowBinding",
	), nil)
	chain := NewDefaultChain(Options{Resources: []*ResourceInterceptor{resources, bindings}})

	p := chain.Resolve(NewPacket(facts.FileFacts{
		Path:            "MainActivity.kt",
		PackageName:     "com.app",
		WildcardImports: []string{"com.lib.databinding.*"},
		ReferenceNames:  []string{"R.string.lib_name", "R.string.app_name", "RowBinding.inflate", "R.string.missing"},
	}))

	by := resolvedBy(p)
	assert.Equal(t, "resource:resource", by["R.string.lib_name"])
	assert.Equal(t, []string{"R.string.lib_name", "com.lib.R.string.lib_name"}, namesOf(p, "R.string.lib_name"))
	assert.Equal(t, []string{"R.string.app_name", "com.app.R.string.app_name"}, namesOf(p, "R.string.app_name"),
		"the project's own entry is registered first")

	assert.Equal(t, "resource:binding", by["RowBinding.inflate"])
	assert.Equal(t, []string{"RowBinding.inflate", "com.lib.databinding.RowBinding.inflate"}, namesOf(p, "RowBinding.inflate"))

	assert.Equal(t, []string{"R.string.missing"}, p.Unresolved())

	for _, r := range p.ResolvedNames() {
		assert.True(t, r.Origin.IsSynthetic())
	}
}

func TestPacket_MalformedCandidatesAreDropped(t *testing.T) {
	p := NewPacket(facts.FileFacts{
		Path:           "A.kt",
		ReferenceNames: []string{"foo..bar", "List<Foo", "Good", "Good", "1abc"},
	})
	assert.Equal(t, []string{"Good"}, p.Unresolved())
	assert.Equal(t, []string{"foo..bar", "List<Foo", "1abc"}, p.Dropped())
}

func TestPacket_APIReferences(t *testing.T) {
	index := NewIndex(declared(t, names.OriginSource, "com.lib.Foo", "com.lib.Bar"))
	chain := NewDefaultChain(Options{Declarations: index})

	p := chain.Resolve(NewPacket(facts.FileFacts{
		Path:              "Api.kt",
		Imports:           []string{"com.lib.Foo", "com.lib.Bar"},
		ReferenceNames:    []string{"Foo", "Bar"},
		APIReferenceNames: []string{"Foo", "List<Foo>"},
	}))

	assert.True(t, p.IsAPI("Foo"))
	assert.False(t, p.IsAPI("Bar"))
	assert.Equal(t, []string{"com.lib.Foo", "kotlin.collections.List"}, keys(p.APIResolvedNames()))
	assert.Equal(t, []string{"com.lib.Foo", "com.lib.Bar", "kotlin.collections.List"}, keys(p.ResolvedNames()))
}

func TestChain_DeterministicAndMonotonic(t *testing.T) {
	index := NewIndex(declared(t, names.OriginSource, "com.app.Helper", "com.lib.Thing", "com.lib.Foo"))
	local, _ := names.ParseDeclared("com.app", "com.app.R", names.OriginResource)
	resources := NewResourceInterceptor(names.OriginResource, declared(t, names.OriginResource, "com.app.R.id.title"), &local)
	chain := NewDefaultChain(Options{Declarations: index, Resources: []*ResourceInterceptor{resources}})

	file := facts.FileFacts{
		Path:            "A.kt",
		PackageName:     "com.app",
		Imports:         []string{"com.lib.Foo"},
		WildcardImports: []string{"com.lib.*"},
		ReferenceNames:  []string{"Foo", "Helper", "Thing", "R.id.title", "String", "unknownCall"},
	}

	first := chain.Resolve(NewPacket(file))
	second := chain.Resolve(NewPacket(file))
	assert.Equal(t, first.Resolved(), second.Resolved())
	assert.Equal(t, first.Unresolved(), second.Unresolved())
	assert.Equal(t, []string{"unknownCall"}, first.Unresolved())

	p := NewPacket(file)
	for _, in := range chain.interceptors {
		next := in.Intercept(p)
		assert.LessOrEqual(t, len(next.Unresolved()), len(p.Unresolved()), in.Name())
		assert.Equal(t, p.Resolved(), next.Resolved()[:len(p.Resolved())], in.Name())
		assert.Equal(t, len(NewPacket(file).Unresolved()), len(next.Unresolved())+len(next.Resolved()), in.Name())
		p = next
	}
}

func TestChain_ResolveFileHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDefaultChain(Options{}).ResolveFile(ctx, facts.FileFacts{Path: "A.kt"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndex_PrefixLookup(t *testing.T) {
	index := NewIndex(declared(t, names.OriginSource, "com.lib.Outer", "com.lib.Outer.Inner"))

	tests := []struct {
		fqn  string
		want string
		ok   bool
	}{
		{fqn: "com.lib.Outer", want: "com.lib.Outer", ok: true},
		{fqn: "com.lib.Outer.Inner.method", want: "com.lib.Outer.Inner", ok: true},
		{fqn: "com.lib.Outer.CONSTANT", want: "com.lib.Outer", ok: true},
		{fqn: "com.lib", ok: false},
		{fqn: "com.other.Outer", ok: false},
	}
	for _, tt := range tests {
		d, ok := index.Lookup(tt.fqn)
		assert.Equal(t, tt.ok, ok, tt.fqn)
		if tt.ok {
			assert.Equal(t, tt.want, d.Key(), tt.fqn)
		}
	}

	assert.True(t, index.Contains("com.lib.Outer"))
	assert.False(t, index.Contains("com.lib.Outer.CONSTANT"))
	assert.Equal(t, 2, index.Len())
	assert.Len(t, index.All(), 2)

	var nilIndex *Index
	_, ok := nilIndex.Lookup("com.lib.Outer")
	assert.False(t, ok)
}

func TestStdlib_Extras(t *testing.T) {
	s := NewStdlib("androidx.annotation.NonNull")
	fqn, ok := s.Lookup("NonNull")
	require.True(t, ok)
	assert.Equal(t, "androidx.annotation.NonNull", fqn)

	_, ok = DefaultStdlib().Lookup("NonNull")
	assert.False(t, ok)

	fqn, ok = s.Lookup("String.format")
	require.True(t, ok)
	assert.Equal(t, "kotlin.String.format", fqn)
	assert.Greater(t, s.Len(), 100)
}
