package resolver

import (
	"log/slog"
	"strings"

	"modcheck/internal/engine/facts"
	"modcheck/internal/engine/names"
)

// Resolution records which interceptor resolved a candidate and the names
// it resolved to. Resource matches carry more than one name: the synthetic
// form as written and the fully qualified form.
type Resolution struct {
	Candidate   string
	Names       []names.ReferenceName
	Interceptor string
	API         bool
}

// Packet is the value passed down the resolution chain. It is never mutated;
// every change returns a new Packet.
type Packet struct {
	pkg       names.PackageName
	imports   []string
	wildcards []string
	aliases   map[string]string

	unresolved []string
	resolved   []Resolution
	api        map[string]bool
	dropped    []string
}

// NewPacket builds the initial packet for one file. Every reference becomes
// an unresolved candidate keyed by its raw type: type arguments, nullability
// and array markers are stripped. Candidates that cannot be parsed are
// dropped and logged.
func NewPacket(f facts.FileFacts) Packet {
	p := Packet{
		pkg:       f.PackageName,
		imports:   trimAll(f.Imports),
		wildcards: make([]string, 0, len(f.WildcardImports)),
		aliases:   make(map[string]string, len(f.AliasedImports)),
		api:       make(map[string]bool),
	}
	for _, w := range f.WildcardImports {
		if w = facts.NormalizeWildcard(w); w != "" {
			p.wildcards = append(p.wildcards, w)
		}
	}
	for alias, target := range f.AliasedImports {
		p.aliases[strings.TrimSpace(alias)] = strings.TrimSpace(target)
	}

	seen := make(map[string]bool)
	add := func(raw string, api bool) {
		parsed, err := names.ParseParameterized(raw)
		if err != nil {
			slog.Debug("dropping malformed reference", "file", f.Path, "reference", raw, "error", err)
			p.dropped = append(p.dropped, raw)
			return
		}
		key := parsed.Key()
		if api {
			p.api[key] = true
		}
		if seen[key] {
			return
		}
		seen[key] = true
		p.unresolved = append(p.unresolved, key)
	}
	for _, raw := range f.ReferenceNames {
		add(raw, false)
	}
	for _, raw := range f.APIReferenceNames {
		add(raw, true)
	}
	return p
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (p Packet) PackageName() names.PackageName { return p.pkg }

func (p Packet) Imports() []string { return append([]string(nil), p.imports...) }

func (p Packet) WildcardImports() []string { return append([]string(nil), p.wildcards...) }

// Alias returns the fully qualified target of an aliased import.
func (p Packet) Alias(name string) (string, bool) {
	target, ok := p.aliases[name]
	return target, ok
}

// Unresolved returns the remaining candidates in file order.
func (p Packet) Unresolved() []string { return append([]string(nil), p.unresolved...) }

// Resolved returns resolutions in the order they were made.
func (p Packet) Resolved() []Resolution {
	out := make([]Resolution, len(p.resolved))
	for i, r := range p.resolved {
		r.Names = append([]names.ReferenceName(nil), r.Names...)
		out[i] = r
	}
	return out
}

// Dropped returns candidates rejected as malformed.
func (p Packet) Dropped() []string { return append([]string(nil), p.dropped...) }

func (p Packet) IsAPI(candidate string) bool { return p.api[candidate] }

// ResolvedNames flattens every resolution into its names, first occurrence
// of each (key, origin) pair kept.
func (p Packet) ResolvedNames() []names.ReferenceName {
	return p.flatten(false)
}

// APIResolvedNames is ResolvedNames restricted to public signature
// references.
func (p Packet) APIResolvedNames() []names.ReferenceName {
	return p.flatten(true)
}

func (p Packet) flatten(apiOnly bool) []names.ReferenceName {
	type nameKey struct {
		key    string
		origin names.Origin
	}
	seen := make(map[nameKey]bool)
	var out []names.ReferenceName
	for _, r := range p.resolved {
		if apiOnly && !r.API {
			continue
		}
		for _, n := range r.Names {
			k := nameKey{key: n.Key(), origin: n.Origin}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, n)
		}
	}
	return out
}

// withResolved moves the candidates in found from unresolved to resolved.
// Candidates already resolved are ignored, so an earlier interceptor always
// wins.
func (p Packet) withResolved(interceptor string, found map[string][]names.ReferenceName) Packet {
	if len(found) == 0 {
		return p
	}
	next := p
	next.unresolved = make([]string, 0, len(p.unresolved))
	next.resolved = make([]Resolution, len(p.resolved), len(p.resolved)+len(found))
	copy(next.resolved, p.resolved)

	for _, candidate := range p.unresolved {
		refs, ok := found[candidate]
		if !ok || len(refs) == 0 {
			next.unresolved = append(next.unresolved, candidate)
			continue
		}
		next.resolved = append(next.resolved, Resolution{
			Candidate:   candidate,
			Names:       append([]names.ReferenceName(nil), refs...),
			Interceptor: interceptor,
			API:         p.api[candidate],
		})
	}
	return next
}

// segments splits a candidate key. Keys come from parsed names, so escaped
// dots cannot occur.
func segments(candidate string) []string {
	return strings.Split(candidate, ".")
}

// join appends the trailing segments of a candidate to a qualifier.
func join(qualifier string, rest []string) string {
	if len(rest) == 0 {
		return qualifier
	}
	if qualifier == "" {
		return strings.Join(rest, ".")
	}
	return qualifier + "." + strings.Join(rest, ".")
}
