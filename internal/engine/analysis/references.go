package analysis

import (
	"modcheck/internal/engine/names"
	"modcheck/internal/engine/resolver"
)

// References is the resolution result of one source set. All and API hold
// each (name, origin) pair once; stdlib names are kept for completeness but
// never attribute usage.
type References struct {
	All        []names.ReferenceName
	API        []names.ReferenceName
	Unresolved []string
	Dropped    []string

	seen    map[refKey]bool
	seenAPI map[refKey]bool
}

type refKey struct {
	key    string
	origin names.Origin
}

func newReferences() *References {
	return &References{
		seen:    make(map[refKey]bool),
		seenAPI: make(map[refKey]bool),
	}
}

func (r *References) add(p resolver.Packet) {
	for _, n := range p.ResolvedNames() {
		k := refKey{key: n.Key(), origin: n.Origin}
		if !r.seen[k] {
			r.seen[k] = true
			r.All = append(r.All, n)
		}
	}
	for _, n := range p.APIResolvedNames() {
		k := refKey{key: n.Key(), origin: n.Origin}
		if !r.seenAPI[k] {
			r.seenAPI[k] = true
			r.API = append(r.API, n)
		}
	}
	r.Unresolved = append(r.Unresolved, p.Unresolved()...)
	r.Dropped = append(r.Dropped, p.Dropped()...)
}

// Attributable returns the references that can point into another project:
// everything except stdlib names.
func Attributable(refs []names.ReferenceName) []names.ReferenceName {
	out := make([]names.ReferenceName, 0, len(refs))
	for _, r := range refs {
		if r.Origin != names.OriginStdlib {
			out = append(out, r)
		}
	}
	return out
}
