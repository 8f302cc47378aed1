package resolver

import (
	"sort"
	"strings"

	"modcheck/internal/engine/names"
)

// DeclarationIndex answers whether a fully qualified name is declared
// somewhere. Lookups are prefix-aware: a member reference such as
// "a.b.C.member" is satisfied by a declared "a.b.C".
type DeclarationIndex interface {
	Lookup(fqn string) (names.DeclaredName, bool)
}

// Index is a map-backed DeclarationIndex. It is built once and read
// concurrently afterwards.
type Index struct {
	byKey map[string]names.DeclaredName
}

func NewIndex(declared ...[]names.DeclaredName) *Index {
	idx := &Index{byKey: make(map[string]names.DeclaredName)}
	for _, batch := range declared {
		idx.add(batch)
	}
	return idx
}

// add keeps the first declaration of a key. Callers add source declarations
// before generated ones.
func (i *Index) add(declared []names.DeclaredName) {
	for _, d := range declared {
		if d.IsZero() {
			continue
		}
		if _, ok := i.byKey[d.Key()]; !ok {
			i.byKey[d.Key()] = d
		}
	}
}

func (i *Index) Lookup(fqn string) (names.DeclaredName, bool) {
	if i == nil {
		return names.DeclaredName{}, false
	}
	fqn = strings.TrimSpace(fqn)
	for fqn != "" {
		if d, ok := i.byKey[fqn]; ok {
			return d, true
		}
		dot := strings.LastIndexByte(fqn, '.')
		if dot < 0 {
			break
		}
		fqn = fqn[:dot]
	}
	return names.DeclaredName{}, false
}

// Contains reports an exact match, without the prefix walk.
func (i *Index) Contains(fqn string) bool {
	if i == nil {
		return false
	}
	_, ok := i.byKey[fqn]
	return ok
}

func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byKey)
}

// All returns every declaration ordered by key.
func (i *Index) All() []names.DeclaredName {
	if i == nil {
		return nil
	}
	out := make([]names.DeclaredName, 0, len(i.byKey))
	for _, d := range i.byKey {
		out = append(out, d)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Key() < out[b].Key() })
	return out
}
