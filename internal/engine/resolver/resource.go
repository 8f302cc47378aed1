package resolver

import (
	"strings"

	"modcheck/internal/engine/names"
)

// ResourceInterceptor resolves generated symbols (resource identifiers,
// view bindings) against its own index only. A match is recorded twice:
// under the form written in source, e.g. "R.string.app_name", and under the
// fully qualified name of the declaration that satisfied it.
type ResourceInterceptor struct {
	origin    names.Origin
	index     *Index
	synthetic map[string]names.DeclaredName
	local     *names.DeclaredName
}

// NewResourceInterceptor indexes declared in order; earlier entries win when
// two declarations share a synthetic form, so callers pass the project's own
// entries first. local is the project's own generated class, such as its R
// class, and may be nil.
func NewResourceInterceptor(origin names.Origin, declared []names.DeclaredName, local *names.DeclaredName) *ResourceInterceptor {
	r := &ResourceInterceptor{
		origin:    origin,
		index:     NewIndex(declared),
		synthetic: make(map[string]names.DeclaredName, len(declared)),
		local:     local,
	}
	for _, d := range declared {
		key := d.SimpleNames()
		if _, ok := r.synthetic[key]; !ok && key != "" {
			r.synthetic[key] = d
		}
	}
	return r
}

func (r *ResourceInterceptor) Name() string { return "resource:" + r.origin.String() }

func (r *ResourceInterceptor) Origin() names.Origin { return r.origin }

// Index exposes the declarations this interceptor resolves against.
func (r *ResourceInterceptor) Index() *Index { return r.index }

func (r *ResourceInterceptor) Intercept(p Packet) Packet {
	found := make(map[string][]names.ReferenceName)
	for _, candidate := range p.unresolved {
		if refs := r.match(p, candidate); len(refs) > 0 {
			found[candidate] = refs
		}
	}
	return p.withResolved(r.Name(), found)
}

func (r *ResourceInterceptor) match(p Packet, candidate string) []names.ReferenceName {
	segs := segments(candidate)
	head, rest := segs[0], segs[1:]

	if r.local != nil && head == r.local.Trailing().String() {
		if decl, ok := r.lookupSynthetic(candidate); ok {
			return r.both(candidate, decl.Package().Append(candidate), decl)
		}
	}

	var qualified []string
	if target, ok := p.Alias(head); ok {
		qualified = append(qualified, join(target, rest))
	}
	for _, imp := range importsNamed(p.imports, head) {
		qualified = append(qualified, join(imp, rest))
	}
	qualified = append(qualified, candidate)
	if !p.pkg.IsDefault() {
		qualified = append(qualified, p.pkg.Append(candidate))
	}
	for _, w := range p.wildcards {
		qualified = append(qualified, w+"."+candidate)
	}

	for _, fqn := range qualified {
		if decl, ok := r.index.Lookup(fqn); ok {
			return r.both(candidate, fqn, decl)
		}
	}
	return nil
}

func (r *ResourceInterceptor) lookupSynthetic(candidate string) (names.DeclaredName, bool) {
	for key := candidate; key != ""; {
		if d, ok := r.synthetic[key]; ok {
			return d, true
		}
		dot := strings.LastIndexByte(key, '.')
		if dot < 0 {
			break
		}
		key = key[:dot]
	}
	return names.DeclaredName{}, false
}

// both returns the synthetic and fully qualified forms of a match, or just
// one of them when they coincide.
func (r *ResourceInterceptor) both(candidate, fqn string, decl names.DeclaredName) []names.ReferenceName {
	var out []names.ReferenceName
	if synthetic, err := names.ParseReference(candidate, r.origin); err == nil {
		out = append(out, synthetic)
	}
	if fqn == candidate {
		return out
	}
	if full, ok := referenceFor(fqn, decl, r.origin); ok {
		out = append(out, full)
	}
	return out
}
