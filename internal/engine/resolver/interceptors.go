package resolver

import (
	"log/slog"
	"strings"

	"modcheck/internal/engine/names"
)

const (
	importName   = "import"
	packageName  = "package"
	wildcardName = "wildcard"
	stdlibName   = "stdlib"
	terminalName = "terminal"
)

func lookup(idx DeclarationIndex, fqn string) (names.DeclaredName, bool) {
	if idx == nil {
		return names.DeclaredName{}, false
	}
	return idx.Lookup(fqn)
}

// resolveAgainst returns the reference for fqn when idx declares it.
func resolveAgainst(idx DeclarationIndex, fqn string) (names.ReferenceName, bool) {
	decl, ok := lookup(idx, fqn)
	if !ok {
		return names.ReferenceName{}, false
	}
	return referenceFor(fqn, decl, decl.Origin)
}

func lastSegment(fqn string) string {
	if i := strings.LastIndexByte(fqn, '.'); i >= 0 {
		return fqn[i+1:]
	}
	return fqn
}

// ImportInterceptor matches the leading segment of a candidate against
// aliased and explicit imports. A single matching import wins without
// consulting the index. Several same-named imports are tried in import order
// and the first one the index declares wins.
type ImportInterceptor struct {
	Index DeclarationIndex
}

func (ImportInterceptor) Name() string { return importName }

func (i ImportInterceptor) Intercept(p Packet) Packet {
	found := make(map[string][]names.ReferenceName)
	for _, candidate := range p.unresolved {
		segs := segments(candidate)
		head, rest := segs[0], segs[1:]

		if target, ok := p.Alias(head); ok {
			if ref, ok := i.outright(join(target, rest)); ok {
				found[candidate] = []names.ReferenceName{ref}
			}
			continue
		}

		matches := importsNamed(p.imports, head)
		switch len(matches) {
		case 0:
		case 1:
			if ref, ok := i.outright(join(matches[0], rest)); ok {
				found[candidate] = []names.ReferenceName{ref}
			}
		default:
			for _, imp := range matches {
				if ref, ok := resolveAgainst(i.Index, join(imp, rest)); ok {
					found[candidate] = []names.ReferenceName{ref}
					break
				}
			}
		}
	}
	return p.withResolved(importName, found)
}

// outright resolves an unambiguous import. The index only decides how the
// name is split into package and simple names.
func (i ImportInterceptor) outright(fqn string) (names.ReferenceName, bool) {
	if ref, ok := resolveAgainst(i.Index, fqn); ok {
		return ref, true
	}
	ref, err := names.ParseReference(fqn, names.OriginSource)
	if err != nil {
		slog.Debug("dropping malformed import target", "name", fqn, "error", err)
		return names.ReferenceName{}, false
	}
	return ref, true
}

// importsNamed returns distinct imports whose trailing segment is name, in
// import order.
func importsNamed(imports []string, name string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, imp := range imports {
		if lastSegment(imp) != name || seen[imp] {
			continue
		}
		seen[imp] = true
		out = append(out, imp)
	}
	return out
}

// PackageInterceptor accepts candidates that are already fully qualified,
// then candidates declared in the file's own package.
type PackageInterceptor struct {
	Index DeclarationIndex
}

func (PackageInterceptor) Name() string { return packageName }

func (i PackageInterceptor) Intercept(p Packet) Packet {
	found := make(map[string][]names.ReferenceName)
	for _, candidate := range p.unresolved {
		if ref, ok := resolveAgainst(i.Index, candidate); ok {
			found[candidate] = []names.ReferenceName{ref}
			continue
		}
		if p.pkg.IsDefault() {
			continue
		}
		if ref, ok := resolveAgainst(i.Index, p.pkg.Append(candidate)); ok {
			found[candidate] = []names.ReferenceName{ref}
		}
	}
	return p.withResolved(packageName, found)
}

// WildcardInterceptor tries every wildcard import as a qualifier, in import
// order.
type WildcardInterceptor struct {
	Index DeclarationIndex
}

func (WildcardInterceptor) Name() string { return wildcardName }

func (i WildcardInterceptor) Intercept(p Packet) Packet {
	found := make(map[string][]names.ReferenceName)
	for _, candidate := range p.unresolved {
		for _, w := range p.wildcards {
			if ref, ok := resolveAgainst(i.Index, w+"."+candidate); ok {
				found[candidate] = []names.ReferenceName{ref}
				break
			}
		}
	}
	return p.withResolved(wildcardName, found)
}

// TerminalInterceptor ends the chain. Whatever is still unresolved stays
// that way and is treated as external by the findings.
type TerminalInterceptor struct {
	LogUnresolved bool
}

func (TerminalInterceptor) Name() string { return terminalName }

func (t TerminalInterceptor) Intercept(p Packet) Packet {
	if t.LogUnresolved {
		for _, candidate := range p.unresolved {
			slog.Debug("unresolved reference", "package", p.pkg.String(), "reference", candidate)
		}
	}
	return p
}
