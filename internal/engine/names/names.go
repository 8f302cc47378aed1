package names

import (
	"fmt"
	"strings"
	"unicode"
)

// PackageName is a dot-delimited namespace. The zero value is the default
// (namespace-less) package.
type PackageName string

const DefaultPackage PackageName = ""

func (p PackageName) IsDefault() bool {
	return strings.TrimSpace(string(p)) == ""
}

// Append joins the package with the given dotted suffix.
func (p PackageName) Append(suffix string) string {
	suffix = strings.Trim(suffix, ".")
	if p.IsDefault() {
		return suffix
	}
	if suffix == "" {
		return string(p)
	}
	return string(p) + "." + suffix
}

func (p PackageName) String() string { return string(p) }

// SimpleName is a single identifier segment. Backtick-escaped identifiers are
// stored without their backticks.
type SimpleName string

func NewSimpleName(raw string) (SimpleName, error) {
	if len(raw) >= 2 && strings.HasPrefix(raw, "`") && strings.HasSuffix(raw, "`") {
		inner := raw[1 : len(raw)-1]
		if inner == "" || strings.ContainsAny(inner, "`.\n") {
			return "", fmt.Errorf("invalid escaped identifier %q", raw)
		}
		return SimpleName(inner), nil
	}
	if !isIdentifier(raw) {
		return "", fmt.Errorf("invalid identifier %q", raw)
	}
	return SimpleName(raw), nil
}

func (s SimpleName) String() string { return string(s) }

// IsTypeLike reports whether the segment looks like a type name rather than a
// package segment.
func (s SimpleName) IsTypeLike() bool {
	for _, r := range string(s) {
		return unicode.IsUpper(r)
	}
	return false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// Origin records where a declared or resolved name comes from.
type Origin uint8

const (
	OriginSource Origin = iota
	OriginResource
	OriginBinding
	OriginStdlib
)

func (o Origin) String() string {
	switch o {
	case OriginSource:
		return "source"
	case OriginResource:
		return "resource"
	case OriginBinding:
		return "binding"
	case OriginStdlib:
		return "stdlib"
	default:
		return fmt.Sprintf("origin(%d)", uint8(o))
	}
}

// IsSynthetic reports whether names with this origin are generated rather
// than written in source.
func (o Origin) IsSynthetic() bool {
	return o == OriginResource || o == OriginBinding
}

// Name is implemented by DeclaredName and ReferenceName.
type Name interface {
	Package() PackageName
	Segments() []SimpleName
	Key() string
}

// QualifiedName is a package plus an ordered list of simple names. Two
// qualified names are equal when their dotted form is equal, regardless of
// which variant carries them.
type QualifiedName struct {
	pkg      PackageName
	segments []SimpleName
	key      string
}

func NewQualifiedName(pkg PackageName, segments ...SimpleName) (QualifiedName, error) {
	if len(segments) == 0 {
		return QualifiedName{}, fmt.Errorf("qualified name in package %q has no segments", pkg)
	}
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s == "" {
			return QualifiedName{}, fmt.Errorf("qualified name in package %q has an empty segment", pkg)
		}
		parts = append(parts, string(s))
	}
	return QualifiedName{
		pkg:      pkg,
		segments: append([]SimpleName(nil), segments...),
		key:      pkg.Append(strings.Join(parts, ".")),
	}, nil
}

func (q QualifiedName) Package() PackageName { return q.pkg }

func (q QualifiedName) Segments() []SimpleName {
	return append([]SimpleName(nil), q.segments...)
}

func (q QualifiedName) Key() string { return q.key }

func (q QualifiedName) String() string { return q.key }

func (q QualifiedName) IsZero() bool { return q.key == "" }

// SimpleNames is the segments joined with dots, without the package.
func (q QualifiedName) SimpleNames() string {
	parts := make([]string, len(q.segments))
	for i, s := range q.segments {
		parts[i] = string(s)
	}
	return strings.Join(parts, ".")
}

// Leading returns the first simple-name segment.
func (q QualifiedName) Leading() SimpleName {
	if len(q.segments) == 0 {
		return ""
	}
	return q.segments[0]
}

// Trailing returns the last simple-name segment.
func (q QualifiedName) Trailing() SimpleName {
	if len(q.segments) == 0 {
		return ""
	}
	return q.segments[len(q.segments)-1]
}

func (q QualifiedName) Equal(other Name) bool {
	return other != nil && q.key == other.Key()
}

// DeclaredName is a symbol known to exist in some project's sources or in a
// generated resource index.
type DeclaredName struct {
	QualifiedName
	Origin Origin
}

func NewDeclaredName(pkg PackageName, origin Origin, segments ...SimpleName) (DeclaredName, error) {
	q, err := NewQualifiedName(pkg, segments...)
	if err != nil {
		return DeclaredName{}, err
	}
	return DeclaredName{QualifiedName: q, Origin: origin}, nil
}

// ReferenceName is a symbol mentioned at a use site.
type ReferenceName struct {
	QualifiedName
	Origin Origin
}

// AsReference converts a declared name into the reference that matched it.
func (d DeclaredName) AsReference() ReferenceName {
	return ReferenceName{QualifiedName: d.QualifiedName, Origin: d.Origin}
}

// ParameterizedReferenceName is a reference with type arguments. Only the raw
// type takes part in equality and resolution.
type ParameterizedReferenceName struct {
	Raw           ReferenceName
	TypeArguments []ReferenceName
}

func (p ParameterizedReferenceName) Key() string { return p.Raw.Key() }

func (p ParameterizedReferenceName) String() string {
	if len(p.TypeArguments) == 0 {
		return p.Raw.Key()
	}
	args := make([]string, len(p.TypeArguments))
	for i, a := range p.TypeArguments {
		args[i] = a.Key()
	}
	return p.Raw.Key() + "<" + strings.Join(args, ", ") + ">"
}
