package names

import (
	"fmt"
	"strings"
)

// SplitSegments splits a dotted name, leaving dots inside backticks alone.
func SplitSegments(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty name")
	}
	var (
		parts   []string
		current strings.Builder
		escaped bool
	)
	for _, r := range raw {
		switch {
		case r == '`':
			escaped = !escaped
			current.WriteRune(r)
		case r == '.' && !escaped:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if escaped {
		return nil, fmt.Errorf("unterminated backtick in %q", raw)
	}
	parts = append(parts, current.String())
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("empty segment in %q", raw)
		}
	}
	return parts, nil
}

func toSimpleNames(parts []string) ([]SimpleName, error) {
	out := make([]SimpleName, 0, len(parts))
	for _, p := range parts {
		s, err := NewSimpleName(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ParseQualified splits raw into package and simple names. Without outside
// knowledge the package is the run of leading lower-case segments, and the
// final segment always belongs to the simple names.
func ParseQualified(raw string) (QualifiedName, error) {
	parts, err := SplitSegments(raw)
	if err != nil {
		return QualifiedName{}, err
	}
	segments, err := toSimpleNames(parts)
	if err != nil {
		return QualifiedName{}, err
	}
	split := 0
	for split < len(segments)-1 && !segments[split].IsTypeLike() {
		split++
	}
	pkgParts := make([]string, split)
	for i := 0; i < split; i++ {
		pkgParts[i] = string(segments[i])
	}
	return NewQualifiedName(PackageName(strings.Join(pkgParts, ".")), segments[split:]...)
}

// ParseInPackage parses raw when the owning package is known. Names that do
// not start with the package fall back to ParseQualified.
func ParseInPackage(pkg PackageName, raw string) (QualifiedName, error) {
	raw = strings.TrimSpace(raw)
	if !pkg.IsDefault() && strings.HasPrefix(raw, string(pkg)+".") {
		parts, err := SplitSegments(strings.TrimPrefix(raw, string(pkg)+"."))
		if err != nil {
			return QualifiedName{}, err
		}
		segments, err := toSimpleNames(parts)
		if err != nil {
			return QualifiedName{}, err
		}
		return NewQualifiedName(pkg, segments...)
	}
	return ParseQualified(raw)
}

func ParseDeclared(pkg PackageName, raw string, origin Origin) (DeclaredName, error) {
	q, err := ParseInPackage(pkg, raw)
	if err != nil {
		return DeclaredName{}, err
	}
	return DeclaredName{QualifiedName: q, Origin: origin}, nil
}

func ParseReference(raw string, origin Origin) (ReferenceName, error) {
	q, err := ParseQualified(raw)
	if err != nil {
		return ReferenceName{}, err
	}
	return ReferenceName{QualifiedName: q, Origin: origin}, nil
}

// ParseParameterized parses references such as `Map<String, com.a.B>?`.
// Nullability markers and array brackets are ignored.
func ParseParameterized(raw string) (ParameterizedReferenceName, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, "?")
	raw = strings.TrimSuffix(raw, "[]")

	open := strings.IndexByte(raw, '<')
	if open < 0 {
		ref, err := ParseReference(raw, OriginSource)
		if err != nil {
			return ParameterizedReferenceName{}, err
		}
		return ParameterizedReferenceName{Raw: ref}, nil
	}
	if !strings.HasSuffix(raw, ">") {
		return ParameterizedReferenceName{}, fmt.Errorf("unbalanced type arguments in %q", raw)
	}

	ref, err := ParseReference(raw[:open], OriginSource)
	if err != nil {
		return ParameterizedReferenceName{}, err
	}
	args, err := splitTypeArguments(raw[open+1 : len(raw)-1])
	if err != nil {
		return ParameterizedReferenceName{}, fmt.Errorf("%q: %w", raw, err)
	}
	out := ParameterizedReferenceName{Raw: ref}
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		arg = strings.TrimPrefix(arg, "out ")
		arg = strings.TrimPrefix(arg, "in ")
		if arg == "*" || arg == "?" {
			continue
		}
		parsed, err := ParseParameterized(arg)
		if err != nil {
			return ParameterizedReferenceName{}, err
		}
		out.TypeArguments = append(out.TypeArguments, parsed.Raw)
	}
	return out, nil
}

func splitTypeArguments(s string) ([]string, error) {
	var (
		out   []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced type arguments")
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced type arguments")
	}
	out = append(out, s[start:])
	return out, nil
}
