package graph

import (
	"strings"
	"unicode"
)

// ProjectPath is a hierarchical module path. The verbose form (":core:db")
// and the type-safe accessor form ("projects.core.db") of the same path are
// equal; Key returns the normalized form used for comparisons.
type ProjectPath struct {
	raw string
	key string
}

const accessorPrefix = "projects."

func NewProjectPath(raw string) ProjectPath {
	raw = strings.TrimSpace(raw)
	return ProjectPath{raw: raw, key: normalizePath(raw)}
}

func (p ProjectPath) String() string { return p.raw }

func (p ProjectPath) Key() string { return p.key }

func (p ProjectPath) IsZero() bool { return p.key == "" }

func (p ProjectPath) Equal(other ProjectPath) bool { return p.key == other.key }

// IsAccessor reports whether the path was written in accessor form.
func (p ProjectPath) IsAccessor() bool {
	return strings.HasPrefix(p.raw, accessorPrefix)
}

func normalizePath(raw string) string {
	var segments []string
	if strings.HasPrefix(raw, accessorPrefix) {
		segments = strings.Split(strings.TrimPrefix(raw, accessorPrefix), ".")
	} else {
		segments = strings.Split(raw, ":")
	}
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, accessorSegment(s))
	}
	return strings.Join(out, ".")
}

// accessorSegment converts a kebab or snake case segment into the lower camel
// case segment Gradle generates for project accessors.
func accessorSegment(s string) string {
	var b strings.Builder
	upperNext := false
	first := true
	for _, r := range s {
		if r == '-' || r == '_' || r == '.' {
			upperNext = true
			continue
		}
		switch {
		case first:
			b.WriteRune(unicode.ToLower(r))
		case upperNext:
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteRune(r)
		}
		first = false
		upperNext = false
	}
	return b.String()
}
