package resolver

import (
	_ "embed"
	"strings"

	"modcheck/internal/engine/names"
)

//go:embed stdlib/kotlin.txt
var kotlinStdlibData string

//go:embed stdlib/java.txt
var javaStdlibData string

// stdlibPackages are namespaces never provided by a project of the build.
var stdlibPackages = []string{"kotlin", "kotlinx", "java", "javax", "jdk"}

// Stdlib maps simple names usable without an import to their fully
// qualified names.
type Stdlib struct {
	bySimple map[string]string
	packages []string
}

// NewStdlib builds a table from the embedded Kotlin and Java lists plus
// extra fully qualified names. The first registration of a simple name wins.
func NewStdlib(extra ...string) *Stdlib {
	s := &Stdlib{
		bySimple: make(map[string]string),
		packages: append([]string(nil), stdlibPackages...),
	}
	for _, data := range []string{kotlinStdlibData, javaStdlibData} {
		for _, line := range strings.Split(data, "\n") {
			s.register(line)
		}
	}
	for _, fqn := range extra {
		s.register(fqn)
	}
	return s
}

var defaultStdlib = NewStdlib()

// DefaultStdlib returns the shared table without extras.
func DefaultStdlib() *Stdlib { return defaultStdlib }

func (s *Stdlib) register(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	simple := lastSegment(line)
	if _, ok := s.bySimple[simple]; !ok {
		s.bySimple[simple] = line
	}
}

func (s *Stdlib) Len() int { return len(s.bySimple) }

// Lookup returns the fully qualified name of candidate when it is a well
// known library symbol, or already qualified with a library namespace.
func (s *Stdlib) Lookup(candidate string) (string, bool) {
	segs := segments(candidate)
	if fqn, ok := s.bySimple[segs[0]]; ok {
		return join(fqn, segs[1:]), true
	}
	if len(segs) > 1 {
		for _, pkg := range s.packages {
			if segs[0] == pkg {
				return candidate, true
			}
		}
	}
	return "", false
}

// StdlibInterceptor resolves the leftovers that belong to the language
// runtime. Such names never attribute usage to a dependency.
type StdlibInterceptor struct {
	Stdlib *Stdlib
}

func (StdlibInterceptor) Name() string { return stdlibName }

func (i StdlibInterceptor) Intercept(p Packet) Packet {
	if i.Stdlib == nil {
		return p
	}
	found := make(map[string][]names.ReferenceName)
	for _, candidate := range p.unresolved {
		fqn, ok := i.Stdlib.Lookup(candidate)
		if !ok {
			continue
		}
		ref, err := names.ParseReference(fqn, names.OriginStdlib)
		if err != nil {
			continue
		}
		found[candidate] = []names.ReferenceName{ref}
	}
	return p.withResolved(stdlibName, found)
}
