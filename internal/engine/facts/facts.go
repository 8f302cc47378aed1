// Package facts holds the per-file facts produced by language parsers. The
// parsers themselves live outside this module; analysis only consumes
// FileFacts through a provider.
package facts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"modcheck/internal/engine/names"
)

// FileFacts describes one source file.
type FileFacts struct {
	Path              string
	PackageName       names.PackageName
	Imports           []string
	WildcardImports   []string
	AliasedImports    map[string]string // alias -> fully qualified target
	DeclaredNames     []names.DeclaredName
	ReferenceNames    []string
	APIReferenceNames []string // subset of ReferenceNames reachable from public signatures
}

// Key identifies the facts of one project source set.
type Key struct {
	Project   string
	SourceSet string
}

func (k Key) String() string {
	return k.Project + "@" + k.SourceSet
}

// Static is an in-memory provider, used for snapshot files and tests.
type Static struct {
	mu    sync.RWMutex
	files map[Key][]FileFacts
}

func NewStatic() *Static {
	return &Static{files: make(map[Key][]FileFacts)}
}

// Add registers facts for a project source set. project is the path exactly
// as the project is declared in the graph snapshot.
func (s *Static) Add(project, sourceSet string, files ...FileFacts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := Key{Project: project, SourceSet: sourceSet}
	for _, f := range files {
		s.files[key] = append(s.files[key], cloneFacts(f))
	}
}

func (s *Static) SourceFacts(ctx context.Context, project, sourceSet string) ([]FileFacts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := s.files[Key{Project: project, SourceSet: sourceSet}]
	out := make([]FileFacts, len(files))
	for i := range files {
		out[i] = cloneFacts(files[i])
	}
	return out, nil
}

// Keys lists every registered project source set in stable order.
func (s *Static) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]Key, 0, len(s.files))
	for k := range s.files {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

func cloneFacts(f FileFacts) FileFacts {
	out := f
	out.Imports = append([]string(nil), f.Imports...)
	out.WildcardImports = append([]string(nil), f.WildcardImports...)
	out.DeclaredNames = append([]names.DeclaredName(nil), f.DeclaredNames...)
	out.ReferenceNames = append([]string(nil), f.ReferenceNames...)
	out.APIReferenceNames = append([]string(nil), f.APIReferenceNames...)
	if f.AliasedImports != nil {
		out.AliasedImports = make(map[string]string, len(f.AliasedImports))
		for k, v := range f.AliasedImports {
			out.AliasedImports[k] = v
		}
	}
	return out
}

// NormalizeWildcard strips a trailing ".*" from a wildcard import.
func NormalizeWildcard(imp string) string {
	imp = strings.TrimSpace(imp)
	return strings.TrimSuffix(strings.TrimSuffix(imp, "*"), ".")
}

// Validate reports facts that cannot be used at all. Individual malformed
// names are tolerated and dropped later.
func (f FileFacts) Validate() error {
	if strings.TrimSpace(f.Path) == "" {
		return fmt.Errorf("file facts without a path")
	}
	for alias, target := range f.AliasedImports {
		if strings.TrimSpace(alias) == "" || strings.TrimSpace(target) == "" {
			return fmt.Errorf("%s: empty aliased import %q -> %q", f.Path, alias, target)
		}
	}
	return nil
}
