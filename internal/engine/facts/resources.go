package facts

import (
	"context"
	"sync"

	"modcheck/internal/engine/names"
)

// StaticResources is an in-memory index of generated symbols of one origin,
// keyed by project source set.
type StaticResources struct {
	origin names.Origin

	mu      sync.RWMutex
	entries map[Key][]names.DeclaredName
	locals  map[Key]names.DeclaredName
}

func NewStaticResources(origin names.Origin) *StaticResources {
	return &StaticResources{
		origin:  origin,
		entries: make(map[Key][]names.DeclaredName),
		locals:  make(map[Key]names.DeclaredName),
	}
}

func (s *StaticResources) Origin() names.Origin { return s.origin }

// Add registers generated symbols. Their origin is forced to the index's.
func (s *StaticResources) Add(project, sourceSet string, declared ...names.DeclaredName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := Key{Project: project, SourceSet: sourceSet}
	for _, d := range declared {
		d.Origin = s.origin
		s.entries[key] = append(s.entries[key], d)
	}
}

// SetLocal registers the project's own generated class, e.g. its R class.
func (s *StaticResources) SetLocal(project, sourceSet string, local names.DeclaredName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	local.Origin = s.origin
	s.locals[Key{Project: project, SourceSet: sourceSet}] = local
}

func (s *StaticResources) All(ctx context.Context, project, sourceSet string) ([]names.DeclaredName, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]names.DeclaredName(nil), s.entries[Key{Project: project, SourceSet: sourceSet}]...), nil
}

func (s *StaticResources) LocalOrNull(ctx context.Context, project, sourceSet string) (*names.DeclaredName, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	local, ok := s.locals[Key{Project: project, SourceSet: sourceSet}]
	if !ok {
		return nil, nil
	}
	return &local, nil
}

// Len returns the number of registered symbols.
func (s *StaticResources) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, entries := range s.entries {
		n += len(entries)
	}
	return n
}
