package selection

import (
	"sync"

	"tracker-studio/internal/model"
)

// Store holds at most one FileSelection. A new pick replaces the old one
// wholesale.
type Store struct {
	mu      sync.RWMutex
	current model.FileSelection
	set     bool
}

func NewStore() *Store {
	return &Store{}
}

// Select replaces any existing selection. No type or size checks happen
// here; the picker's accept filter is advisory.
func (s *Store) Select(candidate model.FileSelection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = candidate
	s.set = true
}

func (s *Store) Current() (model.FileSelection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.set
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = model.FileSelection{}
	s.set = false
}
