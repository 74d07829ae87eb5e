// Package category owns the "which category am I working in" state and the
// lifecycle rules that keep it consistent with the category collection.
package category

import (
	"sync"

	"github.com/dharsanguruparan/picktoss/internal/model"
)

// Store holds the currently selected category. It performs no validation and
// no I/O; concurrent writers resolve last-write-wins.
type Store struct {
	mu         sync.RWMutex
	selected   *model.Category
	generation uint64
}

// NewStore returns a Store with nothing selected.
func NewStore() *Store {
	return &Store{}
}

// Selected returns a copy of the selection, or nil when none.
func (s *Store) Selected() *model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	c := *s.selected
	return &c
}

// Select replaces the selection. A nil category clears it.
func (s *Store) Select(c *model.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c == nil {
		s.selected = nil
	} else {
		cp := *c
		s.selected = &cp
	}
	s.generation++
}

// Generation increases on every Select. Callers compare generations taken
// before and after an await to detect that the selection moved meanwhile.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}
