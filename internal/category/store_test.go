package category

import (
	"sync"
	"testing"

	"github.com/dharsanguruparan/picktoss/internal/model"
)

func TestStoreSelectCopies(t *testing.T) {
	s := NewStore()
	if s.Selected() != nil {
		t.Fatalf("expected empty store")
	}
	c := model.Category{ID: 1, Name: "Math"}
	s.Select(&c)
	c.Name = "mutated"
	if got := s.Selected(); got.Name != "Math" {
		t.Fatalf("store aliased caller value: %v", got)
	}
	got := s.Selected()
	got.Name = "mutated"
	if s.Selected().Name != "Math" {
		t.Fatalf("store leaked internal pointer")
	}
	s.Select(nil)
	if s.Selected() != nil || s.Generation() != 2 {
		t.Fatalf("unexpected state after clear: %v gen=%d", s.Selected(), s.Generation())
	}
}

func TestStoreConcurrentWriters(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Select(&model.Category{ID: id})
			_ = s.Selected()
		}(int64(i))
	}
	wg.Wait()
	if s.Generation() != 50 {
		t.Fatalf("expected 50 writes, got %d", s.Generation())
	}
	if s.Selected() == nil {
		t.Fatalf("expected a selection")
	}
}
