package category

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dharsanguruparan/picktoss/internal/model"
	"github.com/dharsanguruparan/picktoss/internal/notify"
)

var (
	math    = model.Category{ID: 1, Name: "Math"}
	history = model.Category{ID: 2, Name: "History"}
	physics = model.Category{ID: 3, Name: "Physics"}
)

func newTestController(t *testing.T, repo *memRepo, opts ...Option) (*Controller, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	opts = append([]Option{WithNotifier(rec)}, opts...)
	c := NewController(repo, NewStore(), opts...)
	if _, err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return c, rec
}

func selectedID(s *Store) int64 {
	if sel := s.Selected(); sel != nil {
		return sel.ID
	}
	return 0
}

func TestEnsureSelectionConsistencyRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c := NewController(newMemRepo(), NewStore())
	for i := 0; i < 500; i++ {
		n := rng.Intn(5)
		categories := make([]model.Category, n)
		for j := range categories {
			categories[j] = model.Category{ID: int64(rng.Intn(10) + 1), Name: "c"}
		}
		switch rng.Intn(3) {
		case 0:
			c.store.Select(nil)
		case 1:
			c.store.Select(&model.Category{ID: int64(rng.Intn(10) + 1)})
		}

		c.EnsureSelectionConsistency(categories)
		sel := c.store.Selected()
		if n == 0 {
			if sel != nil {
				t.Fatalf("iteration %d: expected no selection for empty collection, got %+v", i, sel)
			}
			continue
		}
		if sel == nil {
			t.Fatalf("iteration %d: expected a selection from %v", i, categories)
		}
		if _, ok := model.FindCategory(categories, sel.ID); !ok {
			t.Fatalf("iteration %d: selection %d not in %v", i, sel.ID, categories)
		}
	}
}

func TestEnsureSelectionConsistencyIdempotent(t *testing.T) {
	c := NewController(newMemRepo(), NewStore())
	categories := []model.Category{math, history}
	c.store.Select(&model.Category{ID: 99, Name: "gone"})

	c.EnsureSelectionConsistency(categories)
	first := c.store.Selected()
	gen := c.store.Generation()

	c.EnsureSelectionConsistency(categories)
	if diff := cmp.Diff(first, c.store.Selected()); diff != "" {
		t.Fatalf("selection changed on second pass (-first +second):\n%s", diff)
	}
	if c.store.Generation() != gen {
		t.Fatalf("second pass wrote to the store")
	}
}

func TestEnsureSelectionConsistencyRefreshesRenamedSelection(t *testing.T) {
	c := NewController(newMemRepo(), NewStore())
	c.store.Select(&model.Category{ID: 1, Name: "Maths"})
	c.EnsureSelectionConsistency([]model.Category{history, math})
	if diff := cmp.Diff(&math, c.store.Selected()); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateSelectsNewCategory(t *testing.T) {
	for _, initial := range []*model.Category{nil, &math, &history} {
		repo := newMemRepo(math, history)
		c, _ := newTestController(t, repo)
		c.store.Select(initial)

		created, err := c.CreateCategory(context.Background(), "N")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if diff := cmp.Diff(&created, c.store.Selected()); diff != "" {
			t.Fatalf("initial %v: selection mismatch (-want +got):\n%s", initial, diff)
		}
	}
}

func TestCreateRejectsDuplicateWithoutNetwork(t *testing.T) {
	repo := newMemRepo(math, model.Category{ID: 2, Name: "Dup"})
	c, rec := newTestController(t, repo)
	before := repo.callCount()

	for _, name := range []string{"Dup", " Dup "} {
		_, err := c.CreateCategory(context.Background(), name)
		if !IsValidation(err, DuplicateName) {
			t.Fatalf("create %q: expected DuplicateName, got %v", name, err)
		}
	}
	if repo.callCount() != before {
		t.Fatalf("expected no repository calls, got %d", repo.callCount()-before)
	}
	if len(rec.Notices()) != 2 {
		t.Fatalf("expected a notice per attempt, got %v", rec.Notices())
	}
	if _, err := c.CreateCategory(context.Background(), "dup"); err != nil {
		t.Fatalf("names are case-sensitive, got %v", err)
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	repo := newMemRepo(math)
	c, _ := newTestController(t, repo)
	before := repo.callCount()
	for _, name := range []string{"", "   "} {
		_, err := c.CreateCategory(context.Background(), name)
		if !IsValidation(err, EmptyName) {
			t.Fatalf("create %q: expected EmptyName, got %v", name, err)
		}
	}
	if repo.callCount() != before {
		t.Fatalf("expected no repository calls")
	}
}

func TestCreateRemoteFailureLeavesStateUnchanged(t *testing.T) {
	repo := newMemRepo(math, history)
	c, rec := newTestController(t, repo)
	c.store.Select(&history)
	repo.set(func(r *memRepo) { r.createErr = errServer })

	_, err := c.CreateCategory(context.Background(), "Chemistry")
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) || !errors.Is(err, errServer) {
		t.Fatalf("expected RemoteError wrapping the server error, got %v", err)
	}
	if selectedID(c.store) != history.ID {
		t.Fatalf("selection changed after failure: %v", c.store.Selected())
	}
	if diff := cmp.Diff([]model.Category{math, history}, c.Categories()); diff != "" {
		t.Fatalf("collection changed after failure (-want +got):\n%s", diff)
	}
	if len(rec.Notices()) != 1 {
		t.Fatalf("expected one notice, got %v", rec.Notices())
	}
}

func TestDeleteFallsBackToFirstRemaining(t *testing.T) {
	repo := newMemRepo(math, history, physics)
	c, _ := newTestController(t, repo)
	if selectedID(c.store) != math.ID {
		t.Fatalf("expected Math selected after load, got %v", c.store.Selected())
	}

	deleteCategory(t, c, math.ID)
	if selectedID(c.store) != history.ID {
		t.Fatalf("expected History after deleting Math, got %v", c.store.Selected())
	}
	deleteCategory(t, c, history.ID)
	deleteCategory(t, c, physics.ID)
	if c.store.Selected() != nil {
		t.Fatalf("expected no selection after deleting everything, got %v", c.store.Selected())
	}
}

func TestDeleteUsesPostDeletionCollection(t *testing.T) {
	repo := newMemRepo(math, history, physics)
	c, _ := newTestController(t, repo)
	token, err := c.RequestDelete(math.ID)
	if err != nil {
		t.Fatalf("request delete: %v", err)
	}
	// Someone else removes History before our delete lands.
	if err := repo.Delete(context.Background(), history.ID); err != nil {
		t.Fatalf("external delete: %v", err)
	}
	if err := c.ConfirmDelete(context.Background(), token); err != nil {
		t.Fatalf("confirm delete: %v", err)
	}
	if selectedID(c.store) != physics.ID {
		t.Fatalf("expected Physics, got %v", c.store.Selected())
	}
}

func TestDeleteRemoteFailureLeavesStateUnchanged(t *testing.T) {
	repo := newMemRepo(math, history)
	c, rec := newTestController(t, repo)
	repo.set(func(r *memRepo) { r.deleteErr = errServer })

	token, err := c.RequestDelete(math.ID)
	if err != nil {
		t.Fatalf("request delete: %v", err)
	}
	err = c.ConfirmDelete(context.Background(), token)
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if selectedID(c.store) != math.ID {
		t.Fatalf("selection changed after failure")
	}
	if diff := cmp.Diff([]model.Category{math, history}, c.Categories()); diff != "" {
		t.Fatalf("collection changed (-want +got):\n%s", diff)
	}
	if len(rec.Notices()) != 1 {
		t.Fatalf("expected one notice, got %v", rec.Notices())
	}
}

func TestDeleteFallbackWhenRefreshFails(t *testing.T) {
	repo := newMemRepo(math, history)
	c, _ := newTestController(t, repo)
	token, _ := c.RequestDelete(math.ID)
	repo.set(func(r *memRepo) { r.listErr = errServer })

	if err := c.ConfirmDelete(context.Background(), token); err != nil {
		t.Fatalf("confirm delete: %v", err)
	}
	if selectedID(c.store) != history.ID {
		t.Fatalf("expected History, got %v", c.store.Selected())
	}
}

func TestConfirmationTokens(t *testing.T) {
	repo := newMemRepo(math, history)
	c, _ := newTestController(t, repo)

	if _, err := c.RequestDelete(42); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if err := c.ConfirmDelete(context.Background(), "made-up"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	token, err := c.RequestDelete(history.ID)
	if err != nil {
		t.Fatalf("request delete: %v", err)
	}
	if got, ok := c.PendingDelete(token); !ok || got != history {
		t.Fatalf("pending delete = %v, %v", got, ok)
	}
	before := repo.callCount()
	c.CancelDelete(token)
	if err := c.ConfirmDelete(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("cancelled token accepted: %v", err)
	}
	if repo.callCount() != before {
		t.Fatalf("repository called for a cancelled token")
	}

	token, _ = c.RequestDelete(history.ID)
	if err := c.ConfirmDelete(context.Background(), token); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := c.ConfirmDelete(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token reused: %v", err)
	}
}

func TestCreateDeleteScenario(t *testing.T) {
	repo := newMemRepo(math)
	c := NewController(repo, NewStore())
	ctx := context.Background()

	if c.store.Selected() != nil {
		t.Fatalf("expected empty selection")
	}
	if _, err := c.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(&math, c.store.Selected()); diff != "" {
		t.Fatalf("after load (-want +got):\n%s", diff)
	}

	if _, err := c.CreateCategory(ctx, "History"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if diff := cmp.Diff(&history, c.store.Selected()); diff != "" {
		t.Fatalf("after create (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]model.Category{math, history}, c.Categories()); diff != "" {
		t.Fatalf("collection after create (-want +got):\n%s", diff)
	}

	deleteCategory(t, c, history.ID)
	if diff := cmp.Diff(&math, c.store.Selected()); diff != "" {
		t.Fatalf("after delete (-want +got):\n%s", diff)
	}
}

func TestCreateResponseOverridesNewerSelectionByDefault(t *testing.T) {
	repo := newMemRepo(math, history)
	c, _ := newTestController(t, repo)
	repo.set(func(r *memRepo) {
		r.beforeCreateReturn = func() { c.store.Select(&history) }
	})

	created, err := c.CreateCategory(context.Background(), "Physics")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if selectedID(c.store) != created.ID {
		t.Fatalf("expected created category to win, got %v", c.store.Selected())
	}
}

func TestStaleGuardKeepsNewerSelection(t *testing.T) {
	repo := newMemRepo(math, history)
	c, _ := newTestController(t, repo, WithStaleGuard())
	repo.set(func(r *memRepo) {
		r.beforeCreateReturn = func() { c.store.Select(&history) }
	})

	if _, err := c.CreateCategory(context.Background(), "Physics"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if selectedID(c.store) != history.ID {
		t.Fatalf("expected History to survive the late response, got %v", c.store.Selected())
	}
	if len(c.Categories()) != 3 {
		t.Fatalf("expected refreshed collection, got %v", c.Categories())
	}
}

func TestRename(t *testing.T) {
	repo := newMemRepo(math, history)
	c, _ := newTestController(t, repo)
	ctx := context.Background()

	if _, err := c.Rename(ctx, math.ID, "History"); !IsValidation(err, DuplicateName) {
		t.Fatalf("expected DuplicateName, got %v", err)
	}
	if _, err := c.Rename(ctx, 77, "Other"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if _, err := c.Rename(ctx, math.ID, " Math "); err != nil {
		t.Fatalf("renaming to own name: %v", err)
	}
	renamed, err := c.Rename(ctx, math.ID, "Algebra")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if diff := cmp.Diff(&renamed, c.store.Selected()); diff != "" {
		t.Fatalf("selection not refreshed (-want +got):\n%s", diff)
	}
}

func TestSelectRequiresKnownCategory(t *testing.T) {
	c, _ := newTestController(t, newMemRepo(math, history))
	if _, err := c.Select(9); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	got, err := c.Select(history.ID)
	if err != nil || got != history {
		t.Fatalf("select = %v, %v", got, err)
	}
}

func TestLoadFailure(t *testing.T) {
	repo := newMemRepo(math)
	repo.listErr = errServer
	c := NewController(repo, NewStore())
	if _, err := c.Load(context.Background()); !errors.Is(err, errServer) {
		t.Fatalf("expected server error, got %v", err)
	}
}

func deleteCategory(t *testing.T, c *Controller, id int64) {
	t.Helper()
	token, err := c.RequestDelete(id)
	if err != nil {
		t.Fatalf("request delete %d: %v", id, err)
	}
	if err := c.ConfirmDelete(context.Background(), token); err != nil {
		t.Fatalf("confirm delete %d: %v", id, err)
	}
}
