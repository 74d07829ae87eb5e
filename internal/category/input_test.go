package category

import (
	"context"
	"errors"
	"testing"
)

func TestNameInputClosesAfterEveryAttempt(t *testing.T) {
	repo := newMemRepo(math)
	c, _ := newTestController(t, repo)
	in := NewNameInput(c)
	ctx := context.Background()

	if _, err := in.Submit(ctx); !errors.Is(err, ErrInputClosed) {
		t.Fatalf("expected ErrInputClosed, got %v", err)
	}

	in.Change("ignored")
	if in.Value() != "" {
		t.Fatalf("closed input accepted a change")
	}

	in.Open()
	in.Change("Math")
	if _, err := in.Blur(ctx); !IsValidation(err, DuplicateName) {
		t.Fatalf("expected DuplicateName, got %v", err)
	}
	if in.State() != InputClosed || in.Value() != "" {
		t.Fatalf("input not reset after failed attempt: %v %q", in.State(), in.Value())
	}

	in.Open()
	in.Change("History")
	created, err := in.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if in.State() != InputClosed {
		t.Fatalf("input still open after submit")
	}
	if selectedID(c.Store()) != created.ID {
		t.Fatalf("created category not selected")
	}

	in.Open()
	in.Change("Draft")
	in.Cancel()
	if in.State() != InputClosed || in.Value() != "" {
		t.Fatalf("cancel did not reset input")
	}
	if len(c.Categories()) != 2 {
		t.Fatalf("cancel created a category: %v", c.Categories())
	}
}
