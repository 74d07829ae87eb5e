package category

import (
	"context"
	"sync"

	"github.com/dharsanguruparan/picktoss/internal/model"
)

// InputState is the phase of a NameInput.
type InputState int

const (
	InputClosed InputState = iota
	InputEditing
)

func (s InputState) String() string {
	if s == InputEditing {
		return "editing"
	}
	return "closed"
}

// NameInput models the inline "new category" field. Every submit or blur
// attempt closes the field and clears its value, whatever the outcome.
type NameInput struct {
	controller *Controller

	mu    sync.Mutex
	state InputState
	value string
}

// NewNameInput returns a closed input bound to controller.
func NewNameInput(controller *Controller) *NameInput {
	return &NameInput{controller: controller}
}

// Open switches the input to editing with an empty value.
func (in *NameInput) Open() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.state = InputEditing
	in.value = ""
}

// Change replaces the current value. Ignored while closed.
func (in *NameInput) Change(value string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.state == InputEditing {
		in.value = value
	}
}

// State returns the current phase.
func (in *NameInput) State() InputState {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state
}

// Value returns the text being edited.
func (in *NameInput) Value() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.value
}

// Submit attempts to create a category from the current value.
func (in *NameInput) Submit(ctx context.Context) (model.Category, error) {
	value, ok := in.take()
	if !ok {
		return model.Category{}, ErrInputClosed
	}
	return in.controller.CreateCategory(ctx, value)
}

// Blur behaves like Submit: leaving the field commits it.
func (in *NameInput) Blur(ctx context.Context) (model.Category, error) {
	return in.Submit(ctx)
}

// Cancel closes the input without creating anything.
func (in *NameInput) Cancel() {
	in.take()
}

func (in *NameInput) take() (string, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	wasOpen := in.state == InputEditing
	value := in.value
	in.state = InputClosed
	in.value = ""
	return value, wasOpen
}
