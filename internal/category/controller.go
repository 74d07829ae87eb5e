package category

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/picktoss/internal/model"
	"github.com/dharsanguruparan/picktoss/internal/notify"
)

// Repository returns fresh snapshots of the category collection and applies
// mutations remotely. Implementations never insert optimistically.
type Repository interface {
	List(ctx context.Context) ([]model.Category, error)
	Create(ctx context.Context, name string) (model.Category, error)
	Delete(ctx context.Context, id int64) error
}

// Renamer is implemented by repositories that support PATCH.
type Renamer interface {
	Rename(ctx context.Context, id int64, name string) error
}

// ConfirmationToken authorizes exactly one deletion of one category.
type ConfirmationToken string

// Controller is the only writer of the selection in response to the
// collection changing shape.
type Controller struct {
	repo       Repository
	store      *Store
	notifier   notify.Notifier
	logger     *zap.Logger
	staleGuard bool

	mu      sync.Mutex
	known   []model.Category
	pending map[ConfirmationToken]int64
}

// Option customizes a Controller.
type Option func(*Controller)

// WithNotifier routes user-facing notices.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithStaleGuard stops a create response from overriding a selection the user
// changed while the request was in flight. Without it the newly created
// category always wins.
func WithStaleGuard() Option {
	return func(c *Controller) { c.staleGuard = true }
}

// NewController constructs a Controller.
func NewController(repo Repository, store *Store, opts ...Option) *Controller {
	c := &Controller{
		repo:     repo,
		store:    store,
		notifier: notify.Discard,
		logger:   zap.NewNop(),
		pending:  make(map[ConfirmationToken]int64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the selection store the controller writes to.
func (c *Controller) Store() *Store { return c.store }

// Categories returns the last collection fetched from the repository.
func (c *Controller) Categories() []model.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Category, len(c.known))
	copy(out, c.known)
	return out
}

func (c *Controller) setKnown(categories []model.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.known = append([]model.Category(nil), categories...)
}

// Load fetches the collection and makes the selection consistent with it.
func (c *Controller) Load(ctx context.Context) ([]model.Category, error) {
	categories, err := c.repo.List(ctx)
	if err != nil {
		c.notifier.Notify(notify.Notice{Title: "Could not load categories", Description: err.Error()})
		return nil, &RemoteError{Op: "list categories", Err: err}
	}
	c.setKnown(categories)
	c.EnsureSelectionConsistency(categories)
	return categories, nil
}

// EnsureSelectionConsistency points the selection at an element of
// categories: the current one if it still exists, else the first one, else
// none. A selection that is already consistent is left untouched.
func (c *Controller) EnsureSelectionConsistency(categories []model.Category) {
	selected := c.store.Selected()
	if len(categories) == 0 {
		if selected != nil {
			c.store.Select(nil)
		}
		return
	}
	if selected != nil {
		current, ok := model.FindCategory(categories, selected.ID)
		if ok {
			if current.Name != selected.Name {
				c.store.Select(&current)
			}
			return
		}
	}
	first := categories[0]
	c.logger.Debug("selection fallback", zap.Int64("category_id", first.ID))
	c.store.Select(&first)
}

// Select makes id the active category. Only known ids are accepted.
func (c *Controller) Select(id int64) (model.Category, error) {
	cat, ok := model.FindCategory(c.Categories(), id)
	if !ok {
		return model.Category{}, ErrUnknownCategory
	}
	c.store.Select(&cat)
	return cat, nil
}

func (c *Controller) validateName(name string, ignoreID int64) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		c.notifier.Notify(notify.Notice{Title: "Enter a category name"})
		return "", &ValidationError{Kind: EmptyName}
	}
	for _, existing := range c.Categories() {
		if existing.Name == trimmed && existing.ID != ignoreID {
			c.notifier.Notify(notify.Notice{Title: "Category already exists"})
			return "", &ValidationError{Kind: DuplicateName, Name: trimmed}
		}
	}
	return trimmed, nil
}

// CreateCategory validates name locally, creates it remotely and selects it.
// The collection is re-read from the repository afterwards.
func (c *Controller) CreateCategory(ctx context.Context, name string) (model.Category, error) {
	trimmed, err := c.validateName(name, 0)
	if err != nil {
		return model.Category{}, err
	}
	generation := c.store.Generation()
	created, err := c.repo.Create(ctx, trimmed)
	if err != nil {
		c.notifier.Notify(notify.Notice{Title: "Could not create category", Description: err.Error()})
		return model.Category{}, &RemoteError{Op: "create category", Err: err}
	}
	if c.staleGuard && c.store.Generation() != generation {
		c.logger.Info("selection changed while creating category; keeping it",
			zap.Int64("category_id", created.ID))
	} else {
		c.store.Select(&created)
	}
	c.refresh(ctx, nil)
	return created, nil
}

// Rename renames a category. Only repositories implementing Renamer support it.
func (c *Controller) Rename(ctx context.Context, id int64, name string) (model.Category, error) {
	renamer, ok := c.repo.(Renamer)
	if !ok {
		return model.Category{}, &RemoteError{Op: "rename category", Err: errRenameUnsupported}
	}
	if _, ok := model.FindCategory(c.Categories(), id); !ok {
		return model.Category{}, ErrUnknownCategory
	}
	trimmed, err := c.validateName(name, id)
	if err != nil {
		return model.Category{}, err
	}
	if err := renamer.Rename(ctx, id, trimmed); err != nil {
		c.notifier.Notify(notify.Notice{Title: "Could not rename category", Description: err.Error()})
		return model.Category{}, &RemoteError{Op: "rename category", Err: err}
	}
	renamed := model.Category{ID: id, Name: trimmed}
	c.refresh(ctx, func(known []model.Category) []model.Category {
		out := append([]model.Category(nil), known...)
		for i := range out {
			if out[i].ID == id {
				out[i] = renamed
			}
		}
		return out
	})
	return renamed, nil
}

// RequestDelete is the first step of deletion. The returned token must be
// passed to ConfirmDelete; nothing is deleted until then.
func (c *Controller) RequestDelete(id int64) (ConfirmationToken, error) {
	if _, ok := model.FindCategory(c.Categories(), id); !ok {
		return "", ErrUnknownCategory
	}
	token := ConfirmationToken(uuid.NewString())
	c.mu.Lock()
	c.pending[token] = id
	c.mu.Unlock()
	return token, nil
}

// CancelDelete discards a pending confirmation.
func (c *Controller) CancelDelete(token ConfirmationToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, token)
}

// PendingDelete returns the category a token would delete.
func (c *Controller) PendingDelete(token ConfirmationToken) (model.Category, bool) {
	c.mu.Lock()
	id, ok := c.pending[token]
	c.mu.Unlock()
	if !ok {
		return model.Category{}, false
	}
	return model.FindCategory(c.Categories(), id)
}

// ConfirmDelete deletes the category bound to token. On success the selection
// is re-derived from the post-deletion collection; on failure nothing changes.
func (c *Controller) ConfirmDelete(ctx context.Context, token ConfirmationToken) error {
	c.mu.Lock()
	id, ok := c.pending[token]
	delete(c.pending, token)
	c.mu.Unlock()
	if !ok {
		return ErrInvalidToken
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		c.notifier.Notify(notify.Notice{Title: "Could not delete category", Description: err.Error()})
		return &RemoteError{Op: "delete category", Err: err}
	}
	c.refresh(ctx, func(known []model.Category) []model.Category {
		out := make([]model.Category, 0, len(known))
		for _, cat := range known {
			if cat.ID != id {
				out = append(out, cat)
			}
		}
		return out
	})
	return nil
}

// refresh re-reads the collection after a successful mutation. When the read
// fails and fallback is set, fallback derives the collection from the last
// known one; with no fallback the known collection and selection stay as is.
func (c *Controller) refresh(ctx context.Context, fallback func([]model.Category) []model.Category) {
	categories, err := c.repo.List(ctx)
	if err != nil {
		c.logger.Warn("refresh categories failed", zap.Error(err))
		if fallback == nil {
			return
		}
		categories = fallback(c.Categories())
	}
	c.setKnown(categories)
	c.EnsureSelectionConsistency(categories)
}
