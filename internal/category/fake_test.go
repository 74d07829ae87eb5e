package category

import (
	"context"
	"errors"
	"sync"

	"github.com/dharsanguruparan/picktoss/internal/model"
)

var errServer = errors.New("server unavailable")

// memRepo is an in-memory Repository that assigns ids like the server does
// and counts every call.
type memRepo struct {
	mu         sync.Mutex
	categories []model.Category
	nextID     int64
	calls      int

	listErr   error
	createErr error
	deleteErr error
	renameErr error

	// beforeCreateReturn runs after the category is stored and before Create
	// returns, simulating user activity while the request is in flight.
	beforeCreateReturn func()
}

func newMemRepo(categories ...model.Category) *memRepo {
	r := &memRepo{categories: append([]model.Category(nil), categories...)}
	for _, c := range categories {
		if c.ID > r.nextID {
			r.nextID = c.ID
		}
	}
	return r
}

func (r *memRepo) List(ctx context.Context) ([]model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]model.Category(nil), r.categories...), nil
}

func (r *memRepo) Create(ctx context.Context, name string) (model.Category, error) {
	r.mu.Lock()
	r.calls++
	if r.createErr != nil {
		r.mu.Unlock()
		return model.Category{}, r.createErr
	}
	r.nextID++
	c := model.Category{ID: r.nextID, Name: name}
	r.categories = append(r.categories, c)
	hook := r.beforeCreateReturn
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return c, nil
}

func (r *memRepo) Rename(ctx context.Context, id int64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.renameErr != nil {
		return r.renameErr
	}
	for i := range r.categories {
		if r.categories[i].ID == id {
			r.categories[i].Name = name
		}
	}
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	out := r.categories[:0]
	for _, c := range r.categories {
		if c.ID != id {
			out = append(out, c)
		}
	}
	r.categories = out
	return nil
}

func (r *memRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *memRepo) set(f func(r *memRepo)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f(r)
}
