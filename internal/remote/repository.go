package remote

import (
	"context"

	"github.com/dharsanguruparan/picktoss/internal/model"
)

// CategoryRepository adapts API to the list/create/delete shape the category
// lifecycle depends on.
type CategoryRepository struct {
	api *API
}

// CategoryRepository returns the category view of the API.
func (a *API) CategoryRepository() *CategoryRepository {
	return &CategoryRepository{api: a}
}

func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	return r.api.Categories(ctx)
}

func (r *CategoryRepository) Create(ctx context.Context, name string) (model.Category, error) {
	return r.api.CreateCategory(ctx, name)
}

func (r *CategoryRepository) Rename(ctx context.Context, id int64, name string) error {
	return r.api.RenameCategory(ctx, id, name)
}

func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	return r.api.DeleteCategory(ctx, id)
}
