// Package model contains simple struct definitions shared across packages.
package model

// Category is a named grouping that owns zero or more documents. IDs are
// assigned by the server; names are unique per user.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CategoryList is the envelope returned by GET /categories.
type CategoryList struct {
	Categories []Category `json:"categories"`
}

// FindCategory returns the category with id, or false when absent.
func FindCategory(categories []Category, id int64) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
