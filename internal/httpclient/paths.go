package httpclient

import (
	"fmt"
	"net/url"
)

// Paths are typed per HTTP method and can only be built by the constructors
// below, so the client never talks to a route outside this list.

// GetPath is a route that accepts GET.
type GetPath struct{ p string }

// PostPath is a route that accepts POST.
type PostPath struct{ p string }

// PatchPath is a route that accepts PATCH.
type PatchPath struct{ p string }

// DeletePath is a route that accepts DELETE.
type DeletePath struct{ p string }

func (p GetPath) String() string    { return p.p }
func (p PostPath) String() string   { return p.p }
func (p PatchPath) String() string  { return p.p }
func (p DeletePath) String() string { return p.p }

var (
	GetCategories       = GetPath{"/categories"}
	GetTodayQuestionSet = GetPath{"/question-sets/today"}
	GetUserInfo         = GetPath{"/users/info"}

	PostCategories = PostPath{"/categories"}
	PostDocuments  = PostPath{"/documents"}
	PostPayments   = PostPath{"/payments"}
)

func GetCategoryDocuments(categoryID int64) GetPath {
	return GetPath{fmt.Sprintf("/categories/%d/documents", categoryID)}
}

func GetCategoryQuestions(categoryID int64) GetPath {
	return GetPath{fmt.Sprintf("/categories/%d/documents/questions", categoryID)}
}

func GetDocument(documentID int64) GetPath {
	return GetPath{fmt.Sprintf("/documents/%d", documentID)}
}

func GetQuestionSet(questionSetID string) GetPath {
	return GetPath{"/question-sets/" + url.PathEscape(questionSetID)}
}

func PatchCategory(categoryID int64) PatchPath {
	return PatchPath{fmt.Sprintf("/categories/%d", categoryID)}
}

func DeleteCategory(categoryID int64) DeletePath {
	return DeletePath{fmt.Sprintf("/categories/%d", categoryID)}
}

func DeleteDocument(documentID int64) DeletePath {
	return DeletePath{fmt.Sprintf("/documents/%d", documentID)}
}
