// Package remote binds each API resource to the query cache: reads are cached
// per key, mutations invalidate the keys they affect.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dharsanguruparan/picktoss/internal/httpclient"
	"github.com/dharsanguruparan/picktoss/internal/model"
)

const (
	keyCategories  = "categories"
	keyDocuments   = "documents"
	keyDocument    = "document"
	keyQuestions   = "questions"
	keyQuestionSet = "question-set"
	keyUser        = "user"
)

func categoryKey(prefix string, id int64) string {
	return prefix + ":" + strconv.FormatInt(id, 10)
}

// API exposes typed, cached access to the picktoss resources.
type API struct {
	client *httpclient.Client
	cache  *Cache
}

// New constructs an API.
func New(client *httpclient.Client, cache *Cache) *API {
	return &API{client: client, cache: cache}
}

// Cache returns the underlying query cache.
func (a *API) Cache() *Cache { return a.cache }

// RefetchAll reloads every cached query.
func (a *API) RefetchAll(ctx context.Context) error {
	return a.cache.RefetchAll(ctx)
}

// Categories lists the user's categories.
func (a *API) Categories(ctx context.Context) ([]model.Category, error) {
	return Query(ctx, a.cache, keyCategories, func(ctx context.Context) ([]model.Category, error) {
		var raw json.RawMessage
		if err := a.client.Get(ctx, httpclient.GetCategories, &raw); err != nil {
			return nil, err
		}
		var env struct {
			Categories []model.Category `json:"categories"`
		}
		list, err := decodeList(raw, &env, func() []model.Category { return env.Categories })
		if err != nil {
			return nil, fmt.Errorf("decode categories: %w", err)
		}
		return list, nil
	})
}

// CreateCategory creates a category. Servers that answer with only the id get
// the submitted name filled in.
func (a *API) CreateCategory(ctx context.Context, name string) (model.Category, error) {
	var created model.Category
	if err := a.client.Post(ctx, httpclient.PostCategories, map[string]string{"name": name}, &created); err != nil {
		return model.Category{}, err
	}
	if created.Name == "" {
		created.Name = name
	}
	a.cache.Invalidate(keyCategories)
	return created, nil
}

// RenameCategory renames a category.
func (a *API) RenameCategory(ctx context.Context, id int64, name string) error {
	if err := a.client.Patch(ctx, httpclient.PatchCategory(id), map[string]string{"name": name}, nil); err != nil {
		return err
	}
	a.cache.Invalidate(keyCategories, keyQuestions, keyQuestionSet)
	return nil
}

// DeleteCategory deletes a category; the server cascades to its documents.
func (a *API) DeleteCategory(ctx context.Context, id int64) error {
	if err := a.client.Delete(ctx, httpclient.DeleteCategory(id), nil); err != nil {
		return err
	}
	a.cache.Invalidate(keyCategories, categoryKey(keyDocuments, id), categoryKey(keyQuestions, id), keyDocument, keyQuestionSet, keyUser)
	return nil
}

// Documents lists the documents of a category.
func (a *API) Documents(ctx context.Context, categoryID int64) ([]model.Document, error) {
	return Query(ctx, a.cache, categoryKey(keyDocuments, categoryID), func(ctx context.Context) ([]model.Document, error) {
		return a.fetchDocuments(ctx, httpclient.GetCategoryDocuments(categoryID))
	})
}

// RefreshDocuments bypasses the cache for a category's documents.
func (a *API) RefreshDocuments(ctx context.Context, categoryID int64) ([]model.Document, error) {
	a.cache.Invalidate(categoryKey(keyDocuments, categoryID))
	return a.Documents(ctx, categoryID)
}

// Document fetches a single document including its content.
func (a *API) Document(ctx context.Context, id int64) (model.Document, error) {
	return Query(ctx, a.cache, categoryKey(keyDocument, id), func(ctx context.Context) (model.Document, error) {
		var doc model.Document
		if err := a.client.Get(ctx, httpclient.GetDocument(id), &doc); err != nil {
			return model.Document{}, err
		}
		return doc, nil
	})
}

// RefreshDocument bypasses the cache for a single document.
func (a *API) RefreshDocument(ctx context.Context, id int64) (model.Document, error) {
	a.cache.Invalidate(categoryKey(keyDocument, id))
	return a.Document(ctx, id)
}

// NewDocument is the payload of a document upload.
type NewDocument struct {
	CategoryID  int64
	Name        string
	FileName    string
	ContentType string
	Data        []byte
}

// CreateDocument uploads a Markdown document and returns its id.
func (a *API) CreateDocument(ctx context.Context, doc NewDocument) (int64, error) {
	form := (&httpclient.Form{}).
		AddFile(httpclient.FormFile{
			Field:       "file",
			FileName:    doc.FileName,
			ContentType: doc.ContentType,
			Data:        doc.Data,
		}).
		AddField("userDocumentName", doc.Name).
		AddField("categoryId", strconv.FormatInt(doc.CategoryID, 10)).
		AddField("documentFormat", string(model.FormatMarkdown))
	var created model.CreatedDocument
	if err := a.client.PostForm(ctx, httpclient.PostDocuments, form, &created); err != nil {
		return 0, err
	}
	a.cache.Invalidate(categoryKey(keyDocuments, doc.CategoryID), keyUser, keyQuestionSet)
	return created.ID, nil
}

// DeleteDocument deletes a document and its questions.
func (a *API) DeleteDocument(ctx context.Context, id int64) error {
	if err := a.client.Delete(ctx, httpclient.DeleteDocument(id), nil); err != nil {
		return err
	}
	a.cache.Invalidate(keyDocuments, categoryKey(keyDocument, id), keyQuestions, keyQuestionSet, keyUser)
	return nil
}

// CategoryQuestions lists a category's documents with their questions.
func (a *API) CategoryQuestions(ctx context.Context, categoryID int64) ([]model.Document, error) {
	return Query(ctx, a.cache, categoryKey(keyQuestions, categoryID), func(ctx context.Context) ([]model.Document, error) {
		return a.fetchDocuments(ctx, httpclient.GetCategoryQuestions(categoryID))
	})
}

// TodayQuestionSet reports whether today's quiz exists.
func (a *API) TodayQuestionSet(ctx context.Context) (model.QuestionSetStatus, error) {
	return Query(ctx, a.cache, keyQuestionSet+":today", func(ctx context.Context) (model.QuestionSetStatus, error) {
		var status model.QuestionSetStatus
		if err := a.client.Get(ctx, httpclient.GetTodayQuestionSet, &status); err != nil {
			return model.QuestionSetStatus{}, err
		}
		return status, nil
	})
}

// QuestionSet fetches the questions of a set.
func (a *API) QuestionSet(ctx context.Context, id string) (model.QuestionSet, error) {
	return Query(ctx, a.cache, keyQuestionSet+":"+id, func(ctx context.Context) (model.QuestionSet, error) {
		var set model.QuestionSet
		if err := a.client.Get(ctx, httpclient.GetQuestionSet(id), &set); err != nil {
			return model.QuestionSet{}, err
		}
		return set, nil
	})
}

// User returns the signed-in user's profile and quota.
func (a *API) User(ctx context.Context) (model.User, error) {
	return Query(ctx, a.cache, keyUser, func(ctx context.Context) (model.User, error) {
		var u model.User
		if err := a.client.Get(ctx, httpclient.GetUserInfo, &u); err != nil {
			return model.User{}, err
		}
		return u, nil
	})
}

// SubmitPayment records the depositor name of a manual bank transfer.
func (a *API) SubmitPayment(ctx context.Context, name string) error {
	if err := a.client.Post(ctx, httpclient.PostPayments, model.PaymentRequest{Name: name}, nil); err != nil {
		return err
	}
	a.cache.Invalidate(keyUser)
	return nil
}

func (a *API) fetchDocuments(ctx context.Context, path httpclient.GetPath) ([]model.Document, error) {
	var raw json.RawMessage
	if err := a.client.Get(ctx, path, &raw); err != nil {
		return nil, err
	}
	var env struct {
		Documents []model.Document `json:"documents"`
	}
	list, err := decodeList(raw, &env, func() []model.Document { return env.Documents })
	if err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return list, nil
}

// decodeList accepts both a bare JSON array and an {"<name>": [...]} envelope;
// the API has served both shapes.
func decodeList[T any](raw json.RawMessage, envelope any, fromEnvelope func() []T) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []T
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	if err := json.Unmarshal(trimmed, envelope); err != nil {
		return nil, err
	}
	return fromEnvelope(), nil
}
