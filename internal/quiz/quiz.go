// Package quiz resolves what the daily quiz view should show.
package quiz

import (
	"context"
	"fmt"

	"github.com/dharsanguruparan/picktoss/internal/category"
	"github.com/dharsanguruparan/picktoss/internal/model"
)

// Availability is the state of today's quiz.
type Availability int

const (
	// Ready means a question set exists and its questions were fetched.
	Ready Availability = iota
	// NotGenerated means documents exist but today's set is still being built.
	NotGenerated
	// NoDocument means the user has not uploaded anything yet.
	NoDocument
)

func (a Availability) String() string {
	switch a {
	case Ready:
		return "ready"
	case NotGenerated:
		return "not generated"
	default:
		return "no document"
	}
}

// Source is the remote surface the service reads. *remote.API satisfies it.
type Source interface {
	TodayQuestionSet(ctx context.Context) (model.QuestionSetStatus, error)
	QuestionSet(ctx context.Context, id string) (model.QuestionSet, error)
	User(ctx context.Context) (model.User, error)
}

// Today is the resolved daily quiz.
type Today struct {
	Availability  Availability
	QuestionSetID string
	Questions     []model.Question
	// Email is where the quiz is sent once generated.
	Email string
	// NeedsCategory is set for NoDocument when nothing is selected, so the
	// user has to create a category before uploading.
	NeedsCategory bool
}

// Service answers quiz queries.
type Service struct {
	source Source
	store  *category.Store
}

// NewService constructs a Service.
func NewService(source Source, store *category.Store) *Service {
	return &Service{source: source, store: store}
}

// Today resolves today's quiz.
func (s *Service) Today(ctx context.Context) (Today, error) {
	status, err := s.source.TodayQuestionSet(ctx)
	if err != nil {
		return Today{}, fmt.Errorf("fetch today's question set: %w", err)
	}
	if status.QuestionSetID == "" {
		switch status.Message {
		case model.QuestionSetNotReady:
			out := Today{Availability: NotGenerated}
			if user, err := s.source.User(ctx); err == nil {
				out.Email = user.Email
			}
			return out, nil
		case model.DocumentNotCreatedYet:
			return Today{Availability: NoDocument, NeedsCategory: s.store.Selected() == nil}, nil
		default:
			return Today{}, fmt.Errorf("unexpected question set status %q", status.Message)
		}
	}
	set, err := s.Public(ctx, status.QuestionSetID)
	if err != nil {
		return Today{}, err
	}
	return Today{Availability: Ready, QuestionSetID: status.QuestionSetID, Questions: set.Questions}, nil
}

// Public fetches a question set by id, as shared links do.
func (s *Service) Public(ctx context.Context, setID string) (model.QuestionSet, error) {
	set, err := s.source.QuestionSet(ctx, setID)
	if err != nil {
		return model.QuestionSet{}, fmt.Errorf("fetch question set %s: %w", setID, err)
	}
	return set, nil
}
