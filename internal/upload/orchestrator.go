// Package upload drives the document upload flow: validate the Markdown
// source, create the document remotely, wait while the server starts
// processing, then refresh every cached view.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/picktoss/internal/category"
	"github.com/dharsanguruparan/picktoss/internal/config"
	"github.com/dharsanguruparan/picktoss/internal/model"
	"github.com/dharsanguruparan/picktoss/internal/notify"
	"github.com/dharsanguruparan/picktoss/internal/remote"
)

// Phase is the upload state.
type Phase int

const (
	NotStarted Phase = iota
	InProgress
	Completed
)

func (p Phase) String() string {
	switch p {
	case InProgress:
		return "in progress"
	case Completed:
		return "completed"
	default:
		return "not started"
	}
}

// Kind distinguishes an uploaded file from content authored in the client.
type Kind int

const (
	KindFile Kind = iota
	KindContent
)

// Request describes one upload. KindFile uses File, or Source when File has
// no data, and targets the selected category. KindContent sends Content to
// CategoryID.
type Request struct {
	Kind       Kind
	Name       string
	File       File
	Source     string
	Content    string
	CategoryID int64
}

// Documents is the remote surface the orchestrator needs. *remote.API
// satisfies it.
type Documents interface {
	CreateDocument(ctx context.Context, doc remote.NewDocument) (int64, error)
	Document(ctx context.Context, id int64) (model.Document, error)
	User(ctx context.Context) (model.User, error)
	RefetchAll(ctx context.Context) error
}

// Limits bounds accepted content. Length is counted in characters and must
// lie in [MinContentLength, MaxContentLength).
type Limits struct {
	MinContentLength int
	MaxContentLength int
	ProgressDelay    time.Duration
}

// LimitsFromConfig copies the upload settings out of cfg.
func LimitsFromConfig(cfg *config.Config) Limits {
	return Limits{
		MinContentLength: cfg.MinContentLength,
		MaxContentLength: cfg.MaxContentLength,
		ProgressDelay:    cfg.ProgressDelay,
	}
}

// Details is what the completed view shows.
type Details struct {
	Document model.Document
	User     model.User
}

// Orchestrator runs at most one upload at a time.
type Orchestrator struct {
	docs       Documents
	store      *category.Store
	limits     Limits
	notifier   notify.Notifier
	logger     *zap.Logger
	fetcher    Fetcher
	limitGuard bool
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error

	mu        sync.Mutex
	phase     Phase
	attempt   uint64
	createdID int64
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

func WithNotifier(n notify.Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithFetcher enables s3:// sources.
func WithFetcher(f Fetcher) Option {
	return func(o *Orchestrator) { o.fetcher = f }
}

// WithLimitGuard checks the user's document quota before uploading.
func WithLimitGuard() Option {
	return func(o *Orchestrator) { o.limitGuard = true }
}

// WithClock overrides the clock used to name authored documents.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New constructs an Orchestrator in NotStarted.
func New(docs Documents, store *category.Store, limits Limits, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		docs:     docs,
		store:    store,
		limits:   limits,
		notifier: notify.Discard,
		logger:   zap.NewNop(),
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Close resets to NotStarted from any phase. A pending upload keeps running
// on the server but its completion is discarded.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phase = NotStarted
	o.createdID = 0
	o.attempt++
}

// Submit runs one upload and returns the created document id once the
// orchestrator reached Completed.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (int64, error) {
	attempt, err := o.begin()
	if err != nil {
		return 0, err
	}

	doc, err := o.prepare(ctx, req)
	if err != nil {
		o.abort(attempt)
		return 0, err
	}

	if o.limitGuard {
		if err := o.checkQuota(ctx); err != nil {
			o.abort(attempt)
			return 0, err
		}
	}

	id, err := o.docs.CreateDocument(ctx, doc)
	if err != nil {
		o.notifier.Notify(notify.Notice{Title: "Could not upload document", Description: err.Error()})
		o.abort(attempt)
		return 0, fmt.Errorf("create document: %w", err)
	}
	o.logger.Info("document created",
		zap.Int64("document_id", id),
		zap.Int64("category_id", doc.CategoryID),
		zap.Int("bytes", len(doc.Data)))

	if err := o.sleep(ctx, o.limits.ProgressDelay); err != nil {
		o.abort(attempt)
		return 0, err
	}
	if !o.complete(attempt, id) {
		return 0, ErrAborted
	}
	if err := o.docs.RefetchAll(ctx); err != nil {
		o.logger.Warn("refetch after upload failed", zap.Error(err))
	}
	return id, nil
}

// Details returns the created document and the user's updated usage.
func (o *Orchestrator) Details(ctx context.Context) (Details, error) {
	o.mu.Lock()
	phase, id := o.phase, o.createdID
	o.mu.Unlock()
	if phase != Completed {
		return Details{}, ErrNotCompleted
	}
	doc, err := o.docs.Document(ctx, id)
	if err != nil {
		return Details{}, fmt.Errorf("fetch document %d: %w", id, err)
	}
	user, err := o.docs.User(ctx)
	if err != nil {
		return Details{}, fmt.Errorf("fetch user: %w", err)
	}
	return Details{Document: doc, User: user}, nil
}

func (o *Orchestrator) begin() (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != NotStarted {
		return 0, ErrBusy
	}
	o.phase = InProgress
	o.attempt++
	return o.attempt, nil
}

func (o *Orchestrator) abort(attempt uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attempt == attempt {
		o.phase = NotStarted
	}
}

func (o *Orchestrator) complete(attempt uint64, id int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attempt != attempt {
		return false
	}
	o.phase = Completed
	o.createdID = id
	return true
}

func (o *Orchestrator) prepare(ctx context.Context, req Request) (remote.NewDocument, error) {
	var (
		file       File
		categoryID int64
	)
	switch req.Kind {
	case KindContent:
		if req.CategoryID == 0 {
			return remote.NewDocument{}, o.reject(&ValidationError{Kind: NoCategory})
		}
		categoryID = req.CategoryID
		file = File{
			Name:        fmt.Sprintf("%d.md", o.now().UnixMilli()),
			ContentType: MarkdownType,
			Data:        []byte(req.Content),
		}
	default:
		selected := o.store.Selected()
		if selected == nil {
			return remote.NewDocument{}, o.reject(&ValidationError{Kind: NoCategory})
		}
		categoryID = selected.ID
		file = req.File
		if len(file.Data) == 0 && req.Source != "" {
			loaded, err := ReadSource(ctx, o.fetcher, req.Source)
			if err != nil {
				return remote.NewDocument{}, o.reject(&ValidationError{Kind: ReadFailure, Err: err})
			}
			file = loaded
		}
		if !IsMarkdown(file) {
			o.logger.Info("rejected non-markdown upload",
				zap.String("file", file.Name), zap.String("detected", Sniff(file.Data)))
			return remote.NewDocument{}, o.reject(&ValidationError{Kind: WrongFileType})
		}
	}

	if !utf8.Valid(file.Data) {
		return remote.NewDocument{}, o.reject(&ValidationError{Kind: ReadFailure, Err: errors.New("content is not valid UTF-8")})
	}
	length := utf8.RuneCount(file.Data)
	if length < o.limits.MinContentLength || length >= o.limits.MaxContentLength {
		return remote.NewDocument{}, o.reject(&ValidationError{Kind: ContentLength, Length: length})
	}

	return remote.NewDocument{
		CategoryID:  categoryID,
		Name:        DocumentName(req.Name, file.Name),
		FileName:    file.Name,
		ContentType: MarkdownType,
		Data:        file.Data,
	}, nil
}

// reject notifies the user about a validation failure. Read failures and
// length violations share one notice.
func (o *Orchestrator) reject(err *ValidationError) error {
	switch err.Kind {
	case ContentLength, ReadFailure:
		o.notifier.Notify(notify.Notice{
			Title: fmt.Sprintf("Documents must be between %d and %d characters",
				o.limits.MinContentLength, o.limits.MaxContentLength),
			Description: fmt.Sprintf("Current length: %d characters", err.Length),
		})
	case WrongFileType:
		o.notifier.Notify(notify.Notice{Title: "Only .md files can be uploaded"})
	case NoCategory:
		o.notifier.Notify(notify.Notice{Title: "Select a category first"})
	}
	return err
}

func (o *Orchestrator) checkQuota(ctx context.Context) error {
	user, err := o.docs.User(ctx)
	if err != nil {
		o.notifier.Notify(notify.Notice{Title: "Could not load account", Description: err.Error()})
		return fmt.Errorf("fetch user: %w", err)
	}
	if !user.CanAddDocument() {
		o.notifier.Notify(notify.Notice{
			Title:       "Document limit reached",
			Description: fmt.Sprintf("%d of %d documents used", user.DocumentUsage.CurrentPossessDocumentNum, user.MaxDocuments()),
		})
		return ErrLimitReached
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
