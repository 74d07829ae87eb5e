// Package worker holds the asynq handlers run by cmd/worker.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/picktoss/internal/httpclient"
	"github.com/dharsanguruparan/picktoss/internal/model"
	"github.com/dharsanguruparan/picktoss/internal/queue"
	"github.com/dharsanguruparan/picktoss/internal/storage"
)

// ErrStillProcessing makes asynq retry the task later.
var ErrStillProcessing = errors.New("document is still being processed")

// DocumentFetcher reads a document bypassing any cache.
type DocumentFetcher interface {
	RefreshDocument(ctx context.Context, id int64) (model.Document, error)
}

// WatchResult is persisted once a watched document is processed.
type WatchResult struct {
	DocumentID int64                `json:"document_id"`
	Name       string               `json:"name"`
	Status     model.DocumentStatus `json:"status"`
	Summary    string               `json:"summary"`
	FinishedAt time.Time            `json:"finished_at"`
}

// ResultKey is the storage key of a document's WatchResult.
func ResultKey(documentID int64) string {
	return "watch:" + strconv.FormatInt(documentID, 10)
}

// LoadResult reads a stored WatchResult.
func LoadResult(ctx context.Context, store storage.Store, documentID int64) (WatchResult, error) {
	raw, err := store.Get(ctx, ResultKey(documentID))
	if err != nil {
		return WatchResult{}, err
	}
	var res WatchResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return WatchResult{}, fmt.Errorf("decode watch result: %w", err)
	}
	return res, nil
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	docs    DocumentFetcher
	results storage.Store
	logger  *zap.Logger
	now     func() time.Time
}

// NewProcessor constructs a worker processor.
func NewProcessor(docs DocumentFetcher, results storage.Store, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{docs: docs, results: results, logger: logger, now: time.Now}
}

// Handler registers the watch job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.WatchDocumentTask, p.HandleWatch)
	return mux
}

// HandleWatch succeeds once the document is PROCESSED. Until then it returns
// ErrStillProcessing so asynq schedules a retry. Deleted documents are not
// retried.
func (p *Processor) HandleWatch(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.ParseWatchPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	log := p.logger.With(zap.Int64("document_id", payload.DocumentID))

	doc, err := p.docs.RefreshDocument(ctx, payload.DocumentID)
	if err != nil {
		if httpclient.StatusCode(err) == http.StatusNotFound {
			log.Info("watched document no longer exists")
			return fmt.Errorf("fetch document %d: %v: %w", payload.DocumentID, err, asynq.SkipRetry)
		}
		return fmt.Errorf("fetch document %d: %w", payload.DocumentID, err)
	}
	if !doc.Processed() {
		log.Debug("document not processed yet", zap.String("status", string(doc.Status)))
		return ErrStillProcessing
	}

	name := doc.DocumentName
	if name == "" {
		name = payload.Name
	}
	res := WatchResult{
		DocumentID: doc.ID,
		Name:       name,
		Status:     doc.Status,
		Summary:    doc.Summary,
		FinishedAt: p.now().UTC(),
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode watch result: %w", err)
	}
	if err := p.results.Set(ctx, ResultKey(doc.ID), string(data)); err != nil {
		return fmt.Errorf("store watch result: %w", err)
	}
	log.Info("document processed", zap.String("name", name), zap.Int("summary_len", len(doc.Summary)))
	return nil
}

// RetryDelay paces retries of ErrStillProcessing at interval and backs off
// exponentially for other failures.
func RetryDelay(interval time.Duration) asynq.RetryDelayFunc {
	return func(n int, err error, task *asynq.Task) time.Duration {
		if errors.Is(err, ErrStillProcessing) {
			return interval
		}
		return asynq.DefaultRetryDelayFunc(n, err, task)
	}
}
