// Package processing follows documents while the server summarizes them.
// Uploads return immediately with an UNPROCESSED document; the poller keeps
// refreshing the selected category until every document is PROCESSED.
package processing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/picktoss/internal/category"
	"github.com/dharsanguruparan/picktoss/internal/model"
)

// DocumentSource reads a category's documents bypassing any cache.
type DocumentSource interface {
	RefreshDocuments(ctx context.Context, categoryID int64) ([]model.Document, error)
}

// maxConsecutiveFailures stops a poll that can no longer reach the server.
const maxConsecutiveFailures = 3

// Poller refreshes the selected category's documents on an interval.
type Poller struct {
	docs     DocumentSource
	store    *category.Store
	interval time.Duration
	logger   *zap.Logger
}

// NewPoller builds a Poller. A non-positive interval falls back to 3s.
func NewPoller(docs DocumentSource, store *category.Store, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{docs: docs, store: store, interval: interval, logger: logger}
}

// Run polls until no document of the selected category is UNPROCESSED, the
// selection is cleared, or ctx ends. onUpdate receives every snapshot.
// The selection is re-read on every tick so a switch of category is followed.
func (p *Poller) Run(ctx context.Context, onUpdate func(categoryID int64, docs []model.Document)) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failures := 0
	for {
		selected := p.store.Selected()
		if selected == nil {
			return nil
		}
		docs, err := p.docs.RefreshDocuments(ctx, selected.ID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			p.logger.Warn("poll documents failed",
				zap.Int64("category_id", selected.ID),
				zap.Int("attempt", failures),
				zap.Error(err))
			if failures >= maxConsecutiveFailures {
				return fmt.Errorf("poll documents of category %d: %w", selected.ID, err)
			}
		default:
			failures = 0
			if onUpdate != nil {
				onUpdate(selected.ID, docs)
			}
			if !model.HasUnprocessed(docs) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			// The ticker is only a pacing signal; cancellation from the CLI's
			// signal handler ends the loop.
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
