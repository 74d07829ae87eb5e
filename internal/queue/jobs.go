// Package queue defines the background tasks the CLI hands to cmd/worker.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// WatchDocumentTask is scheduled after an upload so the worker reports
	// when the server finished summarizing the document.
	WatchDocumentTask = "document:watch"
)

// WatchPayload is serialized into the task payload so the worker knows which
// document to follow.
type WatchPayload struct {
	DocumentID int64  `json:"document_id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
}

// NewWatchTask builds the task without enqueueing it.
func NewWatchTask(payload WatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(WatchDocumentTask, data), nil
}

// ParseWatchPayload decodes a task payload.
func ParseWatchPayload(task *asynq.Task) (WatchPayload, error) {
	var payload WatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return WatchPayload{}, fmt.Errorf("decode payload: %w", err)
	}
	if payload.DocumentID <= 0 {
		return WatchPayload{}, fmt.Errorf("decode payload: missing document id")
	}
	return payload, nil
}

// EnqueueWatch enqueues a document watch job and returns its task id.
func EnqueueWatch(ctx context.Context, client *asynq.Client, payload WatchPayload, maxRetry int) (string, error) {
	task, err := NewWatchTask(payload)
	if err != nil {
		return "", err
	}
	info, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(maxRetry), asynq.TaskID(uuid.NewString()))
	if err != nil {
		return "", fmt.Errorf("enqueue watch task: %w", err)
	}
	return info.ID, nil
}
