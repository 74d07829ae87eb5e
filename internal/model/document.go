package model

import (
	"time"
)

// DocumentStatus describes the server-side processing lifecycle. The client
// only ever reads it; summaries and questions are produced asynchronously.
type DocumentStatus string

const (
	StatusUnprocessed DocumentStatus = "UNPROCESSED"
	StatusProcessed   DocumentStatus = "PROCESSED"
)

// DocumentFormat is sent with every upload. Only Markdown is accepted.
type DocumentFormat string

const FormatMarkdown DocumentFormat = "MARKDOWN"

// Document is the projection returned by the document endpoints. Summary is
// only populated once Status is PROCESSED.
type Document struct {
	ID           int64          `json:"id"`
	DocumentName string         `json:"documentName"`
	Status       DocumentStatus `json:"status"`
	Format       DocumentFormat `json:"format,omitempty"`
	Summary      string         `json:"summary,omitempty"`
	Category     *Category      `json:"category,omitempty"`
	Content      string         `json:"content,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	Questions    []Question     `json:"questions,omitempty"`
}

// Processed reports whether the server finished summarizing the document.
func (d Document) Processed() bool {
	return d.Status == StatusProcessed
}

// CreatedDocument is the body returned by POST /documents.
type CreatedDocument struct {
	ID int64 `json:"id"`
}

// HasUnprocessed reports whether any document is still waiting on the server.
func HasUnprocessed(docs []Document) bool {
	for _, d := range docs {
		if d.Status == StatusUnprocessed {
			return true
		}
	}
	return false
}
