// Package history keeps an audit trail of sync outcomes in DefraDB.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackzampolin/marginalia/internal/booksync"
	"github.com/jackzampolin/marginalia/internal/defra"
)

// Collection is the DefraDB collection events are stored in.
const Collection = "SyncEvent"

// Event is one stored per-book outcome.
type Event struct {
	DocID     string    `json:"doc_id" yaml:"doc_id"`
	RunID     string    `json:"run_id" yaml:"run_id"`
	BookID    string    `json:"book_id" yaml:"book_id"`
	Title     string    `json:"title" yaml:"title"`
	Sort      int64     `json:"sort" yaml:"sort"`
	Outcome   string    `json:"outcome" yaml:"outcome"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	Items     int       `json:"items" yaml:"items"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Recorder sends sync results to the SyncEvent collection through a sink.
// It implements booksync.Recorder.
type Recorder struct {
	sink *defra.Sink
	now  func() time.Time
}

var _ booksync.Recorder = (*Recorder)(nil)

// NewRecorder creates a Recorder writing through sink. The caller owns the
// sink's lifecycle.
func NewRecorder(sink *defra.Sink) *Recorder {
	return &Recorder{sink: sink, now: time.Now}
}

// Record queues an event without waiting for it to be written.
func (r *Recorder) Record(runID string, result booksync.Result) {
	doc := map[string]any{
		"run_id":     runID,
		"book_id":    result.Book.BookID,
		"title":      result.Book.Title,
		"sort":       result.Book.Sort,
		"outcome":    string(result.Outcome),
		"items":      result.Items,
		"created_at": r.now().UTC(),
	}
	if result.Err != nil {
		doc["error"] = result.Err.Error()
	}
	r.sink.Send(defra.WriteOp{Collection: Collection, Document: doc})
}

// Flush waits until every queued event has been written.
func (r *Recorder) Flush(ctx context.Context) error {
	return r.sink.Flush(ctx)
}

// ListOptions narrows List.
type ListOptions struct {
	RunID string
	// Since keeps only events created after this instant.
	Since time.Time
	Limit int
}

// List returns stored events, newest first.
func List(ctx context.Context, client *defra.Client, opts ListOptions) ([]Event, error) {
	q := defra.NewQuery(Collection).
		Fields("_docID", "run_id", "book_id", "title", "sort", "outcome", "error", "items", "created_at").
		OrderBy("created_at", defra.DESC)
	if opts.RunID != "" {
		q.Filter("run_id", opts.RunID)
	}
	if !opts.Since.IsZero() {
		q.FilterGT("created_at", opts.Since.UTC())
	}
	if opts.Limit > 0 {
		q.Limit(opts.Limit)
	}

	docs, err := q.Execute(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("list sync events: %w", err)
	}

	events := make([]Event, 0, len(docs))
	for _, doc := range docs {
		e := Event{}
		e.DocID, _ = doc["_docID"].(string)
		e.RunID, _ = doc["run_id"].(string)
		e.BookID, _ = doc["book_id"].(string)
		e.Title, _ = doc["title"].(string)
		e.Outcome, _ = doc["outcome"].(string)
		e.Error, _ = doc["error"].(string)
		if n, ok := doc["sort"].(float64); ok {
			e.Sort = int64(n)
		}
		if n, ok := doc["items"].(float64); ok {
			e.Items = int(n)
		}
		if s, ok := doc["created_at"].(string); ok {
			e.CreatedAt, _ = time.Parse(time.RFC3339, s)
		}
		events = append(events, e)
	}
	return events, nil
}
