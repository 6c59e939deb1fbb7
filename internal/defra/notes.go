package defra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/marginalia/internal/store"
)

// BookNoteCollection holds one document per synced book.
const BookNoteCollection = "BookNote"

// NoteStore keeps book pages in the BookNote collection. It implements
// store.Writer.
type NoteStore struct {
	client *Client
	logger *slog.Logger
}

var _ store.Writer = (*NoteStore)(nil)

// NewNoteStore creates a NoteStore.
func NewNoteStore(client *Client, logger *slog.Logger) *NoteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteStore{client: client, logger: logger}
}

// Query returns BookNote records matching the filter.
func (s *NoteStore) Query(ctx context.Context, filter store.Filter) ([]store.Record, error) {
	q := NewQuery(BookNoteCollection).Fields("_docID", "book_id", "sort")
	if filter.BookID != "" {
		q.Filter("book_id", filter.BookID)
	}
	if filter.SortDesc {
		q.OrderBy("sort", DESC)
	}
	if filter.Limit > 0 {
		q.Limit(filter.Limit)
	}

	docs, err := q.Execute(ctx, s.client)
	if err != nil {
		return nil, err
	}

	records := make([]store.Record, 0, len(docs))
	for _, doc := range docs {
		r := store.Record{}
		r.ID, _ = doc["_docID"].(string)
		r.BookID, _ = doc["book_id"].(string)
		if n, ok := doc["sort"].(float64); ok {
			r.Sort = int64(n)
		}
		records = append(records, r)
	}
	return records, nil
}

// Delete removes a BookNote.
func (s *NoteStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, BookNoteCollection, id); err != nil {
		return fmt.Errorf("%w: delete %s: %w", store.ErrTargetWrite, id, err)
	}
	return nil
}

// Create writes a BookNote. The document tree is stored as JSON in content,
// so a book is written in a single mutation.
func (s *NoteStore) Create(ctx context.Context, page store.Page) (string, error) {
	content, err := json.Marshal(page.Tree)
	if err != nil {
		return "", fmt.Errorf("%w: encode content: %w", store.ErrTargetWrite, err)
	}

	p := page.Properties
	doc := map[string]any{
		"book_id":         p.BookID,
		"title":           p.Title,
		"isbn":            p.ISBN,
		"url":             p.URL,
		"authors":         p.Authors,
		"sort":            p.Sort,
		"rating":          p.Rating,
		"cover":           p.Cover,
		"status":          p.Status,
		"reading_time":    p.ReadingTime,
		"reading_seconds": p.ReadingSeconds,
		"progress":        p.Progress,
		"synced_at":       p.SyncedAt,
		"item_count":      page.Tree.ItemCount(),
		"content":         string(content),
	}
	if p.Authors == nil {
		doc["authors"] = []string{}
	}
	if p.FinishedDate != nil {
		doc["finished_date"] = p.FinishedDate.UTC().Format(time.RFC3339)
	}

	id, err := s.client.Create(ctx, BookNoteCollection, doc)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %w", store.ErrTargetWrite, p.BookID, err)
	}
	s.logger.Debug("created book note", "doc_id", id, "book_id", p.BookID)
	return id, nil
}
