// Package store defines the document-writer capability the sync engine
// writes book pages through, and the per-book properties every backend stores.
package store

import (
	"context"
	"errors"

	"github.com/jackzampolin/marginalia/internal/document"
)

// ErrTargetWrite is returned when the target store rejects a create or delete.
var ErrTargetWrite = errors.New("target write failed")

// Record is an existing book record in the target store.
type Record struct {
	ID     string
	BookID string
	Sort   int64
}

// Filter selects records. A zero Filter matches every record.
type Filter struct {
	// BookID matches records for one book when set.
	BookID string
	// SortDesc orders results by sort descending.
	SortDesc bool
	// Limit caps the number of results when positive.
	Limit int
}

// Page is one book's record: its properties and document tree.
type Page struct {
	Properties BookProperties
	Tree       document.Tree
}

// Writer is a knowledge-base store that holds one record per book.
type Writer interface {
	// Query returns the records matching the filter.
	Query(ctx context.Context, filter Filter) ([]Record, error)
	// Delete removes a record.
	Delete(ctx context.Context, id string) error
	// Create writes a new record and returns its id. A failed Create leaves
	// no record behind.
	Create(ctx context.Context, page Page) (string, error)
}
