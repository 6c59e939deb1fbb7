package booksync

import (
	"context"
	"fmt"

	"github.com/jackzampolin/marginalia/internal/store"
	"github.com/jackzampolin/marginalia/internal/types"
)

// LoadCursor returns the highest sort value recorded in the store, or zero
// when the store holds no books.
func LoadCursor(ctx context.Context, w store.Writer) (int64, error) {
	records, err := w.Query(ctx, store.Filter{SortDesc: true, Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("load cursor: %w", err)
	}
	var cursor int64
	for _, r := range records {
		cursor = max(cursor, r.Sort)
	}
	return cursor, nil
}

// Pending returns the books whose sort is past the cursor, in input order.
func Pending(books []types.Book, cursor int64) []types.Book {
	var pending []types.Book
	for _, b := range books {
		if b.Sort > cursor {
			pending = append(pending, b)
		}
	}
	return pending
}

// ReplaceExisting deletes every record stored for bookID and returns how many
// were removed. The delete and the following create are not atomic; a crash
// in between leaves the book absent until the next run writes it again.
func ReplaceExisting(ctx context.Context, w store.Writer, bookID string) (int, error) {
	records, err := w.Query(ctx, store.Filter{BookID: bookID})
	if err != nil {
		return 0, fmt.Errorf("find existing records: %w", err)
	}
	for i, r := range records {
		if err := w.Delete(ctx, r.ID); err != nil {
			return i, err
		}
	}
	return len(records), nil
}
