package booksync

import (
	"context"
	"errors"
	"testing"

	"github.com/jackzampolin/marginalia/internal/types"
)

func TestPending(t *testing.T) {
	books := []types.Book{{BookID: "a", Sort: 5}, {BookID: "b", Sort: 10}}
	got := Pending(books, 5)
	if len(got) != 1 || got[0].Sort != 10 {
		t.Errorf("Pending = %+v, want only sort 10", got)
	}
	if got := Pending(books, 0); len(got) != 2 {
		t.Errorf("Pending(0) = %d books, want 2", len(got))
	}
	if got := Pending(books, 10); len(got) != 0 {
		t.Errorf("Pending(10) = %d books, want 0", len(got))
	}
}

func TestLoadCursor(t *testing.T) {
	ctx := context.Background()

	m := newMemStore()
	cursor, err := LoadCursor(ctx, m)
	if err != nil || cursor != 0 {
		t.Fatalf("empty store cursor = %d, %v", cursor, err)
	}

	m.put("a", 7)
	m.put("b", 42)
	m.put("c", 13)
	cursor, err = LoadCursor(ctx, m)
	if err != nil {
		t.Fatalf("LoadCursor: %v", err)
	}
	if cursor != 42 {
		t.Errorf("cursor = %d, want 42", cursor)
	}

	m.queryErr = errors.New("down")
	if _, err := LoadCursor(ctx, m); err == nil {
		t.Error("expected error when the store is unreachable")
	}
}

func TestReplaceExisting(t *testing.T) {
	ctx := context.Background()
	m := newMemStore()
	m.put("a", 1)
	m.put("a", 1)
	m.put("b", 2)

	n, err := ReplaceExisting(ctx, m, "a")
	if err != nil {
		t.Fatalf("ReplaceExisting: %v", err)
	}
	if n != 2 {
		t.Errorf("replaced = %d, want 2", n)
	}
	if len(m.recordsFor("a")) != 0 || len(m.recordsFor("b")) != 1 {
		t.Error("wrong records deleted")
	}

	if n, err := ReplaceExisting(ctx, m, "missing"); err != nil || n != 0 {
		t.Errorf("missing book = %d, %v", n, err)
	}
}
