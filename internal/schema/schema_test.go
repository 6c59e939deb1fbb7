package schema

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jackzampolin/marginalia/internal/defra"
)

func TestAll(t *testing.T) {
	schemas, err := All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(schemas) != 2 {
		t.Fatalf("got %d schemas, want 2", len(schemas))
	}
	for _, s := range schemas {
		if !strings.Contains(s.SDL, "type "+s.Name+" {") {
			t.Errorf("%s SDL does not define type %s", s.Name, s.Name)
		}
	}
	if schemas[0].Name != defra.BookNoteCollection {
		t.Errorf("first schema = %s, want %s", schemas[0].Name, defra.BookNoteCollection)
	}
}

func TestGet(t *testing.T) {
	t.Run("existing schema", func(t *testing.T) {
		s, err := Get("SyncEvent")
		if err != nil {
			t.Fatalf("Get(SyncEvent) error = %v", err)
		}
		if !strings.Contains(s.SDL, "run_id") {
			t.Error("SyncEvent SDL missing run_id")
		}
	})

	t.Run("non-existent schema", func(t *testing.T) {
		if _, err := Get("NonExistent"); err == nil {
			t.Error("expected error for non-existent schema")
		}
	})
}

func TestBookNoteFields(t *testing.T) {
	s, err := Get(defra.BookNoteCollection)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"book_id", "sort", "content", "item_count", "finished_date"} {
		if !strings.Contains(s.SDL, field+":") {
			t.Errorf("BookNote SDL missing %s", field)
		}
	}
}

func TestInitialize(t *testing.T) {
	t.Run("applies every schema", func(t *testing.T) {
		var mu sync.Mutex
		var applied []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v0/schema" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			applied = append(applied, string(body))
			mu.Unlock()
		}))
		defer server.Close()

		if err := Initialize(context.Background(), defra.NewClient(server.URL), nil); err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}
		if len(applied) != 2 || !strings.Contains(applied[0], "type BookNote") {
			t.Errorf("applied = %d schemas", len(applied))
		}
	})

	t.Run("tolerates existing collections", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("collection already exists. Name: BookNote"))
		}))
		defer server.Close()

		if err := Initialize(context.Background(), defra.NewClient(server.URL), nil); err != nil {
			t.Errorf("Initialize() should tolerate existing collections, got %v", err)
		}
	})

	t.Run("fails on other errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("invalid schema syntax"))
		}))
		defer server.Close()

		if err := Initialize(context.Background(), defra.NewClient(server.URL), nil); err == nil {
			t.Error("Initialize() should fail on syntax error")
		}
	})
}
