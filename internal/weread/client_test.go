package weread

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// fakeService serves the landing page and API paths from one test server.
type fakeService struct {
	touches atomic.Int32
	routes  map[string]http.HandlerFunc
}

func newFakeService(t *testing.T, routes map[string]http.HandlerFunc) (*fakeService, *Client) {
	t.Helper()

	svc := &fakeService{routes: routes}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			svc.touches.Add(1)
			w.WriteHeader(http.StatusOK)
			return
		}
		if cookie, err := r.Cookie("wr_skey"); err != nil || cookie.Value == "" {
			t.Errorf("request to %s missing session cookie", r.URL.Path)
		}
		h, ok := svc.routes[r.URL.Path]
		if !ok {
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		Cookie:     "wr_vid=1; wr_skey=secret",
		WebURL:     server.URL,
		APIURL:     server.URL,
		RetryDelay: time.Millisecond,
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return svc, client
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestClient_ListBooks(t *testing.T) {
	svc, client := newFakeService(t, map[string]http.HandlerFunc{
		pathNotebooks: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"books": [
				{"bookId": "b10", "sort": 10, "book": {"title": "Later", "author": "A, B", "cover": "https://img/s_x.jpg"}},
				{"bookId": "b5", "sort": 5, "book": {"title": "Earlier", "author": "C"}}
			]}`))
		},
	})

	books, err := client.ListBooks(context.Background())
	if err != nil {
		t.Fatalf("ListBooks() error = %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(books))
	}
	if books[0].BookID != "b5" || books[1].BookID != "b10" {
		t.Errorf("expected ascending sort order, got %s, %s", books[0].BookID, books[1].BookID)
	}
	if got := books[1].Authors; len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("unexpected authors: %v", got)
	}
	if books[1].Cover != "https://img/t7_x.jpg" {
		t.Errorf("expected large cover, got %s", books[1].Cover)
	}
	if svc.touches.Load() != 1 {
		t.Errorf("expected one keep-alive touch, got %d", svc.touches.Load())
	}
}

func TestClient_ListBooks_Empty(t *testing.T) {
	_, client := newFakeService(t, map[string]http.HandlerFunc{
		pathNotebooks: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"books": []}`))
		},
	})

	books, err := client.ListBooks(context.Background())
	if err != nil {
		t.Fatalf("ListBooks() error = %v", err)
	}
	if books == nil || len(books) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", books)
	}
}

func TestClient_ListBooks_MixedEntries(t *testing.T) {
	_, client := newFakeService(t, map[string]http.HandlerFunc{
		pathNotebooks: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"books": [
				{"bookId": "b1", "sort": 1, "book": {"title": "Top level id"}},
				{"sort": 2, "book": {"bookId": "b2", "title": "Nested id only"}},
				{"sort": 3, "book": {"title": "No id at all"}}
			]}`))
		},
	})

	books, err := client.ListBooks(context.Background())
	if err != nil {
		t.Fatalf("ListBooks() error = %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d: %+v", len(books), books)
	}
	if books[0].BookID != "b1" || books[1].BookID != "b2" {
		t.Errorf("unexpected ids: %s, %s", books[0].BookID, books[1].BookID)
	}
	if books[1].Title != "Nested id only" {
		t.Errorf("unexpected title %q", books[1].Title)
	}
}

func TestClient_ListBooks_LoginPage(t *testing.T) {
	var calls atomic.Int32
	svc, client := newFakeService(t, map[string]http.HandlerFunc{
		pathNotebooks: func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<!DOCTYPE html><html><body>login</body></html>`))
		},
	})

	books, err := client.ListBooks(context.Background())
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got books=%v err=%v", books, err)
	}
	if !errors.Is(err, ErrNotJSON) {
		t.Errorf("expected ErrNotJSON in chain, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
	// One keep-alive per attempt plus a refresh before each retry.
	if svc.touches.Load() != 5 {
		t.Errorf("expected 5 landing touches, got %d", svc.touches.Load())
	}
}

func TestClient_ExpiryThenSuccess(t *testing.T) {
	var calls atomic.Int32
	svc, client := newFakeService(t, map[string]http.HandlerFunc{
		pathNotebooks: func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) <= 2 {
				w.Write([]byte(`{"errCode": -2012, "errMsg": "登录超时"}`))
				return
			}
			w.Write([]byte(`{"books": [{"bookId": "b1", "sort": 1, "book": {"title": "T"}}]}`))
		},
	})

	books, err := client.ListBooks(context.Background())
	if err != nil {
		t.Fatalf("ListBooks() error = %v", err)
	}
	if len(books) != 1 {
		t.Errorf("expected 1 book, got %d", len(books))
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 API calls, got %d", calls.Load())
	}
	// One keep-alive per attempt plus one refresh per retry.
	if svc.touches.Load() != 5 {
		t.Errorf("expected 5 landing touches, got %d", svc.touches.Load())
	}
}

func TestClient_ExpiryExhausted(t *testing.T) {
	_, client := newFakeService(t, map[string]http.HandlerFunc{
		pathNotebooks: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"errCode": -2012, "errMsg": "登录超时"}`))
		},
	})

	_, err := client.ListBooks(context.Background())
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Errorf("expected ErrRemoteUnavailable, got %v", err)
	}
}

func TestClient_Bookmarks(t *testing.T) {
	_, client := newFakeService(t, map[string]http.HandlerFunc{
		pathBookmarkList: func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("bookId"); got != "b1" {
				t.Errorf("unexpected bookId %q", got)
			}
			w.Write([]byte(`{"updated": [
				{"bookmarkId": "m3", "chapterUid": 2, "range": "5-10", "markText": "b2"},
				{"bookmarkId": "m2", "chapterUid": 1, "range": "40-50", "markText": "late"},
				{"bookmarkId": "m1", "chapterUid": 1, "range": "0-3", "markText": "b1"},
				{"bookmarkId": "m0", "range": "7-8", "markText": "no chapter"}
			]}`))
		},
	})

	marks, err := client.Bookmarks(context.Background(), "b1")
	if err != nil {
		t.Fatalf("Bookmarks() error = %v", err)
	}
	want := []string{"m1", "m0", "m2", "m3"}
	if len(marks) != len(want) {
		t.Fatalf("expected %d bookmarks, got %d", len(want), len(marks))
	}
	for i, id := range want {
		if marks[i].BookmarkID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, marks[i].BookmarkID)
		}
	}
	if marks[1].ChapterUID != 1 {
		t.Errorf("missing chapterUid should default to 1, got %d", marks[1].ChapterUID)
	}
}

func TestClient_Bookmarks_NoData(t *testing.T) {
	_, client := newFakeService(t, map[string]http.HandlerFunc{
		pathBookmarkList: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"synckey": 0}`))
		},
	})

	marks, err := client.Bookmarks(context.Background(), "b1")
	if err != nil {
		t.Fatalf("Bookmarks() error = %v", err)
	}
	if len(marks) != 0 {
		t.Errorf("expected no bookmarks, got %d", len(marks))
	}
}

func TestClient_Bookmarks_InvalidBookID(t *testing.T) {
	_, client := newFakeService(t, nil)
	if _, err := client.Bookmarks(context.Background(), ""); !errors.Is(err, ErrInvalidBookID) {
		t.Errorf("expected ErrInvalidBookID, got %v", err)
	}
}

func TestClient_Reviews(t *testing.T) {
	_, client := newFakeService(t, map[string]http.HandlerFunc{
		pathReviewList: func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("listType") != "11" || q.Get("mine") != "1" {
				t.Errorf("unexpected query: %s", r.URL.RawQuery)
			}
			w.Write([]byte(`{"reviews": [
				{"review": {"reviewId": "r1", "type": 1, "chapterUid": 3, "content": "note", "abstract": "quoted", "range": "4-9"}},
				{"review": {"reviewId": "r2", "type": 4, "content": "S"}},
				{"review": {"reviewId": "r3", "type": 1, "content": "loose"}}
			]}`))
		},
	})

	summaries, annotations, err := client.Reviews(context.Background(), "b1")
	if err != nil {
		t.Fatalf("Reviews() error = %v", err)
	}
	if len(summaries) != 1 || summaries[0].Content != "S" {
		t.Errorf("unexpected summaries: %+v", summaries)
	}
	if len(annotations) != 2 || annotations[0].ReviewID != "r1" || annotations[1].ReviewID != "r3" {
		t.Fatalf("unexpected annotations: %+v", annotations)
	}
	if annotations[0].ChapterUID == nil || *annotations[0].ChapterUID != 3 {
		t.Errorf("expected chapterUid 3, got %v", annotations[0].ChapterUID)
	}
	if annotations[1].ChapterUID != nil {
		t.Errorf("expected nil chapterUid, got %v", *annotations[1].ChapterUID)
	}
}

func TestClient_Reviews_Malformed(t *testing.T) {
	_, client := newFakeService(t, map[string]http.HandlerFunc{
		pathReviewList: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"totalCount": 0}`))
		},
	})

	summaries, annotations, err := client.Reviews(context.Background(), "b1")
	if err != nil {
		t.Fatalf("malformed reviews must not fail the book: %v", err)
	}
	if len(summaries) != 0 || len(annotations) != 0 {
		t.Errorf("expected empty reviews, got %d/%d", len(summaries), len(annotations))
	}
}

func TestClient_Chapters(t *testing.T) {
	_, client := newFakeService(t, map[string]http.HandlerFunc{
		pathChapterInfos: func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			var req chapterInfosRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("failed to decode body: %v", err)
			}
			if len(req.BookIDs) != 1 || req.BookIDs[0] != "b1" {
				t.Errorf("unexpected bookIds: %v", req.BookIDs)
			}
			w.Write([]byte(`{"data": [{"bookId": "b1", "updated": [
				{"chapterUid": 1, "chapterIdx": 1, "title": "Ch1", "level": 1},
				{"chapterUid": 2, "chapterIdx": 2, "title": "Ch2", "level": 2}
			]}]}`))
		},
	})

	chapters, err := client.Chapters(context.Background(), "b1")
	if err != nil {
		t.Fatalf("Chapters() error = %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(chapters))
	}
	if chapters[2].Title != "Ch2" || chapters[2].Level != 2 || chapters[2].Sort != 2 {
		t.Errorf("unexpected chapter: %+v", chapters[2])
	}
}

func TestClient_BookInfo(t *testing.T) {
	t.Run("normalizes rating", func(t *testing.T) {
		_, client := newFakeService(t, map[string]http.HandlerFunc{
			pathBookInfo: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, map[string]any{"isbn": "9787000000000", "newRating": 852})
			},
		})

		isbn, rating := client.BookInfo(context.Background(), "b1")
		if isbn != "9787000000000" {
			t.Errorf("unexpected isbn %q", isbn)
		}
		if rating != 0.852 {
			t.Errorf("expected rating 0.852, got %v", rating)
		}
	})

	t.Run("failure yields defaults", func(t *testing.T) {
		_, client := newFakeService(t, map[string]http.HandlerFunc{
			pathBookInfo: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
		})

		isbn, rating := client.BookInfo(context.Background(), "b1")
		if isbn != "" || rating != 0 {
			t.Errorf("expected (\"\", 0), got (%q, %v)", isbn, rating)
		}
	})
}

func TestClient_ReadInfo(t *testing.T) {
	_, client := newFakeService(t, map[string]http.HandlerFunc{
		pathReadInfo: func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("finishedDate") != "1" {
				t.Errorf("expected finishedDate=1 in query")
			}
			writeJSON(w, map[string]any{
				"markedStatus":    4,
				"readingTime":     7260,
				"readingProgress": 100,
				"finishedDate":    1700000000,
			})
		},
	})

	info, err := client.ReadInfo(context.Background(), "b1")
	if err != nil {
		t.Fatalf("ReadInfo() error = %v", err)
	}
	if !info.Finished() {
		t.Error("expected finished status")
	}
	if info.FinishedDate == nil || info.FinishedDate.Unix() != 1700000000 {
		t.Errorf("unexpected finished date: %v", info.FinishedDate)
	}
	if info.ReadingTime != 7260 || info.ReadingProgress != 100 {
		t.Errorf("unexpected read info: %+v", info)
	}
}
