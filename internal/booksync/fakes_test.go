package booksync

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackzampolin/marginalia/internal/store"
	"github.com/jackzampolin/marginalia/internal/types"
)

// fakeRemote serves canned data and records which books were fetched.
type fakeRemote struct {
	mu        sync.Mutex
	books     []types.Book
	listErr   error
	bookmarks map[string][]types.Bookmark
	chapters  map[string]map[int]types.Chapter
	reviews   map[string][]types.Review
	failOn    map[string]error // Bookmarks error per book
	readInfo  *types.ReadInfo
	fetched   map[string]int
}

func newFakeRemote(books ...types.Book) *fakeRemote {
	return &fakeRemote{
		books:     books,
		bookmarks: make(map[string][]types.Bookmark),
		chapters:  make(map[string]map[int]types.Chapter),
		reviews:   make(map[string][]types.Review),
		failOn:    make(map[string]error),
		fetched:   make(map[string]int),
	}
}

func (f *fakeRemote) ListBooks(ctx context.Context) ([]types.Book, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]types.Book(nil), f.books...), nil
}

func (f *fakeRemote) Bookmarks(ctx context.Context, bookID string) ([]types.Bookmark, error) {
	f.mu.Lock()
	f.fetched[bookID]++
	f.mu.Unlock()
	if err := f.failOn[bookID]; err != nil {
		return nil, err
	}
	return f.bookmarks[bookID], nil
}

func (f *fakeRemote) Reviews(ctx context.Context, bookID string) ([]types.Review, []types.Review, error) {
	var summaries, annotations []types.Review
	for _, r := range f.reviews[bookID] {
		if r.IsSummary() {
			summaries = append(summaries, r)
		} else {
			annotations = append(annotations, r)
		}
	}
	return summaries, annotations, nil
}

func (f *fakeRemote) Chapters(ctx context.Context, bookID string) (map[int]types.Chapter, error) {
	return f.chapters[bookID], nil
}

func (f *fakeRemote) BookInfo(ctx context.Context, bookID string) (string, float64) {
	return "isbn-" + bookID, 0.8
}

func (f *fakeRemote) ReadInfo(ctx context.Context, bookID string) (*types.ReadInfo, error) {
	return f.readInfo, nil
}

func (f *fakeRemote) fetchCount(bookID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetched[bookID]
}

// memStore is an in-memory store.Writer.
type memStore struct {
	mu        sync.Mutex
	next      int
	pages     map[string]store.Page
	queryErr  error
	createErr map[string]error
	creates   int
	deletes   int
}

func newMemStore() *memStore {
	return &memStore{pages: make(map[string]store.Page), createErr: make(map[string]error)}
}

func (m *memStore) Query(ctx context.Context, filter store.Filter) ([]store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var out []store.Record
	for id, p := range m.pages {
		if filter.BookID != "" && p.Properties.BookID != filter.BookID {
			continue
		}
		out = append(out, store.Record{ID: id, BookID: p.Properties.BookID, Sort: p.Properties.Sort})
	}
	if filter.SortDesc {
		for i := 1; i < len(out); i++ {
			for j := i; j > 0 && out[j].Sort > out[j-1].Sort; j-- {
				out[j], out[j-1] = out[j-1], out[j]
			}
		}
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pages[id]; !ok {
		return fmt.Errorf("%w: no record %s", store.ErrTargetWrite, id)
	}
	delete(m.pages, id)
	m.deletes++
	return nil
}

func (m *memStore) Create(ctx context.Context, page store.Page) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.createErr[page.Properties.BookID]; err != nil {
		return "", err
	}
	m.next++
	id := fmt.Sprintf("rec-%d", m.next)
	m.pages[id] = page
	m.creates++
	return id, nil
}

// put seeds a record directly.
func (m *memStore) put(bookID string, sort int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.pages[fmt.Sprintf("rec-%d", m.next)] = store.Page{Properties: store.BookProperties{BookID: bookID, Sort: sort}}
}

func (m *memStore) recordsFor(bookID string) []store.Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Page
	for _, p := range m.pages {
		if p.Properties.BookID == bookID {
			out = append(out, p)
		}
	}
	return out
}

// recorder collects results.
type recorder struct {
	mu      sync.Mutex
	runIDs  map[string]bool
	results []Result
}

func (r *recorder) Record(runID string, result Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runIDs == nil {
		r.runIDs = make(map[string]bool)
	}
	r.runIDs[runID] = true
	r.results = append(r.results, result)
}
