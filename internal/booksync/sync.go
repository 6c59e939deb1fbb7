// Package booksync drives the incremental sync from the reading service into
// the target store.
package booksync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jackzampolin/marginalia/internal/document"
	"github.com/jackzampolin/marginalia/internal/store"
	"github.com/jackzampolin/marginalia/internal/types"
	"github.com/jackzampolin/marginalia/internal/weread"
)

// ErrBooksFailed is returned when a run finished but some books failed.
var ErrBooksFailed = errors.New("some books failed to sync")

// Remote is the reading service as seen by the sync engine.
type Remote interface {
	ListBooks(ctx context.Context) ([]types.Book, error)
	Bookmarks(ctx context.Context, bookID string) ([]types.Bookmark, error)
	Reviews(ctx context.Context, bookID string) (summaries, annotations []types.Review, err error)
	Chapters(ctx context.Context, bookID string) (map[int]types.Chapter, error)
	BookInfo(ctx context.Context, bookID string) (isbn string, rating float64)
	ReadInfo(ctx context.Context, bookID string) (*types.ReadInfo, error)
}

// Recorder receives every per-book result of a run.
type Recorder interface {
	Record(runID string, result Result)
}

// Outcome is what happened to one book.
type Outcome string

const (
	OutcomeSynced  Outcome = "synced"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
	// OutcomePlanned marks books a dry run would have written.
	OutcomePlanned Outcome = "planned"
)

// Result is the outcome for one book.
type Result struct {
	Book     types.Book
	Outcome  Outcome
	Err      error
	Items    int    // Leaf items in the assembled document
	RecordID string // Target record written
	Replaced int    // Existing records deleted first
	Duration time.Duration
}

// Summary describes a finished run.
type Summary struct {
	RunID    string
	Cursor   int64
	DryRun   bool
	Total    int
	Synced   int
	Skipped  int
	Failed   int
	Planned  int
	Results  []Result
	Started  time.Time
	Finished time.Time
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case OutcomeSynced:
		s.Synced++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	case OutcomePlanned:
		s.Planned++
	}
}

// Stranded lists failed books that sort below a book synced in the same
// run. The cursor moves past them, so incremental runs will not retry them.
func (s *Summary) Stranded() []string {
	var high int64
	for _, r := range s.Results {
		if r.Outcome == OutcomeSynced && r.Book.Sort > high {
			high = r.Book.Sort
		}
	}
	var ids []string
	for _, r := range s.Results {
		if r.Outcome == OutcomeFailed && r.Book.Sort < high {
			ids = append(ids, r.Book.BookID)
		}
	}
	return ids
}

// Config configures a Syncer.
type Config struct {
	Remote Remote
	Writer store.Writer

	// BookDelay is the minimum spacing between processed books.
	BookDelay time.Duration
	// Full ignores the cursor and rewrites every book.
	Full bool
	// DryRun fetches and assembles without touching the store.
	DryRun bool

	Recorder Recorder
	Logger   *slog.Logger

	// URL derives a book's canonical URL (default: weread.ReaderURL).
	URL func(bookID string) string
	Now func() time.Time
}

// Syncer runs sync passes. Books are processed one at a time.
type Syncer struct {
	remote   Remote
	writer   store.Writer
	pacer    *rate.Limiter
	full     bool
	dryRun   bool
	recorder Recorder
	logger   *slog.Logger
	url      func(string) string
	now      func() time.Time
}

// New creates a Syncer.
func New(cfg Config) (*Syncer, error) {
	if cfg.Remote == nil {
		return nil, fmt.Errorf("remote is required")
	}
	if cfg.Writer == nil {
		return nil, fmt.Errorf("writer is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.URL == nil {
		cfg.URL = weread.ReaderURL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var pacer *rate.Limiter
	if cfg.BookDelay > 0 {
		pacer = rate.NewLimiter(rate.Every(cfg.BookDelay), 1)
	}

	return &Syncer{
		remote:   cfg.Remote,
		writer:   cfg.Writer,
		pacer:    pacer,
		full:     cfg.Full,
		dryRun:   cfg.DryRun,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
		url:      cfg.URL,
		now:      cfg.Now,
	}, nil
}

// Run performs one sync pass. Failing to read the cursor or list books is
// fatal and returns a nil summary. Per-book failures are recorded and the
// pass continues; the returned error then wraps ErrBooksFailed.
func (s *Syncer) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:   uuid.NewString(),
		DryRun:  s.dryRun,
		Started: s.now(),
	}
	logger := s.logger.With("run_id", summary.RunID)

	if !s.full {
		cursor, err := LoadCursor(ctx, s.writer)
		if err != nil {
			return nil, err
		}
		summary.Cursor = cursor
	}

	books, err := s.remote.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	sort.SliceStable(books, func(i, j int) bool { return books[i].Sort < books[j].Sort })
	summary.Total = len(books)

	pending := len(Pending(books, summary.Cursor))
	logger.Info("sync started",
		"books", len(books),
		"pending", pending,
		"cursor", summary.Cursor,
		"full", s.full,
		"dry_run", s.dryRun)

	for _, book := range books {
		if ctx.Err() != nil {
			break
		}

		var result Result
		if book.Sort <= summary.Cursor {
			result = Result{Book: book, Outcome: OutcomeSkipped}
			logger.Debug("book skipped", "book_id", book.BookID, "sort", book.Sort)
		} else {
			if s.pacer != nil {
				if err := s.pacer.Wait(ctx); err != nil {
					break
				}
			}
			result = s.syncBook(ctx, book)
			s.logResult(logger, result)
		}

		summary.add(result)
		if s.recorder != nil {
			s.recorder.Record(summary.RunID, result)
		}
	}
	summary.Finished = s.now()

	logger.Info("sync finished",
		"synced", summary.Synced,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"planned", summary.Planned,
		"elapsed", summary.Finished.Sub(summary.Started).Round(time.Millisecond))
	if stranded := summary.Stranded(); len(stranded) > 0 {
		logger.Warn("failed books are behind the cursor and will not be retried; run `marginalia sync --full`",
			"book_ids", stranded)
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	if summary.Failed > 0 {
		return summary, fmt.Errorf("%w: %d of %d", ErrBooksFailed, summary.Failed, pending)
	}
	return summary, nil
}

// syncBook fetches, assembles and writes one book.
func (s *Syncer) syncBook(ctx context.Context, book types.Book) Result {
	start := s.now()
	result := Result{Book: book, Outcome: OutcomeFailed}
	fail := func(stage string, err error) Result {
		result.Err = fmt.Errorf("%s: %w", stage, err)
		result.Duration = s.now().Sub(start)
		return result
	}

	bookmarks, err := s.remote.Bookmarks(ctx, book.BookID)
	if err != nil {
		return fail("bookmarks", err)
	}
	summaries, annotations, err := s.remote.Reviews(ctx, book.BookID)
	if err != nil {
		return fail("reviews", err)
	}
	chapters, err := s.remote.Chapters(ctx, book.BookID)
	if err != nil {
		return fail("chapters", err)
	}
	book.ISBN, book.Rating = s.remote.BookInfo(ctx, book.BookID)
	readInfo, err := s.remote.ReadInfo(ctx, book.BookID)
	if err != nil {
		return fail("read info", err)
	}
	result.Book = book

	tree := document.Assemble(document.Input{
		Chapters:    chapters,
		Bookmarks:   bookmarks,
		Annotations: annotations,
		Summaries:   summaries,
	})
	result.Items = tree.ItemCount()

	if s.dryRun {
		result.Outcome = OutcomePlanned
		result.Duration = s.now().Sub(start)
		return result
	}

	page := store.Page{
		Properties: store.NewBookProperties(book, s.url(book.BookID), readInfo, s.now()),
		Tree:       tree,
	}

	result.Replaced, err = ReplaceExisting(ctx, s.writer, book.BookID)
	if err != nil {
		return fail("replace existing", err)
	}
	result.RecordID, err = s.writer.Create(ctx, page)
	if err != nil {
		return fail("create", err)
	}

	result.Outcome = OutcomeSynced
	result.Duration = s.now().Sub(start)
	return result
}

func (s *Syncer) logResult(logger *slog.Logger, r Result) {
	switch r.Outcome {
	case OutcomeFailed:
		logger.Error("book failed",
			"book_id", r.Book.BookID,
			"title", r.Book.Title,
			"error", r.Err)
	case OutcomePlanned:
		logger.Info("book planned",
			"book_id", r.Book.BookID,
			"title", r.Book.Title,
			"items", r.Items)
	default:
		logger.Info("book synced",
			"book_id", r.Book.BookID,
			"title", r.Book.Title,
			"items", r.Items,
			"replaced", r.Replaced,
			"duration", r.Duration.Round(time.Millisecond))
	}
}
