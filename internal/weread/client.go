package weread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"time"

	"github.com/jackzampolin/marginalia/internal/types"
)

// API paths on the API host.
const (
	pathNotebooks    = "/user/notebooks"
	pathBookmarkList = "/book/bookmarklist"
	pathReviewList   = "/review/list"
	pathChapterInfos = "/book/chapterInfos"
	pathBookInfo     = "/book/info"
	pathReadInfo     = "/book/readinfo"
)

// Config holds configuration for the reading-service client.
type Config struct {
	Cookie      string
	WebURL      string
	APIURL      string
	Timeout     time.Duration
	MaxAttempts uint
	RetryDelay  time.Duration
	Logger      *slog.Logger
}

// Client provides typed accessors over the reading-service API.
// Every accessor touches the landing page first and runs under the Guard.
type Client struct {
	session *Session
	guard   *Guard
	logger  *slog.Logger
}

// NewClient creates a client with its own session and guard.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	session, err := NewSession(SessionConfig{
		Cookie:  cfg.Cookie,
		WebURL:  cfg.WebURL,
		APIURL:  cfg.APIURL,
		Timeout: cfg.Timeout,
		Logger:  cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	guard := NewGuard(GuardConfig{
		MaxAttempts: cfg.MaxAttempts,
		Delay:       cfg.RetryDelay,
		Refresh:     session.Touch,
		Logger:      cfg.Logger,
	})

	return &Client{
		session: session,
		guard:   guard,
		logger:  cfg.Logger,
	}, nil
}

// Establish warms the session once before the run starts.
func (c *Client) Establish(ctx context.Context) error {
	return c.guard.Do(ctx, "establish", c.session.Touch)
}

// call runs a keep-alive touch followed by the request, under the guard.
func (c *Client) call(ctx context.Context, op string, request func(ctx context.Context) error) error {
	return c.guard.Do(ctx, op, func(ctx context.Context) error {
		if err := c.session.Touch(ctx); err != nil {
			return err
		}
		return request(ctx)
	})
}

// ListBooks returns the user's notebook list ordered by sort.
// A malformed or empty list yields an empty slice, not an error. A body that
// is not JSON is retried as a dead session and fails the listing.
func (c *Client) ListBooks(ctx context.Context) ([]types.Book, error) {
	var resp notebooksResponse
	err := c.call(ctx, "list books", func(ctx context.Context) error {
		return c.session.get(ctx, pathNotebooks, nil, schemaNotebooks, &resp)
	})
	if err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			c.logger.Error("notebook list malformed, treating as empty", "error", err)
			return []types.Book{}, nil
		}
		return nil, err
	}

	books, skipped := resp.books()
	if len(skipped) > 0 {
		c.logger.Warn("notebook entries without a book id skipped", "positions", skipped)
	}
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].Sort < books[j].Sort
	})
	return books, nil
}

// Bookmarks returns a book's highlights ordered by (chapterUid, range start).
func (c *Client) Bookmarks(ctx context.Context, bookID string) ([]types.Bookmark, error) {
	if bookID == "" {
		return nil, ErrInvalidBookID
	}

	var resp bookmarkListResponse
	params := url.Values{"bookId": {bookID}}
	err := c.call(ctx, "bookmarks", func(ctx context.Context) error {
		return c.session.get(ctx, pathBookmarkList, params, schemaBookmarks, &resp)
	})
	if err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			c.logger.Warn("bookmark list malformed, treating as empty", "book_id", bookID, "error", err)
			return []types.Bookmark{}, nil
		}
		return nil, err
	}

	marks := resp.bookmarks(bookID)
	SortBookmarks(marks)
	return marks, nil
}

// SortBookmarks orders bookmarks by chapter then by range start. Equal keys
// keep their incoming order.
func SortBookmarks(marks []types.Bookmark) {
	sort.SliceStable(marks, func(i, j int) bool {
		if marks[i].ChapterUID != marks[j].ChapterUID {
			return marks[i].ChapterUID < marks[j].ChapterUID
		}
		return marks[i].Start() < marks[j].Start()
	})
}

// Reviews returns a book's reviews split into summaries (type 4) and
// annotations, each in the order the service returned them.
func (c *Client) Reviews(ctx context.Context, bookID string) (summaries, annotations []types.Review, err error) {
	if bookID == "" {
		return nil, nil, ErrInvalidBookID
	}

	var resp reviewListResponse
	params := url.Values{
		"bookId":   {bookID},
		"listType": {"11"},
		"mine":     {"1"},
		"syncKey":  {"0"},
	}
	err = c.call(ctx, "reviews", func(ctx context.Context) error {
		return c.session.get(ctx, pathReviewList, params, schemaReviews, &resp)
	})
	if err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			c.logger.Warn("review list malformed, treating as empty", "book_id", bookID, "error", err)
			return []types.Review{}, []types.Review{}, nil
		}
		return nil, nil, err
	}

	summaries, annotations = SplitReviews(resp.reviews(bookID))
	return summaries, annotations, nil
}

// SplitReviews separates summary reviews from annotation reviews.
func SplitReviews(reviews []types.Review) (summaries, annotations []types.Review) {
	summaries = []types.Review{}
	annotations = []types.Review{}
	for _, r := range reviews {
		if r.IsSummary() {
			summaries = append(summaries, r)
		} else {
			annotations = append(annotations, r)
		}
	}
	return summaries, annotations
}

// Chapters returns a book's chapter table keyed by chapterUid.
func (c *Client) Chapters(ctx context.Context, bookID string) (map[int]types.Chapter, error) {
	if bookID == "" {
		return nil, ErrInvalidBookID
	}

	var resp chapterInfosResponse
	body := chapterInfosRequest{
		BookIDs:  []string{bookID},
		SyncKeys: []int{0},
		TeenMode: 0,
	}
	err := c.call(ctx, "chapters", func(ctx context.Context) error {
		return c.session.post(ctx, pathChapterInfos, body, schemaChapterInfos, &resp)
	})
	if err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			c.logger.Warn("chapter table malformed, treating as empty", "book_id", bookID, "error", err)
			return map[int]types.Chapter{}, nil
		}
		return nil, err
	}

	return resp.chapters(bookID), nil
}

// BookInfo returns a book's ISBN and its rating normalized to 0-1.
// Metadata is non-critical: any failure yields ("", 0).
func (c *Client) BookInfo(ctx context.Context, bookID string) (isbn string, rating float64) {
	if bookID == "" {
		return "", 0
	}

	var resp bookInfoResponse
	params := url.Values{"bookId": {bookID}}
	err := c.call(ctx, "book info", func(ctx context.Context) error {
		return c.session.get(ctx, pathBookInfo, params, "", &resp)
	})
	if err != nil {
		c.logger.Warn("book info unavailable", "book_id", bookID, "error", err)
		return "", 0
	}

	return resp.ISBN, float64(resp.NewRating) / 1000
}

// ReadInfo returns the user's reading progress for a book. A malformed
// response yields nil without an error.
func (c *Client) ReadInfo(ctx context.Context, bookID string) (*types.ReadInfo, error) {
	if bookID == "" {
		return nil, ErrInvalidBookID
	}

	var resp readInfoResponse
	params := url.Values{
		"bookId":           {bookID},
		"readingDetail":    {"1"},
		"readingBookIndex": {"1"},
		"finishedDate":     {"1"},
	}
	err := c.call(ctx, "read info", func(ctx context.Context) error {
		return c.session.get(ctx, pathReadInfo, params, "", &resp)
	})
	if err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			c.logger.Warn("read info malformed", "book_id", bookID, "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("read info for %s: %w", bookID, err)
	}

	return resp.readInfo(), nil
}
