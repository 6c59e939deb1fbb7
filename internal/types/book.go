// Package types provides the reading-service domain types shared across packages.
// This package has no dependencies on other marginalia packages to avoid import cycles.
package types

import (
	"strconv"
	"strings"
	"time"
)

// DefaultChapterUID is assigned to bookmarks the service returns without a chapter.
const DefaultChapterUID = 1

// ReviewTypeSummary marks a whole-book summary review.
const ReviewTypeSummary = 4

// MarkedStatusFinished is the read-info status of a finished book.
const MarkedStatusFinished = 4

// Book is one entry of the user's notebook list.
type Book struct {
	BookID  string   `json:"book_id" yaml:"book_id"`
	Title   string   `json:"title" yaml:"title"`
	Authors []string `json:"authors" yaml:"authors"`
	Cover   string   `json:"cover" yaml:"cover"`
	// Sort is the book's position in the user's list. It grows when the book
	// gains new notes and is used as the sync cursor.
	Sort int64  `json:"sort" yaml:"sort"`
	ISBN string `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	// Rating is normalized to 0-1.
	Rating float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
}

// Bookmark is a highlight inside a book.
type Bookmark struct {
	BookmarkID string    `json:"bookmark_id"`
	BookID     string    `json:"book_id"`
	ChapterUID int       `json:"chapter_uid"`
	Range      string    `json:"range"`
	Text       string    `json:"text"`
	Style      int       `json:"style"`
	Color      int       `json:"color"`
	CreatedAt  time.Time `json:"created_at"`
}

// Start returns the start offset of the bookmark's range.
func (b Bookmark) Start() int {
	return RangeStart(b.Range)
}

// Review is user-written commentary on a book or a passage of it.
type Review struct {
	ReviewID string `json:"review_id"`
	BookID   string `json:"book_id"`
	Type     int    `json:"type"`
	// ChapterUID is nil for reviews not tied to a chapter.
	ChapterUID *int   `json:"chapter_uid,omitempty"`
	Content    string `json:"content"`
	// Abstract is the highlighted passage the review comments on.
	Abstract  string    `json:"abstract,omitempty"`
	Range     string    `json:"range,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsSummary reports whether the review is a whole-book summary.
func (r Review) IsSummary() bool {
	return r.Type == ReviewTypeSummary
}

// Start returns the start offset of the review's range, or -1 when the
// review has no range.
func (r Review) Start() int {
	if strings.TrimSpace(r.Range) == "" {
		return -1
	}
	return RangeStart(r.Range)
}

// Chapter is one row of a book's chapter table.
type Chapter struct {
	ChapterUID int    `json:"chapter_uid"`
	Title      string `json:"title"`
	Level      int    `json:"level"`
	// Sort orders chapters within the table.
	Sort int `json:"sort"`
}

// ReadInfo is a snapshot of the user's reading progress for one book.
type ReadInfo struct {
	MarkedStatus int `json:"marked_status"`
	// ReadingTime is in seconds.
	ReadingTime int `json:"reading_time"`
	// ReadingProgress is 0-100.
	ReadingProgress int        `json:"reading_progress"`
	FinishedDate    *time.Time `json:"finished_date,omitempty"`
}

// Finished reports whether the book is marked as read.
func (r ReadInfo) Finished() bool {
	return r.MarkedStatus == MarkedStatusFinished
}

// RangeStart parses the start of a "start-end" range. Missing or invalid
// starts are treated as 0.
func RangeStart(r string) int {
	start, _, _ := strings.Cut(strings.TrimSpace(r), "-")
	n, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil {
		return 0
	}
	return n
}
