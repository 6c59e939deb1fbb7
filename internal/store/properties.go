package store

import (
	"fmt"
	"time"

	"github.com/jackzampolin/marginalia/internal/types"
)

// Reading status values.
const (
	StatusRead    = "Read"
	StatusReading = "Reading"
)

// BookProperties are the fields stored alongside each book's document.
type BookProperties struct {
	Title          string     `json:"title" yaml:"title"`
	BookID         string     `json:"book_id" yaml:"book_id"`
	ISBN           string     `json:"isbn,omitempty" yaml:"isbn,omitempty"`
	URL            string     `json:"url" yaml:"url"`
	Authors        []string   `json:"authors" yaml:"authors"`
	Sort           int64      `json:"sort" yaml:"sort"`
	Rating         float64    `json:"rating" yaml:"rating"`
	Cover          string     `json:"cover,omitempty" yaml:"cover,omitempty"`
	Status         string     `json:"status,omitempty" yaml:"status,omitempty"`
	ReadingTime    string     `json:"reading_time,omitempty" yaml:"reading_time,omitempty"`
	ReadingSeconds int        `json:"reading_seconds" yaml:"reading_seconds"`
	Progress       float64    `json:"progress" yaml:"progress"`
	FinishedDate   *time.Time `json:"finished_date,omitempty" yaml:"finished_date,omitempty"`
	SyncedAt       time.Time  `json:"synced_at" yaml:"synced_at"`
}

// NewBookProperties derives a book's properties. readInfo may be nil, in
// which case the reading fields are left empty.
func NewBookProperties(book types.Book, url string, readInfo *types.ReadInfo, now time.Time) BookProperties {
	p := BookProperties{
		Title:    book.Title,
		BookID:   book.BookID,
		ISBN:     book.ISBN,
		URL:      url,
		Authors:  book.Authors,
		Sort:     book.Sort,
		Rating:   book.Rating,
		Cover:    book.Cover,
		SyncedAt: now.UTC(),
	}
	if readInfo == nil {
		return p
	}

	p.Status = StatusReading
	if readInfo.Finished() {
		p.Status = StatusRead
	}
	p.ReadingSeconds = readInfo.ReadingTime
	p.ReadingTime = FormatReadingTime(readInfo.ReadingTime)
	p.Progress = float64(min(max(readInfo.ReadingProgress, 0), 100)) / 100
	if readInfo.FinishedDate != nil {
		finished := readInfo.FinishedDate.UTC()
		p.FinishedDate = &finished
	}
	return p
}

// FormatReadingTime renders seconds as "3h 12m", "45m" or "" for zero.
func FormatReadingTime(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	hours := seconds / 3600
	minutes := seconds % 3600 / 60
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return "<1m"
	}
}
