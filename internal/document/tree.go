// Package document assembles a book's chapters, highlights and reviews into
// the ordered section tree handed to the target store.
package document

import "time"

// Section titles for the synthetic sections.
const (
	SummaryTitle       = "Summary"
	UncategorizedTitle = "Uncategorized"
	PlaceholderText    = "no annotations"
)

// SectionKind identifies where a section came from.
type SectionKind string

const (
	SectionSummary       SectionKind = "summary"
	SectionChapter       SectionKind = "chapter"
	SectionUncategorized SectionKind = "uncategorized"
	SectionPlaceholder   SectionKind = "placeholder"
)

// ItemKind identifies the kind of a leaf item.
type ItemKind string

const (
	ItemBookmark    ItemKind = "bookmark"
	ItemReview      ItemKind = "review"
	ItemSummary     ItemKind = "summary"
	ItemPlaceholder ItemKind = "placeholder"
)

// Item is a leaf content item.
type Item struct {
	Kind ItemKind `json:"kind"`
	// ID is the bookmark or review id.
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
	// Abstract is the passage a review comments on.
	Abstract   string    `json:"abstract,omitempty"`
	ChapterUID int       `json:"chapter_uid,omitempty"`
	Style      int       `json:"style,omitempty"`
	Color      int       `json:"color,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
}

// Section is a top-level section of the tree.
type Section struct {
	Kind       SectionKind `json:"kind"`
	Title      string      `json:"title"`
	Level      int         `json:"level"`
	ChapterUID int         `json:"chapter_uid,omitempty"`
	Items      []Item      `json:"items"`
}

// Tree is the ordered section list for one book.
type Tree struct {
	Sections []Section `json:"sections"`
}

// ItemCount returns the number of leaf items across all sections.
func (t Tree) ItemCount() int {
	n := 0
	for _, s := range t.Sections {
		n += len(s.Items)
	}
	return n
}

// CountKind returns the number of leaf items of the given kind.
func (t Tree) CountKind(kind ItemKind) int {
	n := 0
	for _, s := range t.Sections {
		for _, item := range s.Items {
			if item.Kind == kind {
				n++
			}
		}
	}
	return n
}
