package document

import (
	"sort"

	"github.com/jackzampolin/marginalia/internal/types"
)

// Input is everything fetched for one book.
type Input struct {
	Chapters    map[int]types.Chapter
	Bookmarks   []types.Bookmark // Sorted by (chapterUid, range start)
	Annotations []types.Review   // Non-summary reviews, service order
	Summaries   []types.Review   // Type 4 reviews
}

// Assemble merges the chapter table, bookmarks and reviews into a Tree.
//
// Sections are: Summary (when any summary review exists), one per chapter in
// chapter order, then Uncategorized for items whose chapter is unknown.
// Chapters with no items are kept so the tree mirrors the table of contents.
// Within a section the incoming order of bookmarks and of reviews is kept;
// the two streams are interleaved by range start.
func Assemble(in Input) Tree {
	var tree Tree

	if len(in.Summaries) > 0 {
		summary := Section{Kind: SectionSummary, Title: SummaryTitle, Level: 1}
		for _, r := range in.Summaries {
			summary.Items = append(summary.Items, reviewItem(r, ItemSummary))
		}
		tree.Sections = append(tree.Sections, summary)
	}

	chapters := orderedChapters(in.Chapters)
	index := make(map[int]int, len(chapters))
	routed := make([]routedItems, len(chapters))
	for i, c := range chapters {
		index[c.ChapterUID] = i
	}

	var orphans routedItems
	for _, b := range in.Bookmarks {
		if i, ok := index[b.ChapterUID]; ok {
			routed[i].bookmarks = append(routed[i].bookmarks, b)
		} else {
			orphans.bookmarks = append(orphans.bookmarks, b)
		}
	}
	for _, r := range in.Annotations {
		if r.ChapterUID != nil {
			if i, ok := index[*r.ChapterUID]; ok {
				routed[i].reviews = append(routed[i].reviews, r)
				continue
			}
		}
		orphans.reviews = append(orphans.reviews, r)
	}

	for i, c := range chapters {
		tree.Sections = append(tree.Sections, Section{
			Kind:       SectionChapter,
			Title:      c.Title,
			Level:      max(c.Level, 1),
			ChapterUID: c.ChapterUID,
			Items:      routed[i].merge(),
		})
	}

	if !orphans.empty() {
		tree.Sections = append(tree.Sections, Section{
			Kind:  SectionUncategorized,
			Title: UncategorizedTitle,
			Level: 1,
			Items: orphans.merge(),
		})
	}

	if len(tree.Sections) == 0 {
		tree.Sections = []Section{{
			Kind:  SectionPlaceholder,
			Level: 1,
			Items: []Item{{Kind: ItemPlaceholder, Text: PlaceholderText}},
		}}
	}

	return tree
}

// orderedChapters returns the chapter table sorted by chapter order, with the
// chapter uid breaking ties.
func orderedChapters(table map[int]types.Chapter) []types.Chapter {
	chapters := make([]types.Chapter, 0, len(table))
	for uid, c := range table {
		c.ChapterUID = uid
		chapters = append(chapters, c)
	}
	sort.Slice(chapters, func(i, j int) bool {
		if chapters[i].Sort != chapters[j].Sort {
			return chapters[i].Sort < chapters[j].Sort
		}
		return chapters[i].ChapterUID < chapters[j].ChapterUID
	})
	return chapters
}

// routedItems holds the items routed to one section before interleaving.
type routedItems struct {
	bookmarks []types.Bookmark
	reviews   []types.Review
}

func (r routedItems) empty() bool {
	return len(r.bookmarks) == 0 && len(r.reviews) == 0
}

// merge interleaves bookmarks and reviews by range start without reordering
// either stream. Reviews without a range follow the remaining bookmarks.
func (r routedItems) merge() []Item {
	items := make([]Item, 0, len(r.bookmarks)+len(r.reviews))
	bi, ri := 0, 0
	for bi < len(r.bookmarks) || ri < len(r.reviews) {
		takeBookmark := ri >= len(r.reviews)
		if !takeBookmark && bi < len(r.bookmarks) {
			start := r.reviews[ri].Start()
			takeBookmark = start < 0 || r.bookmarks[bi].Start() <= start
		}
		if takeBookmark {
			items = append(items, bookmarkItem(r.bookmarks[bi]))
			bi++
		} else {
			items = append(items, reviewItem(r.reviews[ri], ItemReview))
			ri++
		}
	}
	return items
}

func bookmarkItem(b types.Bookmark) Item {
	return Item{
		Kind:       ItemBookmark,
		ID:         b.BookmarkID,
		Text:       b.Text,
		ChapterUID: b.ChapterUID,
		Style:      b.Style,
		Color:      b.Color,
		CreatedAt:  b.CreatedAt,
	}
}

func reviewItem(r types.Review, kind ItemKind) Item {
	item := Item{
		Kind:      kind,
		ID:        r.ReviewID,
		Text:      r.Content,
		Abstract:  r.Abstract,
		CreatedAt: r.CreatedAt,
	}
	if r.ChapterUID != nil {
		item.ChapterUID = *r.ChapterUID
	}
	return item
}
