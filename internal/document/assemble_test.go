package document

import (
	"testing"

	"github.com/jackzampolin/marginalia/internal/types"
)

func intPtr(n int) *int { return &n }

func sectionTexts(s Section) []string {
	texts := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		texts = append(texts, item.Text)
	}
	return texts
}

func assertSection(t *testing.T, s Section, title string, texts ...string) {
	t.Helper()
	if s.Title != title {
		t.Errorf("section title = %q, want %q", s.Title, title)
	}
	got := sectionTexts(s)
	if len(got) != len(texts) {
		t.Fatalf("section %q items = %v, want %v", title, got, texts)
	}
	for i := range texts {
		if got[i] != texts[i] {
			t.Errorf("section %q item %d = %q, want %q", title, i, got[i], texts[i])
		}
	}
}

func TestAssemble_RoutesByChapter(t *testing.T) {
	// Bookmarks arrive sorted by (chapter, start) from the client.
	marks := []types.Bookmark{
		{ChapterUID: 2, Range: "5-10", Text: "b2"},
		{ChapterUID: 1, Range: "0-3", Text: "b1"},
	}
	sorted := []types.Bookmark{marks[1], marks[0]}

	tree := Assemble(Input{
		Chapters: map[int]types.Chapter{
			1: {Title: "Ch1", Level: 1, Sort: 1},
			2: {Title: "Ch2", Level: 1, Sort: 2},
		},
		Bookmarks: sorted,
	})

	if len(tree.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(tree.Sections))
	}
	assertSection(t, tree.Sections[0], "Ch1", "b1")
	assertSection(t, tree.Sections[1], "Ch2", "b2")
	if tree.Sections[0].ChapterUID != 1 || tree.Sections[1].ChapterUID != 2 {
		t.Error("chapter uids not carried onto sections")
	}
}

func TestAssemble_OrphanGoesToUncategorized(t *testing.T) {
	tree := Assemble(Input{
		Chapters:  map[int]types.Chapter{1: {Title: "Ch1", Level: 1, Sort: 1}},
		Bookmarks: []types.Bookmark{{ChapterUID: 9, Range: "0-1", Text: "orphan"}},
	})

	if len(tree.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(tree.Sections))
	}
	assertSection(t, tree.Sections[0], "Ch1")
	assertSection(t, tree.Sections[1], UncategorizedTitle, "orphan")
	if tree.Sections[1].Kind != SectionUncategorized {
		t.Errorf("kind = %q, want %q", tree.Sections[1].Kind, SectionUncategorized)
	}
}

func TestAssemble_SummaryFirst(t *testing.T) {
	tree := Assemble(Input{
		Chapters:  map[int]types.Chapter{1: {Title: "Ch1", Level: 1, Sort: 1}},
		Bookmarks: []types.Bookmark{{ChapterUID: 1, Range: "0-1", Text: "b"}},
		Summaries: []types.Review{{ReviewID: "s1", Type: types.ReviewTypeSummary, Content: "S"}},
	})

	if len(tree.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(tree.Sections))
	}
	assertSection(t, tree.Sections[0], SummaryTitle, "S")
	if tree.Sections[0].Items[0].Kind != ItemSummary {
		t.Errorf("summary item kind = %q", tree.Sections[0].Items[0].Kind)
	}
	assertSection(t, tree.Sections[1], "Ch1", "b")
}

func TestAssemble_EmptyInputPlaceholder(t *testing.T) {
	tree := Assemble(Input{})
	if len(tree.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(tree.Sections))
	}
	s := tree.Sections[0]
	if s.Kind != SectionPlaceholder {
		t.Errorf("kind = %q, want placeholder", s.Kind)
	}
	if len(s.Items) != 1 || s.Items[0].Text != PlaceholderText {
		t.Errorf("items = %v, want single placeholder", s.Items)
	}
}

func TestAssemble_ChaptersOnlyHasNoPlaceholder(t *testing.T) {
	tree := Assemble(Input{
		Chapters: map[int]types.Chapter{1: {Title: "Ch1", Level: 1, Sort: 1}},
	})
	if len(tree.Sections) != 1 || tree.Sections[0].Kind != SectionChapter {
		t.Fatalf("sections = %+v, want only the chapter", tree.Sections)
	}
	if tree.CountKind(ItemPlaceholder) != 0 {
		t.Error("placeholder emitted alongside chapter sections")
	}
}

func TestAssemble_ChapterOrder(t *testing.T) {
	tree := Assemble(Input{
		Chapters: map[int]types.Chapter{
			30: {Title: "Part Two", Level: 1, Sort: 3},
			10: {Title: "Part One", Level: 1, Sort: 1},
			20: {Title: "Section 1.1", Level: 2, Sort: 2},
			40: {Title: "Tie", Level: 1, Sort: 3},
		},
	})
	want := []string{"Part One", "Section 1.1", "Part Two", "Tie"}
	if len(tree.Sections) != len(want) {
		t.Fatalf("got %d sections, want %d", len(tree.Sections), len(want))
	}
	for i, title := range want {
		if tree.Sections[i].Title != title {
			t.Errorf("section %d = %q, want %q", i, tree.Sections[i].Title, title)
		}
	}
	if tree.Sections[1].Level != 2 {
		t.Errorf("level = %d, want 2", tree.Sections[1].Level)
	}
}

func TestAssemble_InterleavesReviewsByRange(t *testing.T) {
	tree := Assemble(Input{
		Chapters: map[int]types.Chapter{1: {Title: "Ch1", Level: 1, Sort: 1}},
		Bookmarks: []types.Bookmark{
			{ChapterUID: 1, Range: "0-5", Text: "b0"},
			{ChapterUID: 1, Range: "20-25", Text: "b20"},
			{ChapterUID: 1, Range: "40-45", Text: "b40"},
		},
		Annotations: []types.Review{
			{ChapterUID: intPtr(1), Range: "20-30", Content: "r20"},
			{ChapterUID: intPtr(1), Content: "r-none"},
			{ChapterUID: intPtr(1), Range: "10-12", Content: "r10"},
		},
	})

	// The review stream keeps its own order: r-none has no range, so it
	// waits for the remaining bookmarks and r10 stays behind it.
	assertSection(t, tree.Sections[0], "Ch1", "b0", "b20", "r20", "b40", "r-none", "r10")
}

func TestAssemble_ReviewWithoutChapter(t *testing.T) {
	tree := Assemble(Input{
		Chapters:    map[int]types.Chapter{1: {Title: "Ch1", Level: 1, Sort: 1}},
		Annotations: []types.Review{{ReviewID: "r1", Content: "loose"}},
	})
	if len(tree.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(tree.Sections))
	}
	assertSection(t, tree.Sections[1], UncategorizedTitle, "loose")
	if tree.Sections[1].Items[0].Kind != ItemReview {
		t.Errorf("item kind = %q, want review", tree.Sections[1].Items[0].Kind)
	}
}

func TestAssemble_PreservesCount(t *testing.T) {
	chapters := map[int]types.Chapter{
		1: {Title: "A", Level: 1, Sort: 1},
		2: {Title: "B", Level: 1, Sort: 2},
	}
	var marks []types.Bookmark
	var reviews []types.Review
	for i := 0; i < 25; i++ {
		marks = append(marks, types.Bookmark{ChapterUID: i%4 + 1, Range: "0-1", Text: "m"})
		if i%3 == 0 {
			reviews = append(reviews, types.Review{ChapterUID: intPtr(i%5 + 1), Range: "0-1", Content: "r"})
		}
	}
	summaries := []types.Review{{Type: types.ReviewTypeSummary, Content: "s"}}

	tree := Assemble(Input{Chapters: chapters, Bookmarks: marks, Annotations: reviews, Summaries: summaries})

	if got, want := tree.ItemCount(), len(marks)+len(reviews)+len(summaries); got != want {
		t.Errorf("ItemCount = %d, want %d", got, want)
	}
	if got := tree.CountKind(ItemBookmark); got != len(marks) {
		t.Errorf("bookmarks = %d, want %d", got, len(marks))
	}
	if got := tree.CountKind(ItemReview); got != len(reviews) {
		t.Errorf("reviews = %d, want %d", got, len(reviews))
	}
}

func TestAssemble_SectionOrderMatchesRangeStart(t *testing.T) {
	marks := []types.Bookmark{
		{ChapterUID: 1, Range: "3-4", Text: "3"},
		{ChapterUID: 1, Range: "10-11", Text: "10"},
		{ChapterUID: 1, Range: "200-210", Text: "200"},
	}
	tree := Assemble(Input{
		Chapters:  map[int]types.Chapter{1: {Title: "Ch1", Level: 1, Sort: 1}},
		Bookmarks: marks,
	})
	prev := -1
	for _, item := range tree.Sections[0].Items {
		start := types.RangeStart(item.Text + "-0")
		if start < prev {
			t.Fatalf("items out of order: %v", sectionTexts(tree.Sections[0]))
		}
		prev = start
	}
}
