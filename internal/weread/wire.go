package weread

import (
	"strings"
	"time"

	"github.com/jackzampolin/marginalia/internal/types"
)

type notebooksResponse struct {
	Books []struct {
		BookID string `json:"bookId"`
		Sort   int64  `json:"sort"`
		Book   struct {
			BookID string `json:"bookId"`
			Title  string `json:"title"`
			Author string `json:"author"`
			Cover  string `json:"cover"`
		} `json:"book"`
	} `json:"books"`
}

type bookmarkListResponse struct {
	Updated []struct {
		BookmarkID string `json:"bookmarkId"`
		BookID     string `json:"bookId"`
		ChapterUID *int   `json:"chapterUid"`
		Range      string `json:"range"`
		MarkText   string `json:"markText"`
		Style      int    `json:"style"`
		ColorStyle int    `json:"colorStyle"`
		CreateTime int64  `json:"createTime"`
	} `json:"updated"`
}

type reviewListResponse struct {
	Reviews []struct {
		ReviewID string `json:"reviewId"`
		Review   struct {
			ReviewID   string `json:"reviewId"`
			BookID     string `json:"bookId"`
			Type       int    `json:"type"`
			ChapterUID *int   `json:"chapterUid"`
			Content    string `json:"content"`
			Abstract   string `json:"abstract"`
			Range      string `json:"range"`
			CreateTime int64  `json:"createTime"`
		} `json:"review"`
	} `json:"reviews"`
}

type chapterInfosRequest struct {
	BookIDs  []string `json:"bookIds"`
	SyncKeys []int    `json:"synckeys"`
	TeenMode int      `json:"teenmode"`
}

type chapterInfosResponse struct {
	Data []struct {
		BookID  string `json:"bookId"`
		Updated []struct {
			ChapterUID int    `json:"chapterUid"`
			ChapterIdx int    `json:"chapterIdx"`
			Title      string `json:"title"`
			Level      int    `json:"level"`
		} `json:"updated"`
	} `json:"data"`
}

type bookInfoResponse struct {
	ISBN      string `json:"isbn"`
	NewRating int    `json:"newRating"`
}

type readInfoResponse struct {
	MarkedStatus    int   `json:"markedStatus"`
	ReadingTime     int   `json:"readingTime"`
	ReadingProgress int   `json:"readingProgress"`
	FinishedDate    int64 `json:"finishedDate"`
}

// books converts the listing, dropping entries that carry no id at either
// level. skipped holds the positions of dropped entries.
func (r *notebooksResponse) books() (books []types.Book, skipped []int) {
	books = make([]types.Book, 0, len(r.Books))
	for i, entry := range r.Books {
		id := entry.BookID
		if id == "" {
			id = entry.Book.BookID
		}
		if id == "" {
			skipped = append(skipped, i)
			continue
		}
		books = append(books, types.Book{
			BookID:  id,
			Title:   entry.Book.Title,
			Authors: splitAuthors(entry.Book.Author),
			Cover:   largeCover(entry.Book.Cover),
			Sort:    entry.Sort,
		})
	}
	return books, skipped
}

func (r *bookmarkListResponse) bookmarks(bookID string) []types.Bookmark {
	marks := make([]types.Bookmark, 0, len(r.Updated))
	for _, u := range r.Updated {
		chapter := types.DefaultChapterUID
		if u.ChapterUID != nil {
			chapter = *u.ChapterUID
		}
		id := u.BookID
		if id == "" {
			id = bookID
		}
		marks = append(marks, types.Bookmark{
			BookmarkID: u.BookmarkID,
			BookID:     id,
			ChapterUID: chapter,
			Range:      u.Range,
			Text:       u.MarkText,
			Style:      u.Style,
			Color:      u.ColorStyle,
			CreatedAt:  unixTime(u.CreateTime),
		})
	}
	return marks
}

func (r *reviewListResponse) reviews(bookID string) []types.Review {
	reviews := make([]types.Review, 0, len(r.Reviews))
	for _, entry := range r.Reviews {
		rv := entry.Review
		id := rv.ReviewID
		if id == "" {
			id = entry.ReviewID
		}
		bid := rv.BookID
		if bid == "" {
			bid = bookID
		}
		reviews = append(reviews, types.Review{
			ReviewID:   id,
			BookID:     bid,
			Type:       rv.Type,
			ChapterUID: rv.ChapterUID,
			Content:    rv.Content,
			Abstract:   rv.Abstract,
			Range:      rv.Range,
			CreatedAt:  unixTime(rv.CreateTime),
		})
	}
	return reviews
}

func (r *chapterInfosResponse) chapters(bookID string) map[int]types.Chapter {
	chapters := make(map[int]types.Chapter)
	for _, d := range r.Data {
		if d.BookID != "" && d.BookID != bookID {
			continue
		}
		for _, c := range d.Updated {
			chapters[c.ChapterUID] = types.Chapter{
				ChapterUID: c.ChapterUID,
				Title:      c.Title,
				Level:      c.Level,
				Sort:       c.ChapterIdx,
			}
		}
	}
	return chapters
}

func (r *readInfoResponse) readInfo() *types.ReadInfo {
	info := &types.ReadInfo{
		MarkedStatus:    r.MarkedStatus,
		ReadingTime:     r.ReadingTime,
		ReadingProgress: r.ReadingProgress,
	}
	if r.FinishedDate > 0 {
		t := unixTime(r.FinishedDate)
		info.FinishedDate = &t
	}
	return info
}

// splitAuthors splits the service's single author string into names.
func splitAuthors(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '，' || r == '、' || r == '/'
	})
	authors := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			authors = append(authors, f)
		}
	}
	return authors
}

// largeCover swaps the thumbnail size marker for the large cover variant.
func largeCover(url string) string {
	return strings.Replace(url, "/s_", "/t7_", 1)
}

func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
