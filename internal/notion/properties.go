package notion

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jackzampolin/marginalia/internal/store"
)

// Database property names.
const (
	PropTitle        = "BookName"
	PropBookID       = "BookId"
	PropISBN         = "ISBN"
	PropURL          = "URL"
	PropAuthor       = "Author"
	PropSort         = "Sort"
	PropRating       = "Rating"
	PropCover        = "Cover"
	PropStatus       = "Status"
	PropReadingTime  = "ReadingTime"
	PropProgress     = "Progress"
	PropFinishedDate = "FinishedDate"
	PropSyncedAt     = "SyncedAt"
)

// pageProperties converts book properties into Notion property values.
func pageProperties(p store.BookProperties) map[string]any {
	props := map[string]any{
		PropTitle:       map[string]any{"title": richText(p.Title)},
		PropBookID:      map[string]any{"rich_text": richText(p.BookID)},
		PropISBN:        map[string]any{"rich_text": richText(p.ISBN)},
		PropAuthor:      map[string]any{"rich_text": richText(strings.Join(p.Authors, ", "))},
		PropSort:        map[string]any{"number": p.Sort},
		PropRating:      map[string]any{"number": p.Rating},
		PropReadingTime: map[string]any{"rich_text": richText(p.ReadingTime)},
		PropProgress:    map[string]any{"number": p.Progress},
		PropSyncedAt:    map[string]any{"date": map[string]any{"start": p.SyncedAt.Format(time.RFC3339)}},
	}
	if p.URL != "" {
		props[PropURL] = map[string]any{"url": p.URL}
	}
	if p.Cover != "" {
		props[PropCover] = map[string]any{"files": []map[string]any{{
			"type":     "external",
			"name":     "cover",
			"external": map[string]any{"url": p.Cover},
		}}}
	}
	if p.Status != "" {
		props[PropStatus] = map[string]any{"select": map[string]any{"name": p.Status}}
	}
	if p.FinishedDate != nil {
		props[PropFinishedDate] = map[string]any{"date": map[string]any{"start": p.FinishedDate.Format(time.DateOnly)}}
	}
	return props
}

// pageRecord extracts the book id and sort from a queried page.
func pageRecord(page pageObject) store.Record {
	record := store.Record{ID: page.ID}

	var text struct {
		RichText []struct {
			PlainText string `json:"plain_text"`
			Text      Text   `json:"text"`
		} `json:"rich_text"`
	}
	if raw, ok := page.Properties[PropBookID]; ok && json.Unmarshal(raw, &text) == nil {
		var b strings.Builder
		for _, rt := range text.RichText {
			if rt.PlainText != "" {
				b.WriteString(rt.PlainText)
			} else {
				b.WriteString(rt.Text.Content)
			}
		}
		record.BookID = b.String()
	}

	var number struct {
		Number *float64 `json:"number"`
	}
	if raw, ok := page.Properties[PropSort]; ok && json.Unmarshal(raw, &number) == nil && number.Number != nil {
		record.Sort = int64(*number.Number)
	}
	return record
}
