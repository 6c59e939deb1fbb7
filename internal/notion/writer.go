package notion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/marginalia/internal/store"
)

// Writer stores one Notion page per book. It implements store.Writer.
type Writer struct {
	client *Client
	logger *slog.Logger
}

var _ store.Writer = (*Writer)(nil)

// NewWriter creates a Writer over the given client.
func NewWriter(client *Client) *Writer {
	return &Writer{client: client, logger: client.logger}
}

// Query returns pages in the database matching the filter, following
// pagination until the limit is reached.
func (w *Writer) Query(ctx context.Context, filter store.Filter) ([]store.Record, error) {
	req := queryRequest{PageSize: MaxBlocksPerRequest}
	if filter.BookID != "" {
		req.Filter = map[string]any{
			"property":  PropBookID,
			"rich_text": map[string]any{"equals": filter.BookID},
		}
	}
	if filter.SortDesc {
		req.Sorts = []querySort{{Property: PropSort, Direction: "descending"}}
	}
	if filter.Limit > 0 && filter.Limit < req.PageSize {
		req.PageSize = filter.Limit
	}

	var records []store.Record
	for {
		resp, err := w.client.queryDatabase(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("query database: %w", err)
		}
		for _, page := range resp.Results {
			if page.Archived {
				continue
			}
			records = append(records, pageRecord(page))
			if filter.Limit > 0 && len(records) >= filter.Limit {
				return records, nil
			}
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return records, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

// Delete archives a page.
func (w *Writer) Delete(ctx context.Context, id string) error {
	if err := w.client.archivePage(ctx, id); err != nil {
		return fmt.Errorf("%w: archive page %s: %w", store.ErrTargetWrite, id, err)
	}
	return nil
}

// Create writes a new page. Notion accepts at most 100 children per request,
// so the page is created with the first chunk and the rest are appended. If
// an append fails the partial page is archived.
func (w *Writer) Create(ctx context.Context, page store.Page) (string, error) {
	chunks := chunkBlocks(RenderBlocks(page.Tree), MaxBlocksPerRequest)

	req := createPageRequest{
		Parent:     parent{DatabaseID: w.client.DatabaseID()},
		Properties: pageProperties(page.Properties),
	}
	if len(chunks) > 0 {
		req.Children = chunks[0]
	}
	if page.Properties.Cover != "" {
		cover := &file{Type: "external", External: externalFile{URL: page.Properties.Cover}}
		req.Icon = cover
		req.Cover = cover
	}

	id, err := w.client.createPage(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: create page: %w", store.ErrTargetWrite, err)
	}

	for i := 1; i < len(chunks); i++ {
		if err := w.client.appendChildren(ctx, id, chunks[i]); err != nil {
			if archiveErr := w.client.archivePage(ctx, id); archiveErr != nil {
				w.logger.Error("failed to archive partial page",
					"page_id", id,
					"book_id", page.Properties.BookID,
					"error", archiveErr)
			}
			return "", fmt.Errorf("%w: append blocks %d/%d: %w", store.ErrTargetWrite, i+1, len(chunks), err)
		}
	}

	w.logger.Debug("created notion page",
		"page_id", id,
		"book_id", page.Properties.BookID,
		"chunks", len(chunks))
	return id, nil
}
