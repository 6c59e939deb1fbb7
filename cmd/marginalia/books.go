package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/marginalia/internal/booksync"
	"github.com/jackzampolin/marginalia/internal/output"
	"github.com/jackzampolin/marginalia/internal/weread"
)

var booksPendingOnly bool

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List books on the WeRead shelf",
	Long: `List every book that has notes on WeRead, in sort order, and whether
the next sync would process it.

The cursor is read from the configured target. Pass --pending to show only
the books past it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg := cfgMgr.Get()
		if err := cfg.Validate(); err != nil {
			return err
		}
		r := cfg.Resolved()

		writer, err := newWriter(ctx, r)
		if err != nil {
			return err
		}
		cursor, err := booksync.LoadCursor(ctx, writer)
		if err != nil {
			return err
		}

		remote, err := newRemote(ctx, r)
		if err != nil {
			return err
		}
		books, err := remote.ListBooks(ctx)
		if err != nil {
			return fmt.Errorf("list books: %w", err)
		}

		pending := make(map[string]bool)
		for _, b := range booksync.Pending(books, cursor) {
			pending[b.BookID] = true
		}

		type bookView struct {
			BookID  string   `json:"book_id" yaml:"book_id"`
			Title   string   `json:"title" yaml:"title"`
			Authors []string `json:"authors" yaml:"authors"`
			Sort    int64    `json:"sort" yaml:"sort"`
			Pending bool     `json:"pending" yaml:"pending"`
			URL     string   `json:"url" yaml:"url"`
		}
		views := make([]bookView, 0, len(books))
		for _, b := range books {
			if booksPendingOnly && !pending[b.BookID] {
				continue
			}
			views = append(views, bookView{
				BookID:  b.BookID,
				Title:   b.Title,
				Authors: b.Authors,
				Sort:    b.Sort,
				Pending: pending[b.BookID],
				URL:     weread.ReaderURL(b.BookID),
			})
		}

		if output.IsStructured() {
			return output.Print(map[string]any{
				"cursor": cursor,
				"books":  views,
			})
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SORT\tPENDING\tTITLE\tAUTHORS")
		for _, v := range views {
			mark := ""
			if v.Pending {
				mark = "yes"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", v.Sort, mark, v.Title, strings.Join(v.Authors, ", "))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d books, %d pending (cursor %d)\n", len(books), len(pending), cursor)
		return nil
	},
}

func init() {
	booksCmd.Flags().BoolVar(&booksPendingOnly, "pending", false, "Only show books the next sync would process")
	rootCmd.AddCommand(booksCmd)
}
