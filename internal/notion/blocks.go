package notion

import (
	"github.com/jackzampolin/marginalia/internal/document"
)

// Block is a Notion block object. Exactly one of the typed fields is set.
type Block struct {
	Object          string     `json:"object"`
	Type            string     `json:"type"`
	Heading1        *TextBlock `json:"heading_1,omitempty"`
	Heading2        *TextBlock `json:"heading_2,omitempty"`
	Heading3        *TextBlock `json:"heading_3,omitempty"`
	Paragraph       *TextBlock `json:"paragraph,omitempty"`
	Quote           *TextBlock `json:"quote,omitempty"`
	Callout         *Callout   `json:"callout,omitempty"`
	TableOfContents *TOC       `json:"table_of_contents,omitempty"`
}

// TextBlock holds the rich text of headings, paragraphs and quotes.
type TextBlock struct {
	RichText []RichText `json:"rich_text"`
	Color    string     `json:"color,omitempty"`
}

// Callout is a rich text block with an icon.
type Callout struct {
	RichText []RichText `json:"rich_text"`
	Icon     *Emoji     `json:"icon,omitempty"`
	Color    string     `json:"color,omitempty"`
}

// Emoji is an emoji icon.
type Emoji struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

// TOC is a table of contents block.
type TOC struct {
	Color string `json:"color"`
}

// RichText is a text rich text object.
type RichText struct {
	Type string `json:"type"`
	Text Text   `json:"text"`
}

// Text is the content of a text rich text object.
type Text struct {
	Content string `json:"content"`
}

const (
	bookmarkIcon = "📌"
	reviewIcon   = "✍️"
	summaryIcon  = "💭"
)

// highlightColors maps the reading service's highlight colors to Notion
// background colors.
var highlightColors = map[int]string{
	1: "red_background",
	2: "purple_background",
	3: "blue_background",
	4: "green_background",
	5: "yellow_background",
}

// RenderBlocks turns a document tree into a flat list of Notion blocks: a
// table of contents, then one heading per section followed by its items.
func RenderBlocks(tree document.Tree) []Block {
	blocks := []Block{{Object: "block", Type: "table_of_contents", TableOfContents: &TOC{Color: "default"}}}

	for _, section := range tree.Sections {
		if section.Title != "" {
			blocks = append(blocks, heading(section.Level, section.Title))
		}
		for _, item := range section.Items {
			blocks = append(blocks, itemBlocks(item)...)
		}
	}
	return blocks
}

func itemBlocks(item document.Item) []Block {
	switch item.Kind {
	case document.ItemBookmark:
		return []Block{callout(bookmarkIcon, item.Text, highlightColors[item.Color])}
	case document.ItemReview:
		var blocks []Block
		if item.Abstract != "" {
			blocks = append(blocks, Block{Object: "block", Type: "quote", Quote: &TextBlock{RichText: richText(item.Abstract)}})
		}
		return append(blocks, callout(reviewIcon, item.Text, ""))
	case document.ItemSummary:
		return []Block{callout(summaryIcon, item.Text, "gray_background")}
	default:
		return []Block{{Object: "block", Type: "paragraph", Paragraph: &TextBlock{RichText: richText(item.Text)}}}
	}
}

func heading(level int, title string) Block {
	text := &TextBlock{RichText: richText(title)}
	switch {
	case level <= 1:
		return Block{Object: "block", Type: "heading_1", Heading1: text}
	case level == 2:
		return Block{Object: "block", Type: "heading_2", Heading2: text}
	default:
		return Block{Object: "block", Type: "heading_3", Heading3: text}
	}
}

func callout(icon, text, color string) Block {
	if color == "" {
		color = "default"
	}
	return Block{
		Object: "block",
		Type:   "callout",
		Callout: &Callout{
			RichText: richText(text),
			Icon:     &Emoji{Type: "emoji", Emoji: icon},
			Color:    color,
		},
	}
}

// richText splits text into rich text objects of at most MaxRichTextLength
// characters each.
func richText(text string) []RichText {
	chunks := splitText(text, MaxRichTextLength)
	out := make([]RichText, 0, len(chunks))
	for _, chunk := range chunks {
		out = append(out, RichText{Type: "text", Text: Text{Content: chunk}})
	}
	return out
}

// splitText splits s into pieces of at most n runes. An empty string yields
// one empty piece.
func splitText(s string, n int) []string {
	runes := []rune(s)
	if len(runes) <= n {
		return []string{s}
	}
	var pieces []string
	for len(runes) > 0 {
		end := min(n, len(runes))
		pieces = append(pieces, string(runes[:end]))
		runes = runes[end:]
	}
	return pieces
}

// chunkBlocks splits blocks into groups of at most n.
func chunkBlocks(blocks []Block, n int) [][]Block {
	var chunks [][]Block
	for len(blocks) > 0 {
		end := min(n, len(blocks))
		chunks = append(chunks, blocks[:end])
		blocks = blocks[end:]
	}
	return chunks
}
