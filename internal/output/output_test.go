package output

import (
	"bytes"
	"strings"
	"testing"
)

type row struct {
	BookID string `json:"book_id" yaml:"book_id"`
	Sort   int64  `json:"sort" yaml:"sort"`
}

func TestWrite(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, "{\n  \"book_id\": \"42\",\n  \"sort\": 7\n}\n"},
		{FormatYAML, "book_id: \"42\"\nsort: 7\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, tt.format, row{BookID: "42", Sort: 7}); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}

	if err := Write(&bytes.Buffer{}, Format("xml"), nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestParse(t *testing.T) {
	for _, s := range []string{"yaml", "json", "text"} {
		if f, err := Parse(s); err != nil || string(f) != s {
			t.Errorf("Parse(%q) = %q, %v", s, f, err)
		}
	}
	if f, err := Parse(""); err != nil || f != FormatText {
		t.Errorf("Parse(\"\") = %q, %v", f, err)
	}
	if _, err := Parse("xml"); err == nil || !strings.Contains(err.Error(), "xml") {
		t.Errorf("Parse(xml) err = %v", err)
	}
}

func TestSet(t *testing.T) {
	defer Set(FormatText)

	if IsStructured() {
		t.Error("text should not be structured")
	}
	Set(FormatJSON)
	if Current() != FormatJSON || !IsStructured() {
		t.Error("json should be structured")
	}
}
