package weread

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ReaderURL returns the web reader URL for a book. The path segment is the
// service's obfuscated form of the book id, so the URL is stable per book.
func ReaderURL(bookID string) string {
	return DefaultWebURL + "/web/reader/" + readerID(bookID)
}

func readerID(bookID string) string {
	digest := md5Hex(bookID)

	var b strings.Builder
	b.WriteString(digest[:3])

	code, parts := encodeBookID(bookID)
	b.WriteString(code)
	b.WriteString("2")
	b.WriteString(digest[len(digest)-2:])

	for i, part := range parts {
		fmt.Fprintf(&b, "%02x", len(part))
		b.WriteString(part)
		if i < len(parts)-1 {
			b.WriteString("g")
		}
	}

	result := b.String()
	if len(result) < 20 {
		result += digest[:20-len(result)]
	}
	return result + md5Hex(result)[:3]
}

// encodeBookID hex-encodes numeric ids in 9-digit chunks and other ids rune by rune.
func encodeBookID(bookID string) (string, []string) {
	if isDigits(bookID) {
		var parts []string
		for i := 0; i < len(bookID); i += 9 {
			end := min(i+9, len(bookID))
			n, _ := strconv.ParseInt(bookID[i:end], 10, 64)
			parts = append(parts, strconv.FormatInt(n, 16))
		}
		return "3", parts
	}

	var b strings.Builder
	for _, r := range bookID {
		b.WriteString(strconv.FormatInt(int64(r), 16))
	}
	return "4", []string{b.String()}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
