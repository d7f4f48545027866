package search

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/ternarybob/readwise-mcp/internal/readwise"
)

// Ratio returns the longest-matching-blocks similarity of a and b in [0,1]:
// 2*M/T where M is the number of matched characters and T the total length.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	m := difflib.NewMatcher(splitChars(a), splitChars(b))
	return m.Ratio()
}

func splitChars(s string) []string {
	return strings.Split(s, "")
}

// BestTitleMatch picks the book whose lower-cased title is most similar to the
// lower-cased query. Ties keep the first candidate seen. ok is false when
// there are no candidates.
func BestTitleMatch(query string, candidates []readwise.Book) (best readwise.Book, ratio float64, ok bool) {
	q := strings.ToLower(query)
	ratio = -1
	for _, book := range candidates {
		r := Ratio(q, strings.ToLower(book.Title))
		if r > ratio {
			best = book
			ratio = r
			ok = true
		}
	}
	if !ok {
		return readwise.Book{}, 0, false
	}
	return best, ratio, true
}
