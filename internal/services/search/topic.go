package search

import (
	"github.com/ternarybob/readwise-mcp/internal/readwise"
)

// MatchDocuments returns the documents whose searchable text matches any term,
// in input order. No terms means no matches.
func MatchDocuments(docs []readwise.Document, matcher *TermMatcher) []readwise.Document {
	matches := []readwise.Document{}
	if matcher == nil || matcher.Len() == 0 {
		return matches
	}
	for _, doc := range docs {
		if matcher.MatchString(DocumentText(doc)) {
			matches = append(matches, doc)
		}
	}
	return matches
}
