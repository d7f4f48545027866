// Package search implements the ranking and matching used by the Readwise tools:
// topic matching over documents, scored highlight search and fuzzy book lookup.
package search

import (
	"regexp"
	"strings"

	"github.com/ternarybob/readwise-mcp/internal/readwise"
)

// containsFold reports whether needle occurs in haystack, ignoring case.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// TermMatcher matches text against a set of literal terms, case-insensitively.
type TermMatcher struct {
	patterns []*regexp.Regexp
}

// NewTermMatcher builds one escaped, case-insensitive pattern per non-empty term.
func NewTermMatcher(terms []string) *TermMatcher {
	m := &TermMatcher{}
	for _, term := range terms {
		if term == "" {
			continue
		}
		m.patterns = append(m.patterns, regexp.MustCompile("(?i)"+regexp.QuoteMeta(term)))
	}
	return m
}

// Len returns the number of active patterns.
func (m *TermMatcher) Len() int {
	return len(m.patterns)
}

// MatchString reports whether any term occurs in text.
func (m *TermMatcher) MatchString(text string) bool {
	for _, p := range m.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// DocumentText is the searchable text of a document: title, summary, notes and tags.
func DocumentText(doc readwise.Document) string {
	fields := []string{
		doc.Title,
		doc.Summary,
		doc.Notes,
		strings.Join(doc.Tags.Names(), " "),
	}
	return strings.Join(fields, " ")
}
