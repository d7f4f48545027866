package models

import (
	"github.com/ternarybob/readwise-mcp/internal/readwise"
	"github.com/ternarybob/readwise-mcp/internal/services/search"
)

// CombinedSearchResult is the outcome of a search across documents and highlights.
type CombinedSearchResult struct {
	Documents  []readwise.Document `json:"documents"`
	Highlights []search.Result     `json:"highlights"`
	Books      []readwise.Book     `json:"books"`
}
