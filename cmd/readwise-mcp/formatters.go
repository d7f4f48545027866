package main

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ternarybob/readwise-mcp/internal/models"
	"github.com/ternarybob/readwise-mcp/internal/readwise"
	"github.com/ternarybob/readwise-mcp/internal/services/search"
)

// envelope is the tool response body. Tool-specific keys sit next to the
// shared success/data/error/messages fields.
type envelope struct {
	models.Envelope
	SearchTermsUsed []string `json:"searchTermsUsed,omitempty"`
	TotalResults    *int     `json:"totalResults,omitempty"`
	BookID          int      `json:"bookId,omitempty"`
	CreatedCount    int      `json:"created_count,omitempty"`
}

func success(data interface{}, messages []models.Message) envelope {
	return envelope{Envelope: models.Envelope{Success: true, Data: data, Messages: messages}}
}

func failure(err error) envelope {
	return envelope{Envelope: models.Envelope{Success: false, Error: readwise.UserMessage(err)}}
}

// toolResult renders env as JSON text. IsError mirrors !success so clients can
// tell failures apart without parsing.
func toolResult(env envelope) *mcp.CallToolResult {
	body, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		body = []byte(`{"success":false,"error":"failed to encode response"}`)
		env.Success = false
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(string(body)),
		},
		IsError: !env.Success,
	}
}

type highlightSummary struct {
	ID     int    `json:"id"`
	Text   string `json:"text"`
	Note   string `json:"note"`
	BookID int    `json:"book_id"`
}

type highlightPage struct {
	Count    int                `json:"count"`
	Next     string             `json:"next,omitempty"`
	Previous string             `json:"previous,omitempty"`
	Results  []highlightSummary `json:"results"`
}

// projectHighlights keeps only the fields an agent needs from a highlight list.
func projectHighlights(list *readwise.HighlightList) highlightPage {
	page := highlightPage{
		Count:    list.Count,
		Next:     list.Next,
		Previous: list.Previous,
		Results:  make([]highlightSummary, 0, len(list.Results)),
	}
	for _, h := range list.Results {
		page.Results = append(page.Results, highlightSummary{
			ID:     h.ID,
			Text:   h.Text,
			Note:   h.Note,
			BookID: h.BookID,
		})
	}
	return page
}

type bookSummary struct {
	ID            int                   `json:"id"`
	Title         string                `json:"title"`
	Author        string                `json:"author"`
	Category      readwise.BookCategory `json:"category"`
	NumHighlights int                   `json:"num_highlights"`
}

type bookPage struct {
	Count    int           `json:"count"`
	Next     string        `json:"next,omitempty"`
	Previous string        `json:"previous,omitempty"`
	Results  []bookSummary `json:"results"`
}

// projectBooks keeps only the fields an agent needs from a book list.
func projectBooks(list *readwise.BookList) bookPage {
	page := bookPage{
		Count:    list.Count,
		Next:     list.Next,
		Previous: list.Previous,
		Results:  make([]bookSummary, 0, len(list.Results)),
	}
	for _, b := range list.Results {
		page.Results = append(page.Results, bookSummary{
			ID:            b.ID,
			Title:         b.Title,
			Author:        b.Author,
			Category:      b.Category,
			NumHighlights: b.NumHighlights,
		})
	}
	return page
}

type searchHit struct {
	Text   string `json:"text"`
	Book   string `json:"book"`
	Author string `json:"author"`
	Score  int    `json:"score"`
}

// projectSearchResults flattens scored results to text, book, author and score.
func projectSearchResults(results []search.Result) []searchHit {
	hits := make([]searchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, searchHit{
			Text:   r.Highlight.Text,
			Book:   r.Book.Title,
			Author: r.Book.Author,
			Score:  r.Score,
		})
	}
	return hits
}
