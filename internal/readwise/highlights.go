package readwise

import (
	"context"
	"fmt"
	"net/http"
)

// ListHighlights fetches one page of highlights.
func (c *Client) ListHighlights(ctx context.Context, params ListHighlightsParams) (*HighlightList, error) {
	var list HighlightList
	if err := c.do(ctx, http.MethodGet, "/highlights/", V2, params.Values(), nil, &list); err != nil {
		return nil, fmt.Errorf("list highlights: %w", err)
	}
	return &list, nil
}

// CreateHighlights posts highlights in one request.
func (c *Client) CreateHighlights(ctx context.Context, highlights []HighlightInput) ([]CreatedBook, error) {
	body := struct {
		Highlights []HighlightInput `json:"highlights"`
	}{Highlights: highlights}

	var created []CreatedBook
	if err := c.do(ctx, http.MethodPost, "/highlights/", V2, nil, body, &created); err != nil {
		return nil, fmt.Errorf("create highlights: %w", err)
	}
	return created, nil
}

// ExportHighlights fetches the export: every book with its highlights.
func (c *Client) ExportHighlights(ctx context.Context, params ExportParams) (*ExportResponse, error) {
	var export ExportResponse
	if err := c.do(ctx, http.MethodGet, "/export/", V2, params.Values(), nil, &export); err != nil {
		return nil, fmt.Errorf("export highlights: %w", err)
	}
	return &export, nil
}

// DailyReview fetches today's review highlights.
func (c *Client) DailyReview(ctx context.Context) (*DailyReview, error) {
	var review DailyReview
	if err := c.do(ctx, http.MethodGet, "/review/", V2, nil, nil, &review); err != nil {
		return nil, fmt.Errorf("daily review: %w", err)
	}
	return &review, nil
}

// ListBooks fetches one page of books.
func (c *Client) ListBooks(ctx context.Context, params ListBooksParams) (*BookList, error) {
	var list BookList
	if err := c.do(ctx, http.MethodGet, "/books/", V2, params.Values(), nil, &list); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return &list, nil
}
