package readwise

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// SaveDocument saves a URL (optionally with HTML) to Reader.
func (c *Client) SaveDocument(ctx context.Context, req SaveDocumentRequest) (*DocumentRef, error) {
	var ref DocumentRef
	if err := c.do(ctx, http.MethodPost, "/save/", V3, nil, req, &ref); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return &ref, nil
}

// ListDocuments fetches one page of /list/.
func (c *Client) ListDocuments(ctx context.Context, query url.Values) (*DocumentList, error) {
	var list DocumentList
	if err := c.do(ctx, http.MethodGet, "/list/", V3, query, nil, &list); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return &list, nil
}

// UpdateDocument patches document metadata.
func (c *Client) UpdateDocument(ctx context.Context, id string, update DocumentUpdate) (*DocumentRef, error) {
	var ref DocumentRef
	if err := c.do(ctx, http.MethodPatch, "/update/"+url.PathEscape(id)+"/", V3, nil, update, &ref); err != nil {
		return nil, fmt.Errorf("update document %s: %w", id, err)
	}
	return &ref, nil
}

// DeleteDocument removes a document.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/delete/"+url.PathEscape(id)+"/", V3, nil, nil, nil); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// ListTags fetches the Reader tag list.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	var list TagList
	if err := c.do(ctx, http.MethodGet, "/tags/", V3, nil, nil, &list); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return list.Results, nil
}

// PageFunc receives one page of documents. Returning an error stops the walk.
type PageFunc func(page []Document) error

// WalkDocuments follows nextPageCursor from the first page until the cursor is
// absent, handing each page to fn as it arrives. maxPages <= 0 means no cap.
// The returned flag reports whether the cap stopped the walk early.
func (c *Client) WalkDocuments(ctx context.Context, params ListDocumentsParams, maxPages int, fn PageFunc) (bool, error) {
	cursor := params.PageCursor
	pages := 0

	for {
		params.PageCursor = cursor
		page, err := c.ListDocuments(ctx, params.Values(true))
		if err != nil {
			return false, err
		}
		pages++

		if err := fn(page.Results); err != nil {
			return false, err
		}

		cursor = page.NextPageCursor
		if cursor == "" {
			return false, nil
		}
		if maxPages > 0 && pages >= maxPages {
			if c.logger != nil {
				c.logger.Warn().
					Int("pages", pages).
					Msg("Document walk stopped at page cap")
			}
			return true, nil
		}
	}
}
