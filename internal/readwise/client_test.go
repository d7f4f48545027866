package readwise

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points a client at an httptest server standing in for both API versions.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient("test-token",
		WithBaseURL(srv.URL+"/api/v3"),
		WithV2BaseURL(srv.URL+"/api/v2"),
		WithAuthURL(srv.URL+"/api/v2/auth/"),
	)
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "token", ve.Field)
}

func TestClient_SendsTokenAndRoutesVersions(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/api/v3/tags/":
			writeJSON(t, w, TagList{Results: []Tag{{Key: "ai", Name: "AI"}}})
		case "/api/v2/books/":
			writeJSON(t, w, BookList{Results: []Book{{ID: 1, Title: "Dune"}}})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	})

	ctx := context.Background()
	tags, err := client.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Tag{{Key: "ai", Name: "AI"}}, tags)

	books, err := client.ListBooks(ctx, ListBooksParams{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, books.Results, 1)

	require.NoError(t, client.ValidateAuth(ctx))
	assert.Equal(t, []string{"/api/v3/tags/", "/api/v2/books/", "/api/v2/auth/"}, paths)
}

func TestClient_RateLimitedWithRetryAfter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "45")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.ListTags(context.Background())
	require.Error(t, err)

	var rle *RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, 45*time.Second, rle.RetryAfter)
	assert.Contains(t, UserMessage(err), "45 seconds")
	assert.True(t, IsRateLimited(err))
}

func TestClient_RateLimitedDefaultsToSixtySeconds(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.DailyReview(context.Background())

	var rle *RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, DefaultRetryAfter, rle.RetryAfter)
	assert.Equal(t, "Rate limit exceeded. Too many requests. Please retry after 60 seconds.", UserMessage(err))
}

func TestClient_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Not found."}`)
	})

	_, err := client.UpdateDocument(context.Background(), "doc-1", DocumentUpdate{Title: "x"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, `{"detail":"Not found."}`, apiErr.Body)
	assert.Equal(t, "/update/doc-1/", apiErr.Endpoint)
	assert.Contains(t, err.Error(), "Readwise API error: 404")
}

func TestClient_EmptyBodyIsNotAnError(t *testing.T) {
	var method string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteDocument(context.Background(), "doc-9"))
	assert.Equal(t, http.MethodDelete, method)
}

func TestClient_SaveDocumentSendsBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var got map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "https://example.com/post", got["url"])
		assert.Equal(t, "later", got["location"])
		assert.NotContains(t, got, "html")
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, DocumentRef{ID: "new-id", URL: "https://read.readwise.io/new-id"})
	})

	ref, err := client.SaveDocument(context.Background(), SaveDocumentRequest{
		URL:      "https://example.com/post",
		Location: LocationLater,
	})
	require.NoError(t, err)
	assert.Equal(t, "new-id", ref.ID)
}

func TestClient_CreateHighlightsWrapsList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var got struct {
			Highlights []HighlightInput `json:"highlights"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		require.Len(t, got.Highlights, 2)
		writeJSON(t, w, []CreatedBook{{ID: 7, Title: "Notes", ModifiedHighlights: []int{1, 2}}})
	})

	created, err := client.CreateHighlights(context.Background(), []HighlightInput{{Text: "a"}, {Text: "b"}})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, []int{1, 2}, created[0].ModifiedHighlights)
}

func TestClient_WalkDocumentsFollowsCursor(t *testing.T) {
	pages := map[string]DocumentList{
		"":   {Count: 3, NextPageCursor: "c1", Results: []Document{{ID: "1"}}},
		"c1": {Count: 3, NextPageCursor: "c2", Results: []Document{{ID: "2"}}},
		"c2": {Count: 3, Results: []Document{{ID: "3"}}},
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("withHtmlContent"))
		writeJSON(t, w, pages[r.URL.Query().Get("pageCursor")])
	})

	var ids []string
	truncated, err := client.WalkDocuments(context.Background(), ListDocumentsParams{}, 0, func(page []Document) error {
		for _, d := range page {
			ids = append(ids, d.ID)
		}
		return nil
	})
	require.NoError(t, err)
	assert.False(t, truncated)
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestClient_WalkDocumentsStopsAtPageCap(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(t, w, DocumentList{NextPageCursor: "more", Results: []Document{{ID: "x"}}})
	})

	truncated, err := client.WalkDocuments(context.Background(), ListDocumentsParams{}, 2, func([]Document) error { return nil })
	require.NoError(t, err)
	assert.True(t, truncated)
	assert.Equal(t, 2, calls)
}

func TestClient_AbsoluteEndpointIsUsedVerbatim(t *testing.T) {
	client, err := NewClient("tok")
	require.NoError(t, err)

	assert.Equal(t, "https://other.example/x?a=1", client.resolve("https://other.example/x", V3, map[string][]string{"a": {"1"}}))
	assert.Equal(t, DefaultV2BaseURL+"/books/", client.resolve("/books/", V2, nil))
}

func TestDocumentTags_DecodesBothShapes(t *testing.T) {
	var fromList Document
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","tags":["go","mcp"]}`), &fromList))
	assert.Equal(t, []string{"go", "mcp"}, fromList.Tags.Names())

	var fromObject Document
	require.NoError(t, json.Unmarshal([]byte(`{"id":"b","tags":{"zeta":{"name":"Zeta"},"alpha":{"name":"Alpha"}}}`), &fromObject))
	assert.Equal(t, []string{"Alpha", "Zeta"}, fromObject.Tags.Names())

	out, err := json.Marshal(fromObject)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"zeta":{"name":"Zeta"}`)

	var none Document
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c","tags":null}`), &none))
	assert.Empty(t, none.Tags.Names())
}
