package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/readwise-mcp/internal/models"
	"github.com/ternarybob/readwise-mcp/internal/readwise"
	"github.com/ternarybob/readwise-mcp/internal/services/cache"
	"github.com/ternarybob/readwise-mcp/internal/services/search"
)

func newTestService(t *testing.T, handler http.HandlerFunc, limits Limits) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := readwise.NewClient("test-token",
		readwise.WithBaseURL(srv.URL+"/api/v3"),
		readwise.WithV2BaseURL(srv.URL+"/api/v2"),
		readwise.WithAuthURL(srv.URL+"/api/v2/auth/"),
	)
	require.NoError(t, err)

	logger := arbor.NewLogger()
	return NewService(client, cache.NewService(time.Minute, logger), limits, logger)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func makeDocs(n int) []readwise.Document {
	docs := make([]readwise.Document, n)
	for i := range docs {
		docs[i] = readwise.Document{ID: strconv.Itoa(i + 1), Title: fmt.Sprintf("Doc %d", i+1)}
	}
	return docs
}

func TestListDocuments_FullContentAboveMaxReturnsErrorMessage(t *testing.T) {
	docs := makeDocs(25)
	var probes, fetches int32

	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("withFullContent") == "" {
			atomic.AddInt32(&probes, 1)
			writeJSON(t, w, readwise.DocumentList{Count: len(docs), Results: docs})
			return
		}
		assert.Equal(t, "true", q.Get("withFullContent"))
		atomic.AddInt32(&fetches, 1)
		writeJSON(t, w, readwise.DocumentList{Count: len(docs), NextPageCursor: "next", Results: docs})
	}, DefaultLimits())

	resp, err := svc.ListDocuments(context.Background(), readwise.ListDocumentsParams{WithFullContent: true})
	require.NoError(t, err)

	assert.Equal(t, int32(1), probes)
	assert.Equal(t, int32(1), fetches)
	assert.LessOrEqual(t, len(resp.Data.Results), 5)
	assert.Equal(t, 5, resp.Data.Count)
	assert.Equal(t, "next", resp.Data.NextPageCursor)

	require.Len(t, resp.Messages, 1)
	assert.Equal(t, models.MessageError, resp.Messages[0].Type)
	assert.Contains(t, resp.Messages[0].Content, "Found 25 documents, but only returning the first 5")
	assert.Contains(t, resp.Messages[0].Content, "more than 20 documents is not supported")
}

func TestListDocuments_FullContentWithinMaxReturnsInfoMessage(t *testing.T) {
	docs := makeDocs(12)
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, readwise.DocumentList{Count: len(docs), Results: docs})
	}, DefaultLimits())

	resp, err := svc.ListDocuments(context.Background(), readwise.ListDocumentsParams{WithFullContent: true, Limit: 3})
	require.NoError(t, err)

	require.Len(t, resp.Data.Results, 3)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, models.MessageInfo, resp.Messages[0].Type)
	assert.Contains(t, resp.Messages[0].Content, "To get the remaining 9 documents with full content")
}

func TestListDocuments_FullContentUnderLimitHasNoMessage(t *testing.T) {
	docs := makeDocs(4)
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, readwise.DocumentList{Count: len(docs), Results: docs})
	}, DefaultLimits())

	resp, err := svc.ListDocuments(context.Background(), readwise.ListDocumentsParams{WithFullContent: true})
	require.NoError(t, err)
	assert.Len(t, resp.Data.Results, 4)
	assert.Empty(t, resp.Messages)
}

func TestListDocuments_PlainListingAppliesLimit(t *testing.T) {
	docs := makeDocs(10)
	var calls int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "later", r.URL.Query().Get("location"))
		writeJSON(t, w, readwise.DocumentList{Count: len(docs), Results: docs})
	}, DefaultLimits())

	resp, err := svc.ListDocuments(context.Background(), readwise.ListDocumentsParams{Location: readwise.LocationLater, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls, "no count probe without full content")
	assert.Len(t, resp.Data.Results, 2)
	assert.Equal(t, 2, resp.Data.Count)
}

func TestSearchDocumentsByTopic(t *testing.T) {
	pages := map[string]readwise.DocumentList{
		"":   {Count: 3, NextPageCursor: "p2", Results: []readwise.Document{{ID: "1", Title: "Machine Learning"}, {ID: "2", Title: "Cooking"}}},
		"p2": {Count: 3, Results: []readwise.Document{{ID: "3", Title: "Other", Summary: "all about machine learning"}}},
	}
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("withHtmlContent"))
		writeJSON(t, w, pages[r.URL.Query().Get("pageCursor")])
	}, DefaultLimits())

	resp, err := svc.SearchDocumentsByTopic(context.Background(), []string{"Machine Learning"})
	require.NoError(t, err)

	ids := []string{}
	for _, d := range resp.Data {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"1", "3"}, ids)
	assert.Empty(t, resp.Messages)
}

func TestSearchDocumentsByTopic_EmptyCorpus(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, readwise.DocumentList{})
	}, DefaultLimits())

	resp, err := svc.SearchDocumentsByTopic(context.Background(), []string{"anything"})
	require.NoError(t, err)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
}

func TestSearchDocumentsByTopic_PageCapWarns(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, readwise.DocumentList{NextPageCursor: "more", Results: []readwise.Document{{ID: "x", Title: "topic"}}})
	}, Limits{MaxPages: 2})

	resp, err := svc.SearchDocumentsByTopic(context.Background(), []string{"topic"})
	require.NoError(t, err)
	assert.Len(t, resp.Data, 2)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, models.MessageWarning, resp.Messages[0].Type)
}

func TestSearchDocumentsByTopic_RateLimited(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "45")
		w.WriteHeader(http.StatusTooManyRequests)
	}, DefaultLimits())

	_, err := svc.SearchDocumentsByTopic(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, readwise.UserMessage(err), "45 seconds")
}

func exportFixture() readwise.ExportResponse {
	return readwise.ExportResponse{
		Count: 2,
		Results: []readwise.Book{
			{
				ID: 1, Title: "Antifragile", Author: "Nassim Taleb",
				Highlights: []readwise.Highlight{
					{ID: 10, Text: "Resilience is not enough", Note: "resilience vs antifragility"}, // 18
					{ID: 11, Text: "Build resilience daily"},                                        // 10
				},
			},
			{
				ID: 2, Title: "Resilience Engineering", Author: "Someone",
				Highlights: []readwise.Highlight{
					{ID: 20, Text: "Unrelated"}, // 6
				},
			},
		},
	}
}

func TestSearchHighlights_TopResultsByScore(t *testing.T) {
	var exports int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/export/", r.URL.Path)
		atomic.AddInt32(&exports, 1)
		writeJSON(t, w, exportFixture())
	}, DefaultLimits())

	results, err := svc.SearchHighlights(context.Background(), search.HighlightQuery{TextQuery: "resilience", Limit: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 18, results[0].Score)
	assert.Equal(t, 10, results[1].Score)
	assert.Nil(t, results[0].Book.Highlights)

	// second search is served from the cached export
	all, err := svc.SearchHighlights(context.Background(), search.HighlightQuery{TextQuery: "resilience"})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, int32(1), exports)
}

func TestSearchHighlights_EmptyQueryMakesNoRequest(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}, DefaultLimits())

	results, err := svc.SearchHighlights(context.Background(), search.HighlightQuery{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindBook(t *testing.T) {
	var calls int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		q := r.URL.Query()
		assert.Equal(t, "100", q.Get("page_size"))
		if q.Get("title") == "missing" {
			writeJSON(t, w, readwise.BookList{})
			return
		}
		writeJSON(t, w, readwise.BookList{Results: []readwise.Book{
			{ID: 1, Title: "Thinking Fast & Slow"},
			{ID: 2, Title: "Thinking, Fast and Slow"},
		}})
	}, DefaultLimits())

	book, err := svc.FindBook(context.Background(), "Thinking Fast and Slow")
	require.NoError(t, err)
	assert.Equal(t, 2, book.ID)

	again, err := svc.FindBook(context.Background(), "Thinking Fast and Slow")
	require.NoError(t, err)
	assert.Equal(t, book.ID, again.ID)
	assert.Equal(t, int32(1), calls, "candidates are cached per title")

	_, err = svc.FindBook(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, readwise.IsNotFound(err))
	assert.Equal(t, "no book found matching 'missing'", err.Error())
}

func TestListTags_Cached(t *testing.T) {
	var calls int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(t, w, readwise.TagList{Results: []readwise.Tag{{Key: "go", Name: "go"}}})
	}, DefaultLimits())

	for i := 0; i < 3; i++ {
		tags, err := svc.ListTags(context.Background())
		require.NoError(t, err)
		assert.Len(t, tags, 1)
	}
	assert.Equal(t, int32(1), calls)
}

func TestDocumentWrites_InvalidateTags(t *testing.T) {
	var tagCalls int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/tags/":
			atomic.AddInt32(&tagCalls, 1)
			writeJSON(t, w, readwise.TagList{Results: []readwise.Tag{{Key: "go", Name: "go"}}})
		case "/api/v3/save/", "/api/v3/update/abc/":
			writeJSON(t, w, readwise.DocumentRef{ID: "abc"})
		case "/api/v3/delete/abc/":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}, DefaultLimits())
	ctx := context.Background()

	listTags := func() {
		_, err := svc.ListTags(ctx)
		require.NoError(t, err)
	}

	listTags()
	listTags()
	assert.Equal(t, int32(1), tagCalls)

	_, err := svc.SaveDocument(ctx, readwise.SaveDocumentRequest{URL: "https://example.com", Tags: []string{"new"}})
	require.NoError(t, err)
	listTags()
	assert.Equal(t, int32(2), tagCalls)

	_, err = svc.UpdateDocument(ctx, "abc", readwise.DocumentUpdate{Title: "Renamed"})
	require.NoError(t, err)
	listTags()
	assert.Equal(t, int32(3), tagCalls)

	require.NoError(t, svc.DeleteDocument(ctx, "abc"))
	listTags()
	assert.Equal(t, int32(4), tagCalls)
}

func TestCreateHighlights_InvalidatesExportAndBookLookups(t *testing.T) {
	var exports, lookups int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/export/":
			atomic.AddInt32(&exports, 1)
			writeJSON(t, w, exportFixture())
		case "/api/v2/books/":
			atomic.AddInt32(&lookups, 1)
			writeJSON(t, w, readwise.BookList{Results: []readwise.Book{{ID: 1, Title: "Antifragile"}}})
		case "/api/v2/highlights/":
			assert.Equal(t, http.MethodPost, r.Method)
			writeJSON(t, w, []readwise.CreatedBook{{ID: 1, Title: "Antifragile", NumHighlights: 3}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}, DefaultLimits())
	ctx := context.Background()

	warm := func() {
		_, err := svc.SearchHighlights(ctx, search.HighlightQuery{TextQuery: "resilience"})
		require.NoError(t, err)
		_, err = svc.FindBook(ctx, "Antifragile")
		require.NoError(t, err)
	}

	warm()
	warm()
	assert.Equal(t, int32(1), exports)
	assert.Equal(t, int32(1), lookups)

	_, err := svc.CreateHighlights(ctx, []readwise.HighlightInput{{Text: "Fragility is measurable", Title: "Antifragile"}})
	require.NoError(t, err)

	warm()
	assert.Equal(t, int32(2), exports)
	assert.Equal(t, int32(2), lookups)
}

func TestNewService_NilLoggerFallsBackToGlobal(t *testing.T) {
	svc := NewService(nil, nil, DefaultLimits(), nil)
	assert.NotNil(t, svc.logger)
}

func TestUpdateDocument_RequiresAField(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request")
	}, DefaultLimits())

	_, err := svc.UpdateDocument(context.Background(), "doc", readwise.DocumentUpdate{})
	var ve *readwise.ValidationError
	require.True(t, errors.As(err, &ve))
}

func TestSaveDocument_DefaultsLocation(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var body readwise.SaveDocumentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, readwise.LocationNew, body.Location)
		writeJSON(t, w, readwise.DocumentRef{ID: "abc", URL: "https://read.readwise.io/abc"})
	}, DefaultLimits())

	ref, err := svc.SaveDocument(context.Background(), readwise.SaveDocumentRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "abc", ref.ID)
}

func TestSearchAll(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/list/":
			writeJSON(t, w, readwise.DocumentList{Results: []readwise.Document{{ID: "d1", Title: "On resilience"}}})
		case "/api/v2/export/":
			writeJSON(t, w, exportFixture())
		case "/api/v2/books/":
			assert.Equal(t, "2", r.URL.Query().Get("page_size"))
			writeJSON(t, w, readwise.BookList{Results: []readwise.Book{{ID: 1}, {ID: 2}, {ID: 3}}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}, DefaultLimits())

	resp, err := svc.SearchAll(context.Background(), []string{"resilience"}, []string{"resilience"})
	require.NoError(t, err)
	require.Len(t, resp.Data.Documents, 1)
	assert.Len(t, resp.Data.Highlights, 3)

	ids := []int{}
	for _, b := range resp.Data.Books {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []int{1, 2}, ids)
}

func TestSearchAll_HighlightQueryUsesRawTerms(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/list/":
			writeJSON(t, w, readwise.DocumentList{Results: []readwise.Document{
				{ID: "d1", Title: "Man age and wisdom"},
				{ID: "d2", Title: "Cooking"},
			}})
		case "/api/v2/export/":
			writeJSON(t, w, readwise.ExportResponse{Count: 1, Results: []readwise.Book{{
				ID: 7, Title: "Leadership",
				Highlights: []readwise.Highlight{{ID: 70, Text: "How to manage a team"}},
			}}})
		case "/api/v2/books/":
			writeJSON(t, w, readwise.BookList{Results: []readwise.Book{{ID: 7, Title: "Leadership"}}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}, DefaultLimits())

	resp, err := svc.SearchAll(context.Background(), []string{"manage"}, []string{"man age", "manage"})
	require.NoError(t, err)

	require.Len(t, resp.Data.Highlights, 1)
	assert.Equal(t, 70, resp.Data.Highlights[0].Highlight.ID)
	require.Len(t, resp.Data.Books, 1)
	assert.Equal(t, 7, resp.Data.Books[0].ID)

	// topic search still sees the segmented variant
	require.Len(t, resp.Data.Documents, 1)
	assert.Equal(t, "d1", resp.Data.Documents[0].ID)
}

func TestGetBookHighlights(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "42", q.Get("book_id"))
		assert.Equal(t, "1000", q.Get("page_size"))
		writeJSON(t, w, readwise.HighlightList{Count: 1, Results: []readwise.Highlight{{ID: 1, BookID: 42}}})
	}, DefaultLimits())

	list, err := svc.GetBookHighlights(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)
}
