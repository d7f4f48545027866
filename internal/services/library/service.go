// Package library implements the Readwise operations behind the MCP tools on top
// of the API client: full-content guards, topic search, highlight scoring,
// fuzzy book lookup and response caching.
package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/readwise-mcp/internal/common"
	"github.com/ternarybob/readwise-mcp/internal/interfaces"
	"github.com/ternarybob/readwise-mcp/internal/models"
	"github.com/ternarybob/readwise-mcp/internal/readwise"
	"github.com/ternarybob/readwise-mcp/internal/services/search"
)

const (
	cacheKeyExport    = "export"
	cacheKeyTags      = "tags"
	cacheKeyBooksBase = "books:title="

	bookCandidateLimit   = 100
	bookHighlightsLimit  = 1000
	combinedSearchLimit  = 50
	combinedBooksMaxSize = 100
)

// Limits bounds full-content listings and topic search.
type Limits struct {
	DefaultLimit   int // documents returned with full content when no limit is given
	MaxFullContent int // above this count the full-content listing carries an error message
	MaxPages       int // page cap for topic search, 0 = unbounded
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{DefaultLimit: 5, MaxFullContent: 20}
}

// Service implements interfaces.ReadwiseService.
type Service struct {
	client *readwise.Client
	cache  interfaces.CacheService
	limits Limits
	logger arbor.ILogger
}

var _ interfaces.ReadwiseService = (*Service)(nil)

// NewService creates a library service. cache may be nil to disable caching.
func NewService(client *readwise.Client, cache interfaces.CacheService, limits Limits, logger arbor.ILogger) *Service {
	if logger == nil {
		logger = common.GetLogger()
	}
	defaults := DefaultLimits()
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = defaults.DefaultLimit
	}
	if limits.MaxFullContent <= 0 {
		limits.MaxFullContent = defaults.MaxFullContent
	}
	return &Service{
		client: client,
		cache:  cache,
		limits: limits,
		logger: logger,
	}
}

// ValidateAuth checks the token against the auth endpoint.
func (s *Service) ValidateAuth(ctx context.Context) error {
	return s.client.ValidateAuth(ctx)
}

// SaveDocument saves a URL to Reader.
func (s *Service) SaveDocument(ctx context.Context, req readwise.SaveDocumentRequest) (*readwise.DocumentRef, error) {
	if req.Location == "" {
		req.Location = readwise.LocationNew
	}
	ref, err := s.client.SaveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	s.invalidate(cacheKeyTags)
	s.logger.Info().Str("id", ref.ID).Str("url", req.URL).Msg("Document saved")
	return ref, nil
}

// ListDocuments lists Reader documents. With full content requested it first
// probes the match count; above the effective limit it returns only the first
// documents plus an info message (count within MaxFullContent) or an error
// message (count above it). Without full content a positive Limit truncates
// the page.
func (s *Service) ListDocuments(ctx context.Context, params readwise.ListDocumentsParams) (*models.Response[*readwise.DocumentList], error) {
	if params.WithFullContent {
		probe, err := s.client.ListDocuments(ctx, params.Values(false))
		if err != nil {
			return nil, fmt.Errorf("count documents: %w", err)
		}

		limit := params.Limit
		if limit <= 0 {
			limit = s.limits.DefaultLimit
		}

		if probe.Count > limit {
			page, err := s.client.ListDocuments(ctx, params.Values(true))
			if err != nil {
				return nil, err
			}
			truncate(page, limit)

			s.logger.Info().
				Int("total", probe.Count).
				Int("returned", len(page.Results)).
				Msg("Full-content listing truncated")

			return &models.Response[*readwise.DocumentList]{
				Data:     page,
				Messages: []models.Message{s.fullContentMessage(probe.Count, limit)},
			}, nil
		}
	}

	page, err := s.client.ListDocuments(ctx, params.Values(true))
	if err != nil {
		return nil, err
	}
	if params.Limit > 0 {
		truncate(page, params.Limit)
	}
	return &models.Response[*readwise.DocumentList]{Data: page}, nil
}

func (s *Service) fullContentMessage(total, limit int) models.Message {
	found := fmt.Sprintf("Found %d documents, but only returning the first %d due to full content request. ", total, limit)
	if total <= s.limits.MaxFullContent {
		return models.Info(found + fmt.Sprintf(
			"To get the remaining %d documents with full content, you can fetch them individually by their IDs using the update/read document API.",
			total-limit))
	}
	return models.Error(found + fmt.Sprintf(
		"Getting full content for more than %d documents is not supported due to performance limitations.",
		s.limits.MaxFullContent))
}

// truncate keeps the first n results and sets Count to the number kept.
func truncate(page *readwise.DocumentList, n int) {
	if len(page.Results) > n {
		page.Results = page.Results[:n]
	}
	page.Count = len(page.Results)
}

// UpdateDocument patches document metadata.
func (s *Service) UpdateDocument(ctx context.Context, id string, update readwise.DocumentUpdate) (*readwise.DocumentRef, error) {
	if update.IsEmpty() {
		return nil, &readwise.ValidationError{Message: "at least one field to update is required"}
	}
	ref, err := s.client.UpdateDocument(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.invalidate(cacheKeyTags)
	return ref, nil
}

// DeleteDocument removes a document.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	if err := s.client.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.invalidate(cacheKeyTags)
	s.logger.Info().Str("id", id).Msg("Document deleted")
	return nil
}

// ListTags returns the Reader tags, cached for the cache TTL.
func (s *Service) ListTags(ctx context.Context) ([]readwise.Tag, error) {
	if tags, ok := cached[[]readwise.Tag](s.cache, cacheKeyTags); ok {
		return tags, nil
	}
	tags, err := s.client.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []readwise.Tag{}
	}
	s.store(cacheKeyTags, tags)
	return tags, nil
}

// SearchDocumentsByTopic walks every document page without content and keeps
// those whose title, summary, notes or tags match any term.
func (s *Service) SearchDocumentsByTopic(ctx context.Context, terms []string) (*models.Response[[]readwise.Document], error) {
	matcher := search.NewTermMatcher(terms)
	matches := []readwise.Document{}
	scanned := 0

	truncated, err := s.client.WalkDocuments(ctx, readwise.ListDocumentsParams{}, s.limits.MaxPages, func(page []readwise.Document) error {
		scanned += len(page)
		matches = append(matches, search.MatchDocuments(page, matcher)...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("topic search: %w", err)
	}

	s.logger.Debug().
		Strs("terms", terms).
		Int("scanned", scanned).
		Int("matches", len(matches)).
		Msg("Topic search complete")

	resp := &models.Response[[]readwise.Document]{Data: matches}
	if truncated {
		resp.Messages = append(resp.Messages, models.Warning(fmt.Sprintf(
			"Search stopped after %d pages (%d documents scanned); results may be incomplete.",
			s.limits.MaxPages, scanned)))
	}
	return resp, nil
}

// ListHighlights lists highlights.
func (s *Service) ListHighlights(ctx context.Context, params readwise.ListHighlightsParams) (*readwise.HighlightList, error) {
	return s.client.ListHighlights(ctx, params)
}

// CreateHighlights creates highlights in one request.
func (s *Service) CreateHighlights(ctx context.Context, highlights []readwise.HighlightInput) ([]readwise.CreatedBook, error) {
	if len(highlights) == 0 {
		return nil, &readwise.ValidationError{Field: "highlights", Message: "at least one highlight is required"}
	}
	created, err := s.client.CreateHighlights(ctx, highlights)
	if err != nil {
		return nil, err
	}
	s.invalidate(cacheKeyExport)
	if s.cache != nil {
		s.cache.DeletePrefix(cacheKeyBooksBase)
	}
	s.logger.Info().Int("count", len(highlights)).Int("books", len(created)).Msg("Highlights created")
	return created, nil
}

// ExportHighlights performs a single export request.
func (s *Service) ExportHighlights(ctx context.Context, params readwise.ExportParams) (*readwise.ExportResponse, error) {
	return s.client.ExportHighlights(ctx, params)
}

// DailyReview returns today's review.
func (s *Service) DailyReview(ctx context.Context) (*readwise.DailyReview, error) {
	return s.client.DailyReview(ctx)
}

// ListBooks lists books.
func (s *Service) ListBooks(ctx context.Context, params readwise.ListBooksParams) (*readwise.BookList, error) {
	return s.client.ListBooks(ctx, params)
}

// FindBook resolves a title to the most similar book among up to 100
// candidates returned for that title. Candidate lists are cached per title.
func (s *Service) FindBook(ctx context.Context, title string) (*readwise.Book, error) {
	key := cacheKeyBooksBase + title

	candidates, ok := cached[[]readwise.Book](s.cache, key)
	if !ok {
		list, err := s.client.ListBooks(ctx, readwise.ListBooksParams{PageSize: bookCandidateLimit, Title: title})
		if err != nil {
			return nil, err
		}
		candidates = list.Results
		s.store(key, candidates)
	}

	best, ratio, found := search.BestTitleMatch(title, candidates)
	if !found {
		return nil, &readwise.NotFoundError{Resource: "book", Query: title}
	}

	s.logger.Debug().
		Str("query", title).
		Str("title", best.Title).
		Int("book_id", best.ID).
		Str("ratio", fmt.Sprintf("%.3f", ratio)).
		Msg("Book matched")

	return &best, nil
}

// GetBookHighlights lists up to 1000 highlights of one book.
func (s *Service) GetBookHighlights(ctx context.Context, bookID int) (*readwise.HighlightList, error) {
	return s.client.ListHighlights(ctx, readwise.ListHighlightsParams{BookID: bookID, PageSize: bookHighlightsLimit})
}

// SearchHighlights scores every exported highlight against query. The export
// payload is cached for the cache TTL.
func (s *Service) SearchHighlights(ctx context.Context, query search.HighlightQuery) ([]search.Result, error) {
	if query.IsEmpty() {
		return []search.Result{}, nil
	}

	export, err := s.export(ctx)
	if err != nil {
		return nil, fmt.Errorf("search highlights: %w", err)
	}

	results := search.ScoreHighlights(export.Results, query)
	s.logger.Debug().
		Str("text_query", query.TextQuery).
		Int("field_queries", len(query.FieldQueries)).
		Int("results", len(results)).
		Msg("Highlight search complete")
	return results, nil
}

func (s *Service) export(ctx context.Context) (*readwise.ExportResponse, error) {
	if export, ok := cached[*readwise.ExportResponse](s.cache, cacheKeyExport); ok {
		return export, nil
	}
	export, err := s.client.ExportHighlights(ctx, readwise.ExportParams{})
	if err != nil {
		return nil, err
	}
	s.store(cacheKeyExport, export)
	return export, nil
}

// SearchAll runs a topic search over documents with topicTerms and a highlight
// search with queryTerms joined into one query, then lists the books behind
// the highlight hits. topicTerms may carry extra variants of the query terms;
// they stay out of the highlight query, which must match as one phrase.
func (s *Service) SearchAll(ctx context.Context, queryTerms, topicTerms []string) (*models.Response[*models.CombinedSearchResult], error) {
	docs, err := s.SearchDocumentsByTopic(ctx, topicTerms)
	if err != nil {
		return nil, err
	}

	highlights, err := s.SearchHighlights(ctx, search.HighlightQuery{
		TextQuery: strings.Join(queryTerms, " "),
		Limit:     combinedSearchLimit,
	})
	if err != nil {
		return nil, err
	}

	bookIDs := make(map[int]bool)
	for _, r := range highlights {
		bookIDs[r.Book.ID] = true
	}

	books := []readwise.Book{}
	if len(bookIDs) > 0 {
		pageSize := len(bookIDs)
		if pageSize > combinedBooksMaxSize {
			pageSize = combinedBooksMaxSize
		}
		list, err := s.client.ListBooks(ctx, readwise.ListBooksParams{PageSize: pageSize})
		if err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
		for _, b := range list.Results {
			if bookIDs[b.ID] {
				books = append(books, b)
			}
		}
	}

	return &models.Response[*models.CombinedSearchResult]{
		Data: &models.CombinedSearchResult{
			Documents:  docs.Data,
			Highlights: highlights,
			Books:      books,
		},
		Messages: docs.Messages,
	}, nil
}

func (s *Service) store(key string, value interface{}) {
	if s.cache != nil {
		s.cache.Set(key, value)
	}
}

// invalidate drops cached payloads a write may have made stale.
func (s *Service) invalidate(keys ...string) {
	if s.cache == nil {
		return
	}
	for _, key := range keys {
		s.cache.Delete(key)
	}
}

// cached reads key from cache and asserts its type.
func cached[T any](cache interfaces.CacheService, key string) (T, bool) {
	var zero T
	if cache == nil {
		return zero, false
	}
	v, ok := cache.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}
