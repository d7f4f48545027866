package interfaces

import (
	"context"

	"github.com/ternarybob/readwise-mcp/internal/models"
	"github.com/ternarybob/readwise-mcp/internal/readwise"
	"github.com/ternarybob/readwise-mcp/internal/services/search"
)

// ReadwiseService exposes the Readwise operations behind the MCP tools.
// Errors are returned as-is; callers render them with readwise.UserMessage.
type ReadwiseService interface {
	ValidateAuth(ctx context.Context) error

	// Reader documents
	SaveDocument(ctx context.Context, req readwise.SaveDocumentRequest) (*readwise.DocumentRef, error)
	ListDocuments(ctx context.Context, params readwise.ListDocumentsParams) (*models.Response[*readwise.DocumentList], error)
	UpdateDocument(ctx context.Context, id string, update readwise.DocumentUpdate) (*readwise.DocumentRef, error)
	DeleteDocument(ctx context.Context, id string) error
	ListTags(ctx context.Context) ([]readwise.Tag, error)
	SearchDocumentsByTopic(ctx context.Context, terms []string) (*models.Response[[]readwise.Document], error)

	// Highlights
	ListHighlights(ctx context.Context, params readwise.ListHighlightsParams) (*readwise.HighlightList, error)
	CreateHighlights(ctx context.Context, highlights []readwise.HighlightInput) ([]readwise.CreatedBook, error)
	ExportHighlights(ctx context.Context, params readwise.ExportParams) (*readwise.ExportResponse, error)
	DailyReview(ctx context.Context) (*readwise.DailyReview, error)
	ListBooks(ctx context.Context, params readwise.ListBooksParams) (*readwise.BookList, error)
	FindBook(ctx context.Context, title string) (*readwise.Book, error)
	GetBookHighlights(ctx context.Context, bookID int) (*readwise.HighlightList, error)
	SearchHighlights(ctx context.Context, query search.HighlightQuery) ([]search.Result, error)

	// SearchAll combines topic search over topicTerms, highlight search over
	// queryTerms and the books behind the highlight hits.
	SearchAll(ctx context.Context, queryTerms, topicTerms []string) (*models.Response[*models.CombinedSearchResult], error)
}
