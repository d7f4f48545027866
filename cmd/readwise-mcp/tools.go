package main

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

var (
	locationValues     = []string{"new", "later", "shortlist", "archive", "feed"}
	categoryValues     = []string{"article", "book", "tweet", "pdf", "email", "youtube", "podcast", "video"}
	bookCategoryValues = []string{"books", "articles", "tweets", "podcasts", "supplementals"}
	fieldValues        = []string{"document_title", "document_author", "highlight_text", "highlight_note", "highlight_tags"}
)

// ========== Reader tools ==========

func createSaveDocumentTool() mcp.Tool {
	return mcp.NewTool("readwise_save_document",
		mcp.WithDescription("Save a document (URL or HTML content) to Readwise Reader"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("URL of the document to save"),
		),
		mcp.WithString("html",
			mcp.Description("HTML content of the document (optional)"),
		),
		mcp.WithArray("tags",
			mcp.WithStringItems(),
			mcp.Description("Tags to add to the document"),
		),
		mcp.WithString("location",
			mcp.Enum(locationValues...),
			mcp.Description("Location to save the document (default: new)"),
		),
		mcp.WithString("category",
			mcp.Enum(categoryValues...),
			mcp.Description("Category of the document"),
		),
	)
}

// createListDocumentsTool describes readwise_list_documents with the configured
// full-content limit and content length.
func createListDocumentsTool(fullContentLimit, maxLength int) mcp.Tool {
	return mcp.NewTool("readwise_list_documents",
		mcp.WithDescription(fmt.Sprintf("List documents from Readwise Reader with optional filtering and content controls. "+
			"Requesting full content returns at most %d documents unless a limit is given.", fullContentLimit)),
		mcp.WithString("id", mcp.Description("Filter by specific document ID")),
		mcp.WithString("updatedAfter", mcp.Description("Filter documents updated after this date (ISO 8601)")),
		mcp.WithString("addedAfter", mcp.Description("Filter documents added after this date (ISO 8601)")),
		mcp.WithString("location",
			mcp.Enum(locationValues...),
			mcp.Description("Filter by document location"),
		),
		mcp.WithString("category",
			mcp.Enum(categoryValues...),
			mcp.Description("Filter by document category"),
		),
		mcp.WithString("tag", mcp.Description("Filter by tag name")),
		mcp.WithString("pageCursor", mcp.Description("Page cursor for pagination")),
		mcp.WithBoolean("withHtmlContent", mcp.Description("Include HTML content (performance warning)")),
		mcp.WithBoolean("withFullContent", mcp.Description("Include full text content (performance warning)")),
		mcp.WithNumber("contentMaxLength", mcp.Description(fmt.Sprintf("Maximum content length per document (default: %d)", maxLength))),
		mcp.WithNumber("contentStartOffset", mcp.Description("Character offset to start content extraction (default: 0)")),
		mcp.WithArray("contentFilterKeywords",
			mcp.WithStringItems(),
			mcp.Description("Keep only sentences containing any of these keywords"),
		),
		mcp.WithString("contentFormat",
			mcp.Enum("text", "markdown"),
			mcp.Description("Render content as plain text (default) or markdown"),
		),
		mcp.WithNumber("limit", mcp.Description("Maximum number of documents to return")),
	)
}

func createUpdateDocumentTool() mcp.Tool {
	return mcp.NewTool("readwise_update_document",
		mcp.WithDescription("Update a document in Readwise Reader"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Document ID to update"),
		),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("author", mcp.Description("New author")),
		mcp.WithString("summary", mcp.Description("New summary")),
		mcp.WithString("published_date", mcp.Description("New published date (ISO 8601)")),
		mcp.WithString("image_url", mcp.Description("New image URL")),
		mcp.WithString("location",
			mcp.Enum(locationValues...),
			mcp.Description("New location"),
		),
		mcp.WithString("category",
			mcp.Enum(categoryValues...),
			mcp.Description("New category"),
		),
	)
}

func createDeleteDocumentTool() mcp.Tool {
	return mcp.NewTool("readwise_delete_document",
		mcp.WithDescription("Delete a document from Readwise Reader"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Document ID to delete"),
		),
	)
}

func createListTagsTool() mcp.Tool {
	return mcp.NewTool("readwise_list_tags",
		mcp.WithDescription("Get all document tags from Readwise Reader"),
	)
}

func createTopicSearchTool() mcp.Tool {
	return mcp.NewTool("readwise_topic_search",
		mcp.WithDescription("Search documents in Readwise Reader by topic. Matches titles, summaries, notes and tags, case-insensitively. "+
			"Run-together terms are also searched in segmented form."),
		mcp.WithArray("searchTerms",
			mcp.Required(),
			mcp.WithStringItems(),
			mcp.Description("Search terms to look for"),
		),
	)
}

// ========== Highlights tools ==========

func createListHighlightsTool() mcp.Tool {
	return mcp.NewTool("readwise_list_highlights",
		mcp.WithDescription("List highlights with filtering. Returns id, text, note and book_id per highlight."),
		mcp.WithNumber("page_size", mcp.Description("Number of highlights per page (default: 100, max: 1000)")),
		mcp.WithNumber("page", mcp.Description("Page number")),
		mcp.WithNumber("book_id", mcp.Description("Filter by book ID")),
		mcp.WithString("updated__lt", mcp.Description("Updated before this date")),
		mcp.WithString("updated__gt", mcp.Description("Updated after this date")),
		mcp.WithString("highlighted_at__lt", mcp.Description("Highlighted before this date")),
		mcp.WithString("highlighted_at__gt", mcp.Description("Highlighted after this date")),
	)
}

func createDailyReviewTool() mcp.Tool {
	return mcp.NewTool("readwise_get_daily_review",
		mcp.WithDescription("Get daily review highlights for spaced repetition learning"),
	)
}

func createSearchHighlightsTool() mcp.Tool {
	return mcp.NewTool("readwise_search_highlights",
		mcp.WithDescription("Search highlights with relevance scoring. A text query scores highlight text (10), note (8), "+
			"book title (6) and author (4); field queries target one field each. Results are ordered by score."),
		mcp.WithString("textQuery", mcp.Description("Main search query")),
		mcp.WithArray("fieldQueries",
			mcp.Description("Field-specific queries"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"field": map[string]any{
						"type": "string",
						"enum": fieldValues,
					},
					"searchTerm": map[string]any{
						"type": "string",
					},
				},
				"required": []string{"field", "searchTerm"},
			}),
		),
		mcp.WithNumber("bookId", mcp.Description("Filter by book ID")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results")),
	)
}

func createListBooksTool() mcp.Tool {
	return mcp.NewTool("readwise_list_books",
		mcp.WithDescription("Get books with highlight counts. Returns id, title, author, category and num_highlights per book."),
		mcp.WithNumber("page_size", mcp.Description("Number of books per page (default: 100, max: 1000)")),
		mcp.WithNumber("page", mcp.Description("Page number")),
		mcp.WithString("category",
			mcp.Enum(bookCategoryValues...),
			mcp.Description("Filter by category"),
		),
		mcp.WithString("source", mcp.Description("Filter by source")),
		mcp.WithString("updated__lt", mcp.Description("Updated before this date")),
		mcp.WithString("updated__gt", mcp.Description("Updated after this date")),
		mcp.WithString("last_highlight_at__lt", mcp.Description("Last highlight before this date")),
		mcp.WithString("last_highlight_at__gt", mcp.Description("Last highlight after this date")),
	)
}

func createGetBookHighlightsTool() mcp.Tool {
	return mcp.NewTool("readwise_get_book_highlights",
		mcp.WithDescription("Get all highlights from a specific book, by ID or by approximate title"),
		mcp.WithNumber("bookId", mcp.Description("Book ID to get highlights from")),
		mcp.WithString("bookTitle", mcp.Description("Book title; the closest matching book is used when bookId is not given")),
	)
}

func createExportHighlightsTool() mcp.Tool {
	return mcp.NewTool("readwise_export_highlights",
		mcp.WithDescription("Bulk export highlights grouped by book for analysis and backup"),
		mcp.WithString("updatedAfter", mcp.Description("Export highlights updated after this date")),
		mcp.WithString("ids", mcp.Description("Comma-separated list of book IDs")),
		mcp.WithBoolean("includeDeleted", mcp.Description("Include deleted highlights")),
		mcp.WithString("pageCursor", mcp.Description("Page cursor for pagination")),
	)
}

func createCreateHighlightTool() mcp.Tool {
	return mcp.NewTool("readwise_create_highlight",
		mcp.WithDescription("Manually add highlights with full metadata support"),
		mcp.WithArray("highlights",
			mcp.Required(),
			mcp.Description("Highlights to create; text is required, title/author/source_url/note/location etc. are optional"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text":           map[string]any{"type": "string"},
					"title":          map[string]any{"type": "string"},
					"author":         map[string]any{"type": "string"},
					"image_url":      map[string]any{"type": "string"},
					"source_url":     map[string]any{"type": "string"},
					"source_type":    map[string]any{"type": "string"},
					"category":       map[string]any{"type": "string", "enum": bookCategoryValues},
					"note":           map[string]any{"type": "string"},
					"location":       map[string]any{"type": "integer"},
					"location_type":  map[string]any{"type": "string", "enum": []string{"page", "order", "time_offset"}},
					"highlighted_at": map[string]any{"type": "string"},
					"highlight_url":  map[string]any{"type": "string"},
				},
				"required": []string{"text"},
			}),
		),
	)
}

// ========== Combined tools ==========

func createSearchAllTool() mcp.Tool {
	return mcp.NewTool("readwise_search_all",
		mcp.WithDescription("Search documents and highlights together and return the books behind the highlight matches"),
		mcp.WithArray("searchTerms",
			mcp.Required(),
			mcp.WithStringItems(),
			mcp.Description("Search terms to look for"),
		),
	)
}

func createValidateAuthTool() mcp.Tool {
	return mcp.NewTool("readwise_validate_auth",
		mcp.WithDescription("Check that the configured Readwise token is accepted"),
	)
}
