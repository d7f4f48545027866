package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/readwise-mcp/internal/interfaces"
	"github.com/ternarybob/readwise-mcp/internal/readwise"
	"github.com/ternarybob/readwise-mcp/internal/services/search"
	"github.com/ternarybob/readwise-mcp/internal/services/transform"
	"github.com/ternarybob/readwise-mcp/internal/services/validation"
)

type saveDocumentArgs struct {
	URL      string   `json:"url" validate:"required,url"`
	HTML     string   `json:"html"`
	Tags     []string `json:"tags"`
	Location string   `json:"location" validate:"omitempty,oneof=new later shortlist archive feed"`
	Category string   `json:"category" validate:"omitempty,oneof=article book tweet pdf email youtube podcast video"`
}

type listDocumentsArgs struct {
	ID                    string   `json:"id"`
	UpdatedAfter          string   `json:"updatedAfter"`
	AddedAfter            string   `json:"addedAfter"`
	Location              string   `json:"location" validate:"omitempty,oneof=new later shortlist archive feed"`
	Category              string   `json:"category" validate:"omitempty,oneof=article book tweet pdf email youtube podcast video"`
	Tag                   string   `json:"tag"`
	PageCursor            string   `json:"pageCursor"`
	WithHTMLContent       bool     `json:"withHtmlContent"`
	WithFullContent       bool     `json:"withFullContent"`
	ContentMaxLength      int      `json:"contentMaxLength" validate:"gte=0"`
	ContentStartOffset    int      `json:"contentStartOffset" validate:"gte=0"`
	ContentFilterKeywords []string `json:"contentFilterKeywords"`
	ContentFormat         string   `json:"contentFormat" validate:"omitempty,oneof=text markdown"`
	Limit                 int      `json:"limit" validate:"gte=0"`
}

type updateDocumentArgs struct {
	ID            string `json:"id" validate:"required"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Summary       string `json:"summary"`
	PublishedDate string `json:"published_date"`
	ImageURL      string `json:"image_url" validate:"omitempty,url"`
	Location      string `json:"location" validate:"omitempty,oneof=new later shortlist archive feed"`
	Category      string `json:"category" validate:"omitempty,oneof=article book tweet pdf email youtube podcast video"`
}

type documentIDArgs struct {
	ID string `json:"id" validate:"required"`
}

type searchTermsArgs struct {
	SearchTerms []string `json:"searchTerms" validate:"required,min=1,dive,required"`
}

type listHighlightsArgs struct {
	PageSize        int    `json:"page_size" validate:"gte=0,lte=1000"`
	Page            int    `json:"page" validate:"gte=0"`
	BookID          int    `json:"book_id" validate:"gte=0"`
	UpdatedLT       string `json:"updated__lt"`
	UpdatedGT       string `json:"updated__gt"`
	HighlightedAtLT string `json:"highlighted_at__lt"`
	HighlightedAtGT string `json:"highlighted_at__gt"`
}

type searchHighlightsArgs struct {
	TextQuery    string              `json:"textQuery"`
	FieldQueries []search.FieldQuery `json:"fieldQueries" validate:"dive"`
	BookID       int                 `json:"bookId" validate:"gte=0"`
	Limit        int                 `json:"limit" validate:"gte=0"`
}

type listBooksArgs struct {
	PageSize          int    `json:"page_size" validate:"gte=0,lte=1000"`
	Page              int    `json:"page" validate:"gte=0"`
	Category          string `json:"category" validate:"omitempty,oneof=books articles tweets podcasts supplementals"`
	Source            string `json:"source"`
	UpdatedLT         string `json:"updated__lt"`
	UpdatedGT         string `json:"updated__gt"`
	LastHighlightAtLT string `json:"last_highlight_at__lt"`
	LastHighlightAtGT string `json:"last_highlight_at__gt"`
}

type bookHighlightsArgs struct {
	BookID    int    `json:"bookId" validate:"required_without=BookTitle,gte=0"`
	BookTitle string `json:"bookTitle" validate:"required_without=BookID"`
}

type exportHighlightsArgs struct {
	UpdatedAfter   string `json:"updatedAfter"`
	IDs            string `json:"ids"`
	IncludeDeleted bool   `json:"includeDeleted"`
	PageCursor     string `json:"pageCursor"`
}

type createHighlightArgs struct {
	Highlights []readwise.HighlightInput `json:"highlights" validate:"required,min=1,dive"`
}

const defaultPageSize = 100

// bindArgs decodes the tool arguments into target and validates its tags.
func bindArgs(request mcp.CallToolRequest, target interface{}) error {
	if err := request.BindArguments(target); err != nil {
		return &readwise.ValidationError{Message: fmt.Sprintf("invalid arguments: %v", err)}
	}
	return validation.Default().Struct(target)
}

// handleSaveDocument implements readwise_save_document
func handleSaveDocument(svc interfaces.ReadwiseService, transformer interfaces.TransformService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args saveDocumentArgs
		if err := bindArgs(request, &args); err != nil {
			return toolResult(failure(err)), nil
		}
		if args.HTML != "" {
			if err := transformer.ValidateHTML(args.HTML); err != nil {
				return toolResult(failure(&readwise.ValidationError{Field: "html", Message: err.Error()})), nil
			}
		}

		ref, err := svc.SaveDocument(ctx, readwise.SaveDocumentRequest{
			URL:      args.URL,
			HTML:     args.HTML,
			Tags:     args.Tags,
			Location: readwise.Location(args.Location),
			Category: readwise.DocumentCategory(args.Category),
		})
		if err != nil {
			return toolResult(failure(err)), nil
		}
		return toolResult(success(ref, nil)), nil
	}
}

// handleListDocuments implements readwise_list_documents. Returned content is
// rendered, filtered and windowed per document.
func handleListDocuments(svc interfaces.ReadwiseService, transformer interfaces.TransformService, defaultMaxLength int) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args listDocumentsArgs
		if err := bindArgs(request, &args); err != nil {
			return toolResult(failure(err)), nil
		}

		resp, err := svc.ListDocuments(ctx, readwise.ListDocumentsParams{
			ID:              args.ID,
			UpdatedAfter:    args.UpdatedAfter,
			AddedAfter:      args.AddedAfter,
			Location:        readwise.Location(args.Location),
			Category:        readwise.DocumentCategory(args.Category),
			Tag:             args.Tag,
			PageCursor:      args.PageCursor,
			WithHTMLContent: args.WithHTMLContent,
			WithFullContent: args.WithFullContent,
			Limit:           args.Limit,
		})
		if err != nil {
			return toolResult(failure(err)), nil
		}

		if args.WithFullContent || args.WithHTMLContent {
			maxLength := args.ContentMaxLength
			if maxLength <= 0 {
				maxLength = defaultMaxLength
			}
			opts := transform.ContentOptions{
				Format:    transform.Format(args.ContentFormat),
				Keywords:  args.ContentFilterKeywords,
				Offset:    args.ContentStartOffset,
				MaxLength: maxLength,
			}
			for i := range resp.Data.Results {
				doc := &resp.Data.Results[i]
				opts.BaseURL = doc.SourceURL
				if doc.HTMLContent != "" {
					doc.HTMLContent = transformer.ProcessContent(doc.HTMLContent, opts)
				}
				if doc.Content != "" {
					doc.Content = transformer.ProcessContent(doc.Content, opts)
				}
			}
		}

		return toolResult(success(resp.Data, resp.Messages)), nil
	}
}

// handleUpdateDocument implements readwise_update_document
func handleUpdateDocument(svc interfaces.ReadwiseService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args updateDocumentArgs
		if err := bindArgs(request, &args); err != nil {
			return toolResult(failure(err)), nil
		}

		ref, err := svc.UpdateDocument(ctx, args.ID, readwise.DocumentUpdate{
			Title:         args.Title,
			Author:        args.Author,
			Summary:       args.Summary,
			PublishedDate: args.PublishedDate,
			ImageURL:      args.ImageURL,
			Location:      readwise.Location(args.Location),
			Category:      readwise.DocumentCategory(args.Category),
		})
		if err != nil {
			return toolResult(failure(err)), nil
		}
		return toolResult(success(ref, nil)), nil
	}
}

// handleDeleteDocument implements readwise_delete_document
func handleDeleteDocument(svc interfaces.ReadwiseService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args documentIDArgs
		if err := bindArgs(request, &args); err != nil {
			return toolResult(failure(err)), nil
		}

		if err := svc.DeleteDocument(ctx, args.ID); err != nil {
			return toolResult(failure(err)), nil
		}
		return toolResult(success(map[string]interface{}{"deleted": true, "id": args.ID}, nil)), nil
	}
}

// handleListTags implements readwise_list_tags
func handleListTags(svc interfaces.ReadwiseService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tags, err := svc.ListTags(ctx)
		if err != nil {
			return toolResult(failure(err)), nil
		}
		return toolResult(success(tags, nil)), nil
	}
}

// handleTopicSearch implements readwise_topic_search
func handleTopicSearch(svc interfaces.ReadwiseService, transformer interfaces.TransformService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args searchTermsArgs
		if err := bindArgs(request, &args); err != nil {
			return toolResult(failure(err)), nil
		}

		terms := expandTerms(transformer, args.SearchTerms)
		resp, err := svc.SearchDocumentsByTopic(ctx, terms)
		if err != nil {
			return toolResult(failure(err)), nil
		}

		env := success(resp.Data, resp.Messages)
		env.SearchTermsUsed = terms
		return toolResult(env), nil
	}
}

// expandTerms adds the segmented form of each term; the original term is kept
// too when segmentation changed it.
func expandTerms(transformer interfaces.TransformService, terms []string) []string {
	expanded := make([]string, 0, len(terms)*2)
	for _, term := range terms {
		segmented := transformer.Segment(term)
		expanded = append(expanded, segmented)
		if segmented != term {
			expanded = append(expanded, term)
		}
	}
	return expanded
}

// handleListHighlights implements readwise_list_highlights
func handleListHighlights(svc interfaces.ReadwiseService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args listHighlightsArgs
		if err := bindArgs(request, &args); err != nil {
			return toolResult(failure(err)), nil
		}
		if args.PageSize == 0 {
			args.PageSize = defaultPageSize
		}

		list, err := svc.ListHighlights(ctx, readwise.ListHighlightsParams{
			PageSize:        args.PageSize,
			Page:            args.Page,
			BookID:          args.BookID,
			UpdatedLT:       args.UpdatedLT,
			UpdatedGT:       args.UpdatedGT,
			HighlightedAtLT: args.HighlightedAtLT,
			HighlightedAtGT: args.HighlightedAtGT,
		})
		if err != nil {
			return toolResult(failure(err)), nil
		}
		return toolResult(success(projectHighlights(list), nil)), nil
	}
}

// handleDailyReview implements readwise_get_daily_review
func handleDailyReview(svc interfaces.ReadwiseService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		review, err := svc.DailyReview(ctx)
		if err != nil {
			return toolResult(failure(err)), nil
		}
		return toolResult(success(review, nil)), nil
	}
}

// handleSearchHighlights implements readwise_search_highlights
func handleSearchHighlights(svc interfaces.ReadwiseService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args searchHighlightsArgs
		if err := bindArgs(request, &args); err != nil {
			return toolResult(failure(err)), nil
		}

		results, err := svc.SearchHighlights(ctx, search.HighlightQuery{
			TextQuery:    args.TextQuery,
			FieldQueries: args.FieldQueries,
			BookID:       args.BookID,
			Limit:        args.Limit,
		})
		if err != nil {
			return toolResult(failure(err)), nil
		}

		total := len(results)
		env := success(projectSearchResults(results), nil)
		env.TotalResults = &total
		return toolResult(env), nil
	}
}

// handleListBooks implements readwise_list_books
func handleListBooks(svc interfaces.ReadwiseService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args listBooksArgs
		if err := bindArgs(request, &args); err != nil {
			return toolResult(failure(err)), nil
		}
		if args.PageSize == 0 {
			args.PageSize = defaultPageSize
		}

		list, err := svc.ListBooks(ctx, readwise.ListBooksParams{
			PageSize:          args.PageSize,
			Page:              args.Page,
			Category:          readwise.BookCategory(args.Category),
			Source:            args.Source,
			UpdatedLT:         args.UpdatedLT,
			UpdatedGT:         args.UpdatedGT,
			LastHighlightAtLT: args.LastHighlightAtLT,
			LastHighlightAtGT: args.LastHighlightAtGT,
		})
		if err != nil {
			return toolResult(failure(err)), nil
		}
		return toolResult(success(projectBooks(list), nil)), nil
	}
}

// handleGetBookHighlights implements readwise_get_book_highlights. A title is
// resolved to the closest book first; failures name the step that failed.
func handleGetBookHighlights(svc interfaces.ReadwiseService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args bookHighlightsArgs
		if err := bindArgs(request, &args); err != nil {
			return toolResult(failure(err)), nil
		}

		bookID := args.BookID
		if bookID == 0 {
			book, err := svc.FindBook(ctx, args.BookTitle)
			if err != nil {
				return toolResult(failure(fmt.Errorf("find book: %w", err))), nil
			}
			bookID = book.ID
		}

		list, err := svc.GetBookHighlights(ctx, bookID)
		if err != nil {
			return toolResult(failure(fmt.Errorf("get highlights: %w", err))), nil
		}

		env := success(list, nil)
		env.BookID = bookID
		return toolResult(env), nil
	}
}

// handleExportHighlights implements readwise_export_highlights
func handleExportHighlights(svc interfaces.ReadwiseService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args exportHighlightsArgs
		if err := bindArgs(request, &args); err != nil {
			return toolResult(failure(err)), nil
		}

		export, err := svc.ExportHighlights(ctx, readwise.ExportParams{
			UpdatedAfter:   args.UpdatedAfter,
			IDs:            args.IDs,
			IncludeDeleted: args.IncludeDeleted,
			PageCursor:     args.PageCursor,
		})
		if err != nil {
			return toolResult(failure(err)), nil
		}
		return toolResult(success(export, nil)), nil
	}
}

// handleCreateHighlight implements readwise_create_highlight
func handleCreateHighlight(svc interfaces.ReadwiseService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args createHighlightArgs
		if err := bindArgs(request, &args); err != nil {
			return toolResult(failure(err)), nil
		}

		created, err := svc.CreateHighlights(ctx, args.Highlights)
		if err != nil {
			return toolResult(failure(err)), nil
		}

		env := success(created, nil)
		env.CreatedCount = len(args.Highlights)
		return toolResult(env), nil
	}
}

// handleSearchAll implements readwise_search_all
func handleSearchAll(svc interfaces.ReadwiseService, transformer interfaces.TransformService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args searchTermsArgs
		if err := bindArgs(request, &args); err != nil {
			return toolResult(failure(err)), nil
		}

		terms := expandTerms(transformer, args.SearchTerms)
		resp, err := svc.SearchAll(ctx, args.SearchTerms, terms)
		if err != nil {
			return toolResult(failure(err)), nil
		}

		env := success(resp.Data, resp.Messages)
		env.SearchTermsUsed = terms
		return toolResult(env), nil
	}
}

// handleValidateAuth implements readwise_validate_auth
func handleValidateAuth(svc interfaces.ReadwiseService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := svc.ValidateAuth(ctx); err != nil {
			logger.Warn().Err(err).Msg("Token validation failed")
			return toolResult(failure(err)), nil
		}
		return toolResult(success(map[string]bool{"valid": true}, nil)), nil
	}
}
