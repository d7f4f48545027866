package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/readwise-mcp/internal/common"
	"github.com/ternarybob/readwise-mcp/internal/interfaces"
	"github.com/ternarybob/readwise-mcp/internal/services/library"
	"github.com/ternarybob/readwise-mcp/internal/services/transform"
)

// serverOptions configures newMCPServer.
type serverOptions struct {
	RequestsPerSecond float64
	Burst             int
	DefaultMaxLength  int
	FullContentLimit  int
}

// newMCPServer registers every Readwise tool and resource on a new MCP server.
func newMCPServer(svc interfaces.ReadwiseService, transformer interfaces.TransformService, opts serverOptions, logger arbor.ILogger) *server.MCPServer {
	if opts.DefaultMaxLength <= 0 {
		opts.DefaultMaxLength = transform.DefaultMaxLength
	}
	if opts.FullContentLimit <= 0 {
		opts.FullContentLimit = library.DefaultLimits().DefaultLimit
	}

	mcpServer := server.NewMCPServer(
		common.AppName,
		common.GetVersion(),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(loggingMiddleware(logger)),
		server.WithToolHandlerMiddleware(rateLimitMiddleware(opts.RequestsPerSecond, opts.Burst)),
	)

	// Reader tools
	mcpServer.AddTool(createSaveDocumentTool(), handleSaveDocument(svc, transformer))
	mcpServer.AddTool(createListDocumentsTool(opts.FullContentLimit, opts.DefaultMaxLength), handleListDocuments(svc, transformer, opts.DefaultMaxLength))
	mcpServer.AddTool(createUpdateDocumentTool(), handleUpdateDocument(svc))
	mcpServer.AddTool(createDeleteDocumentTool(), handleDeleteDocument(svc))
	mcpServer.AddTool(createListTagsTool(), handleListTags(svc))
	mcpServer.AddTool(createTopicSearchTool(), handleTopicSearch(svc, transformer))

	// Highlights tools
	mcpServer.AddTool(createListHighlightsTool(), handleListHighlights(svc))
	mcpServer.AddTool(createDailyReviewTool(), handleDailyReview(svc))
	mcpServer.AddTool(createSearchHighlightsTool(), handleSearchHighlights(svc))
	mcpServer.AddTool(createListBooksTool(), handleListBooks(svc))
	mcpServer.AddTool(createGetBookHighlightsTool(), handleGetBookHighlights(svc))
	mcpServer.AddTool(createExportHighlightsTool(), handleExportHighlights(svc))
	mcpServer.AddTool(createCreateHighlightTool(), handleCreateHighlight(svc))

	// Combined tools
	mcpServer.AddTool(createSearchAllTool(), handleSearchAll(svc, transformer))
	mcpServer.AddTool(createValidateAuthTool(), handleValidateAuth(svc, logger))

	mcpServer.AddResource(createTagsResource(), handleTagsResource(svc))
	mcpServer.AddResource(createDailyReviewResource(), handleDailyReviewResource(svc))

	return mcpServer
}
