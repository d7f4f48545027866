package interfaces

import "github.com/ternarybob/readwise-mcp/internal/services/transform"

// TransformService post-processes document content for tool responses
type TransformService interface {
	// ProcessContent renders HTML and applies segmentation, keyword filtering and windowing
	ProcessContent(html string, opts transform.ContentOptions) string

	// Segment splits run-together words
	Segment(text string) string

	// ValidateHTML checks if the input looks like HTML
	ValidateHTML(content string) error
}
