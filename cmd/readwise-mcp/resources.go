package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ternarybob/readwise-mcp/internal/interfaces"
	"github.com/ternarybob/readwise-mcp/internal/readwise"
)

const (
	tagsResourceURI        = "readwise://tags"
	dailyReviewResourceURI = "readwise://daily-review"
)

func createTagsResource() mcp.Resource {
	return mcp.NewResource(tagsResourceURI, "Readwise tags",
		mcp.WithResourceDescription("All document tags in Readwise Reader"),
		mcp.WithMIMEType("application/json"),
	)
}

func createDailyReviewResource() mcp.Resource {
	return mcp.NewResource(dailyReviewResourceURI, "Readwise daily review",
		mcp.WithResourceDescription("Today's daily review highlights"),
		mcp.WithMIMEType("application/json"),
	)
}

func handleTagsResource(svc interfaces.ReadwiseService) server.ResourceHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		tags, err := svc.ListTags(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s", readwise.UserMessage(err))
		}
		return jsonResource(tagsResourceURI, tags)
	}
}

func handleDailyReviewResource(svc interfaces.ReadwiseService) server.ResourceHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		review, err := svc.DailyReview(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s", readwise.UserMessage(err))
		}
		return jsonResource(dailyReviewResourceURI, review)
	}
}

func jsonResource(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		},
	}, nil
}
