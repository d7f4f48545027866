package main

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/readwise-mcp/internal/common"
)

// rateLimitMiddleware throttles tool invocations with a shared token bucket.
// A zero rate disables throttling. The bucket is created once because mcp-go
// applies middleware on every call.
func rateLimitMiddleware(rps float64, burst int) server.ToolHandlerMiddleware {
	if rps <= 0 {
		return func(next server.ToolHandlerFunc) server.ToolHandlerFunc { return next }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if err := limiter.Wait(ctx); err != nil {
				return toolResult(failure(fmt.Errorf("rate limiter: %w", err))), nil
			}
			return next(ctx, request)
		}
	}
}

// loggingMiddleware tags each invocation with an id and logs its outcome.
func loggingMiddleware(logger arbor.ILogger) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			callID := common.NewInvocationID()
			start := time.Now()

			logger.Debug().
				Str("call_id", callID).
				Str("tool", request.Params.Name).
				Msg("Tool invoked")

			result, err := next(ctx, request)

			duration := time.Since(start)
			switch {
			case err != nil:
				logger.Error().
					Err(err).
					Str("call_id", callID).
					Str("tool", request.Params.Name).
					Str("duration", duration.String()).
					Msg("Tool handler returned an error")
			case result != nil && result.IsError:
				logger.Warn().
					Str("call_id", callID).
					Str("tool", request.Params.Name).
					Str("duration", duration.String()).
					Msg("Tool call failed")
			default:
				logger.Info().
					Str("call_id", callID).
					Str("tool", request.Params.Name).
					Str("duration", duration.String()).
					Msg("Tool call completed")
			}
			return result, err
		}
	}
}

