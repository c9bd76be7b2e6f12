package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// loggingMiddleware records every tool call in the call log. NewServer only
// installs it when a call log is configured.
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := s.callLog.Now()
			result, err := next(ctx, req)
			s.callLog.Record(req, start, result, err)
			return result, err
		}
	}
}
