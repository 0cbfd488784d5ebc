package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("explore_database",
		mcp.WithPromptDescription("Walk through the schema of a saved connection and summarize it"),
		mcp.WithArgument("connection",
			mcp.ArgumentDescription("Connection nickname"),
			mcp.RequiredArgument(),
		),
	), s.handleExplorePrompt)
}

func (s *Server) handleExplorePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	conn := req.Params.Arguments["connection"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Explore the %s database", conn),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Explore the database behind the connection "%s":

1. Call schema with connection "%s" to list its tables and columns.
2. For the most interesting tables, run_sql a SELECT with a LIMIT of 10 to sample rows.
3. Save a short summary of what each table holds with save_note, subject "%s schema".

Do not run statements that modify data.`, conn, conn, conn),
				},
			},
		},
	}, nil
}
