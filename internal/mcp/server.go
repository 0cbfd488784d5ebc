package mcpserver

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"workbench/internal/logging"
	"workbench/internal/service"
)

// Server exposes the SQL runner and notes to MCP clients over stdio.
type Server struct {
	mcp *server.MCPServer

	connections *service.ConnectionRegistry
	sql         *service.SQLService
	notes       *service.NotesService
}

// Deps holds the services the tools call into.
type Deps struct {
	Name        string
	Version     string
	Connections *service.ConnectionRegistry
	SQL         *service.SQLService
	Notes       *service.NotesService
}

// New creates the MCP server and registers its tools, resources and prompts.
func New(deps Deps) *Server {
	if deps.Name == "" {
		deps.Name = "workbench"
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	s := &Server{
		connections: deps.Connections,
		sql:         deps.SQL,
		notes:       deps.Notes,
	}

	s.mcp = server.NewMCPServer(
		deps.Name,
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerSQLTools()
	s.registerNoteTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio blocks serving MCP on stdin/stdout.
func (s *Server) ServeStdio() error {
	log := logging.WithComponent("mcp")
	log.Info().Msg("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	res := textResult(text)
	res.IsError = true
	return res
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
