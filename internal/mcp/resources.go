package mcpserver

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	notesURI        = "workbench://notes"
	savedQueriesURI = "workbench://saved-queries"
)

func (s *Server) registerResources() {
	s.mcp.AddResource(mcp.NewResource(
		notesURI,
		"All notes",
		mcp.WithMIMEType("application/json"),
	), s.handleNotesResource)

	s.mcp.AddResource(mcp.NewResource(
		savedQueriesURI,
		"Saved SQL queries",
		mcp.WithMIMEType("application/json"),
	), s.handleSavedQueriesResource)
}

func (s *Server) handleNotesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(notesURI, s.notes.List())
}

func (s *Server) handleSavedQueriesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(savedQueriesURI, s.sql.SavedQueries())
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
