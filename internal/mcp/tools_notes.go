package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerNoteTools() {
	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes with their subjects and content"),
	), s.handleListNotes)

	s.mcp.AddTool(mcp.NewTool("save_note",
		mcp.WithDescription("Create a note or replace the note with the same subject"),
		mcp.WithString("subject", mcp.Description("Note subject; defaults to the start of the content")),
		mcp.WithString("content", mcp.Description("Note body (markdown)"), mcp.Required()),
	), s.handleSaveNote)
}

func (s *Server) handleListNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.notes.List())
}

func (s *Server) handleSaveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subject := req.GetString("subject", "")
	content := req.GetString("content", "")
	if subject == "" && content == "" {
		return errorResult("subject or content is required"), nil
	}
	s.notes.Save(ctx, subject, content)
	return textResult(fmt.Sprintf("Saved note (%d notes total)", len(s.notes.List()))), nil
}
