package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"workbench/internal/dbclient"
	"workbench/internal/service"
)

// connectionSummary is a DbConnection without credentials.
type connectionSummary struct {
	Nickname string `json:"nickname"`
	DBType   string `json:"db_type"`
	Host     string `json:"host"`
	DBName   string `json:"db_name,omitempty"`
}

func (s *Server) registerSQLTools() {
	s.mcp.AddTool(mcp.NewTool("list_connections",
		mcp.WithDescription("List saved database connections (credentials are never returned)"),
	), s.handleListConnections)

	s.mcp.AddTool(mcp.NewTool("schema",
		mcp.WithDescription("Get the tables and columns of a saved connection"),
		mcp.WithString("connection", mcp.Description("Connection nickname"), mcp.Required()),
	), s.handleSchema)

	s.mcp.AddTool(mcp.NewTool("run_sql",
		mcp.WithDescription("Run one SQL statement against a saved connection. Writes and DDL are refused unless confirm is true."),
		mcp.WithString("connection", mcp.Description("Connection nickname"), mcp.Required()),
		mcp.WithString("sql", mcp.Description("SQL statement; {{name}} placeholders are filled from variables"), mcp.Required()),
		mcp.WithObject("variables", mcp.Description("Placeholder values keyed by name")),
		mcp.WithBoolean("confirm", mcp.Description("Set to true to allow statements that modify data or schema")),
	), s.handleRunSQL)
}

func (s *Server) handleListConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conns := s.connections.List()
	out := make([]connectionSummary, 0, len(conns))
	for _, c := range conns {
		out = append(out, connectionSummary{
			Nickname: c.Nickname,
			DBType:   string(c.DBType),
			Host:     c.Host,
			DBName:   c.DBName,
		})
	}
	return jsonResult(out)
}

func (s *Server) handleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nickname := req.GetString("connection", "")
	if nickname == "" {
		return errorResult("connection is required"), nil
	}
	schema, err := s.sql.Schema(ctx, nickname)
	if err != nil {
		return errorResult(describeError(err)), nil
	}
	return jsonResult(schema)
}

func (s *Server) handleRunSQL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	nickname := req.GetString("connection", "")
	query := req.GetString("sql", "")
	if nickname == "" || query == "" {
		return errorResult("connection and sql are required"), nil
	}

	vars := map[string]string{}
	if raw, ok := args["variables"].(map[string]any); ok {
		for k, v := range raw {
			vars[k] = fmt.Sprint(v)
		}
	}

	if isWrite(dbclient.Substitute(query, vars)) && !req.GetBool("confirm", false) {
		return errorResult(fmt.Sprintf("refusing to run a modifying statement without confirm=true: %s", truncate(query, 100))), nil
	}

	out, err := s.sql.Run(ctx, service.RunRequest{SQL: query, Connection: nickname, Variables: vars})
	if err != nil {
		return errorResult(describeError(err)), nil
	}
	return jsonResult(struct {
		Columns       []string   `json:"columns"`
		Rows          [][]string `json:"rows"`
		SchemaChanged bool       `json:"schema_changed"`
	}{out.Result.Columns, out.Result.Rows, out.SchemaChanged})
}

func describeError(err error) string {
	if errors.Is(err, service.ErrConnectionNotFound) {
		return "connection not found"
	}
	return err.Error()
}
