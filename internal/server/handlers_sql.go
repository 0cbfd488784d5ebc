package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"workbench/internal/domain"
	"workbench/internal/logging"
	"workbench/internal/service"
	"workbench/internal/validation"
)

func (s *Server) handleConnectionsPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "sql", "SQL", struct {
		Connections []domain.DbConnection
	}{s.Connections.List()})
}

func (s *Server) handleAddConnection(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondText(w, http.StatusBadRequest, "invalid form")
		return
	}
	f := r.PostForm
	conn := domain.DbConnection{
		DBType:   domain.DBType(strings.TrimSpace(f.Get("db_type"))),
		Host:     strings.TrimSpace(f.Get("host")),
		DBName:   strings.TrimSpace(f.Get("db_name")),
		User:     strings.TrimSpace(f.Get("user")),
		Password: f.Get("password"),
		Nickname: strings.TrimSpace(f.Get("nickname")),
		SSLMode:  strings.TrimSpace(f.Get("ssl_mode")),
	}
	if err := validation.ValidateStruct(&conn); err != nil {
		respondText(w, http.StatusBadRequest, err.Error())
		return
	}
	s.Connections.Save(r.Context(), conn)
	redirect(w, r, "/sql", http.StatusFound)
}

func (s *Server) handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondText(w, http.StatusBadRequest, "invalid form")
		return
	}
	s.Connections.Delete(r.Context(), r.PostFormValue("nickname"))
	redirect(w, r, "/sql", http.StatusFound)
}

// handleRunSQL answers with an HTML fragment. Query failures are shown
// inline with status 200 so the page can swap them in like a result.
func (s *Server) handleRunSQL(w http.ResponseWriter, r *http.Request) {
	var req service.RunRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	out, err := s.SQL.Run(r.Context(), req)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, service.ErrConnectionNotFound) {
			msg = fmt.Sprintf("Error: Connection '%s' not found.", req.Connection)
		}
		s.renderFragment(w, r, "sql_error", msg)
		return
	}
	if out.SchemaChanged {
		w.Header().Set("HX-Trigger", "schema-changed")
	}
	s.renderFragment(w, r, "results", out.Result)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="results.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.SQL.ExportCSV())
}

func (s *Server) handleSaveQuery(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondText(w, http.StatusBadRequest, "invalid form")
		return
	}
	name := strings.TrimSpace(r.PostFormValue("query_name"))
	conn := r.PostFormValue("connection")
	if name == "" {
		respondText(w, http.StatusBadRequest, "query_name is required")
		return
	}
	s.SQL.SaveQuery(domain.SavedQuery{Name: name, SQL: r.PostFormValue("sql")})
	redirect(w, r, runnerPath(conn), http.StatusFound)
}

func (s *Server) handleDeleteQuery(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondText(w, http.StatusBadRequest, "invalid form")
		return
	}
	s.SQL.DeleteQuery(r.PostFormValue("query_name"))
	redirect(w, r, runnerPath(r.PostFormValue("connection")), http.StatusFound)
}

func runnerPath(nickname string) string {
	if nickname == "" {
		return "/sql"
	}
	return "/sql/" + url.PathEscape(nickname)
}

func (s *Server) handleRunnerPage(w http.ResponseWriter, r *http.Request) {
	nickname := chi.URLParam(r, "nickname")
	if _, err := s.Connections.Get(nickname); err != nil {
		respondText(w, http.StatusBadRequest, fmt.Sprintf("Connection '%s' not found", nickname))
		return
	}
	schema, err := s.SQL.Schema(r.Context(), nickname)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("connection", nickname).Msg("schema unavailable")
		schema = map[string][]string{}
	}
	s.render(w, r, "sql_runner", nickname, struct {
		Nickname string
		Schema   map[string][]string
		Queries  []domain.SavedQuery
	}{nickname, schema, s.SQL.SavedQueries()})
}

func (s *Server) handleSchemaJSON(w http.ResponseWriter, r *http.Request) {
	nickname := chi.URLParam(r, "nickname")
	schema, err := s.SQL.Schema(r.Context(), nickname)
	switch {
	case errors.Is(err, service.ErrConnectionNotFound):
		respondJSON(w, http.StatusNotFound, "Connection not found")
	case err != nil:
		respondJSON(w, http.StatusInternalServerError, "Error: "+err.Error())
	default:
		respondJSON(w, http.StatusOK, schema)
	}
}
