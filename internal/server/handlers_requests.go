package server

import (
	"errors"
	"net/http"
	"strings"

	"workbench/internal/domain"
	"workbench/internal/logging"
	"workbench/internal/validation"
)

func (s *Server) handleRequestsPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "requests", "Requests", struct {
		Requests []domain.SavedRequest
	}{s.Requests.List()})
}

func (s *Server) handleSaveRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondText(w, http.StatusBadRequest, "invalid form")
		return
	}
	f := r.PostForm
	req := domain.SavedRequest{
		Name:              strings.TrimSpace(f.Get("name")),
		Method:            strings.ToUpper(strings.TrimSpace(f.Get("method"))),
		URL:               strings.TrimSpace(f.Get("url")),
		Headers:           f.Get("headers"),
		Body:              f.Get("body"),
		AuthType:          f.Get("auth_type"),
		OAuthTokenURL:     f.Get("oauth_token_url"),
		OAuthClientID:     f.Get("oauth_client_id"),
		OAuthClientSecret: f.Get("oauth_client_secret"),
		OAuthScope:        f.Get("oauth_scope"),
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondText(w, http.StatusBadRequest, err.Error())
		return
	}
	s.Requests.Save(req)
	redirect(w, r, "/requests", http.StatusFound)
}

func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondText(w, http.StatusBadRequest, "invalid form")
		return
	}
	s.Requests.Delete(r.PostFormValue("name"))
	redirect(w, r, "/requests", http.StatusFound)
}

func (s *Server) handleRunRequest(w http.ResponseWriter, r *http.Request) {
	var req domain.ProxyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	req.Method = strings.ToUpper(req.Method)
	out, err := s.Requests.Run(r.Context(), req)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("url", req.URL).Msg("proxy request")
		cause := err
		if inner := errors.Unwrap(err); inner != nil {
			cause = inner
		}
		respondText(w, http.StatusInternalServerError, "Failed to execute curl: "+cause.Error())
		return
	}
	respondText(w, http.StatusOK, out)
}
