package server

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/goccy/go-json"

	"workbench/internal/domain"
	"workbench/internal/logging"
	"workbench/internal/validation"
)

const maxJSONBody = 16 << 20

var pageNames = []string{
	"home", "note", "sql", "sql_runner", "requests",
	"paint", "calculator", "inspector", "connection",
}

// pageData is what every page template receives.
type pageData struct {
	Title      string
	Page       string
	Theme      domain.Theme
	ThemeNames []string
	Data       any
}

func parsePages(fsys fs.FS) (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).ParseFS(fsys,
			"templates/layout.html",
			"templates/overlays.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

func parseFragments(fsys fs.FS) (*template.Template, error) {
	return template.New("fragments").ParseFS(fsys, "templates/fragments.html")
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, page, title string, data any) {
	t, ok := s.pages[page]
	if !ok {
		respondText(w, http.StatusInternalServerError, "unknown page "+page)
		return
	}
	pd := pageData{
		Title:      title,
		Page:       page,
		Theme:      s.Settings.CurrentTheme(),
		ThemeNames: s.Settings.ThemeNames(),
		Data:       data,
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", pd); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("page", page).Msg("render page")
		respondText(w, http.StatusInternalServerError, "template error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderFragment(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.fragments.ExecuteTemplate(&buf, name, data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("fragment", name).Msg("render fragment")
		respondText(w, http.StatusInternalServerError, "template error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) staticPage(page, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, page, title, nil)
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func respondText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxJSONBody {
		return errors.New("request body too large")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// decodeAndValidate decodes a JSON body into v and runs struct validation.
// On failure it writes a 400 and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(r, v); err != nil {
		respondText(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := validation.ValidateStruct(v); err != nil {
		respondText(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// redirect answers a form post. code is 302 or 303 depending on the route.
func redirect(w http.ResponseWriter, r *http.Request, to string, code int) {
	http.Redirect(w, r, to, code)
}
