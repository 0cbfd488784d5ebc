// Package server is the HTTP surface: server-rendered pages, the small JSON
// endpoints the pages call, and the WebRTC signaling relay.
package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"workbench/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Deps are the services the handlers call into.
type Deps struct {
	Connections *service.ConnectionRegistry
	SQL         *service.SQLService
	Notes       *service.NotesService
	Files       *service.FileService
	Signaling   *service.SignalingService
	Settings    *service.SettingsService
	Requests    *service.RequestService
}

// Server holds the parsed templates and the service handles.
type Server struct {
	Deps
	pages     map[string]*template.Template
	fragments *template.Template
	markdown  goldmark.Markdown
}

// New parses the embedded templates. It fails only on a broken template.
func New(deps Deps) (*Server, error) {
	pages, err := parsePages(templateFS)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	frag, err := parseFragments(templateFS)
	if err != nil {
		return nil, fmt.Errorf("parse fragments: %w", err)
	}
	return &Server{
		Deps:      deps,
		pages:     pages,
		fragments: frag,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(Metrics())

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondText(w, http.StatusOK, "ok")
	})

	r.Get("/", s.handleHome)
	r.Post("/add_shortcut", s.handleAddShortcut)
	r.Post("/save_theme", s.handleSaveTheme)

	r.Route("/note", func(r chi.Router) {
		r.Get("/", s.handleNotesPage)
		r.Post("/", s.handleSaveNote)
		r.Post("/delete", s.handleDeleteNote)
		r.Post("/preview", s.handlePreview)
		r.Get("/ls", s.handleListDir)
		r.Get("/read", s.handleReadFile)
		r.Post("/save_file", s.handleSaveFile)
		r.Get("/search", s.handleSearch)
		r.Get("/bookmarks", s.handleBookmarks)
		r.Post("/bookmarks/add", s.handleAddBookmark)
		r.Post("/bookmarks/delete", s.handleDeleteBookmark)
	})

	r.Route("/sql", func(r chi.Router) {
		r.Get("/", s.handleConnectionsPage)
		r.Post("/add", s.handleAddConnection)
		r.Post("/delete_connection", s.handleDeleteConnection)
		r.Post("/run", s.handleRunSQL)
		r.Get("/export", s.handleExportCSV)
		r.Post("/save", s.handleSaveQuery)
		r.Post("/delete", s.handleDeleteQuery)
		r.Get("/{nickname}", s.handleRunnerPage)
		r.Get("/{nickname}/schema-json", s.handleSchemaJSON)
	})

	r.Get("/paint", s.staticPage("paint", "Paint"))
	r.Get("/calculator", s.staticPage("calculator", "Calculator"))
	r.Get("/inspector", s.staticPage("inspector", "Inspector"))
	r.Get("/connection", s.staticPage("connection", "Connection"))

	r.Route("/requests", func(r chi.Router) {
		r.Get("/", s.handleRequestsPage)
		r.Post("/save", s.handleSaveRequest)
		r.Post("/delete", s.handleDeleteRequest)
		r.Post("/run", s.handleRunRequest)
	})

	r.Route("/signal", func(r chi.Router) {
		r.Post("/create", s.handleCreateRoom)
		r.Post("/offer", s.handlePostOffer)
		r.Get("/offer/{id}", s.handleGetOffer)
		r.Post("/answer", s.handlePostAnswer)
		r.Get("/answer/{id}", s.handleGetAnswer)
		r.Post("/ice", s.handlePostICE)
		r.Get("/ice/{id}/{role}", s.handleGetICE)
		r.Post("/permissions", s.handleSetPermission)
		r.Get("/permissions/{id}", s.handleGetPermissions)
	})

	return r
}
