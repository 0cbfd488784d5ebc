package server

import (
	"bytes"
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"workbench/internal/domain"
	"workbench/internal/logging"
	"workbench/internal/service"
)

type saveFileRequest struct {
	Path    string `json:"path" validate:"required"`
	Content string `json:"content"`
}

type bookmarkRequest struct {
	Path string `json:"path" validate:"required"`
}

func (s *Server) handleNotesPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "note", "Notes", struct {
		Notes     []domain.Note
		Bookmarks []domain.Bookmark
	}{s.Notes.List(), s.Files.Bookmarks()})
}

func (s *Server) handleSaveNote(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondText(w, http.StatusBadRequest, "invalid form")
		return
	}
	s.Notes.Save(r.Context(), r.PostFormValue("subject"), r.PostFormValue("content"))
	redirect(w, r, "/note", http.StatusSeeOther)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondText(w, http.StatusBadRequest, "invalid form")
		return
	}
	idx, err := strconv.Atoi(r.PostFormValue("note_index"))
	if err != nil {
		respondText(w, http.StatusBadRequest, "note_index must be a number")
		return
	}
	s.Notes.Delete(r.Context(), idx)
	redirect(w, r, "/note", http.StatusSeeOther)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondText(w, http.StatusBadRequest, "invalid form")
		return
	}
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(r.PostFormValue("content")), &buf); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("render markdown")
		respondText(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleListDir(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Files.List(r.URL.Query().Get("path"))
	if err != nil {
		respondFileError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleReadFile(w http.ResponseWriter, r *http.Request) {
	data, err := s.Files.Read(r.URL.Query().Get("path"))
	if err != nil {
		respondFileError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleSaveFile(w http.ResponseWriter, r *http.Request) {
	var req saveFileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := s.Files.Save(req.Path, req.Content); err != nil {
		respondFileError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "saved")
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	hits, err := s.Files.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondFileError(w, r, err)
		return
	}
	if hits == nil {
		hits = []service.SearchHit{}
	}
	respondJSON(w, http.StatusOK, hits)
}

func (s *Server) handleBookmarks(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, nonNilBookmarks(s.Files.Bookmarks()))
}

func (s *Server) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	var req bookmarkRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	bms, err := s.Files.AddBookmark(req.Path)
	if err != nil {
		respondFileError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNilBookmarks(bms))
}

func (s *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	var req bookmarkRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, nonNilBookmarks(s.Files.DeleteBookmark(req.Path)))
}

func nonNilBookmarks(bms []domain.Bookmark) []domain.Bookmark {
	if bms == nil {
		return []domain.Bookmark{}
	}
	return bms
}

func respondFileError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrPathOutsideRoot):
		respondText(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, fs.ErrNotExist):
		respondText(w, http.StatusNotFound, "not found")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("file operation")
		respondText(w, http.StatusInternalServerError, "Error: "+err.Error())
	}
}
