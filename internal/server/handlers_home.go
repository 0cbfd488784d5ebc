package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"workbench/internal/domain"
	"workbench/internal/service"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "home", "Home", struct {
		Shortcuts []domain.Shortcut
	}{s.Settings.Shortcuts(false)})
}

func (s *Server) handleAddShortcut(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondText(w, http.StatusBadRequest, "invalid form")
		return
	}
	name := strings.TrimSpace(r.PostFormValue("shortcut"))
	link := strings.TrimSpace(r.PostFormValue("url"))
	if name == "" || link == "" {
		respondText(w, http.StatusBadRequest, "shortcut and url are required")
		return
	}
	s.Settings.AddShortcut(r.Context(), domain.Shortcut{
		Name:   name,
		URL:    link,
		Hidden: checkbox(r.PostFormValue("hidden")),
	})
	redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSaveTheme(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondText(w, http.StatusBadRequest, "invalid form")
		return
	}
	cur := s.Settings.CurrentTheme()
	f := r.PostForm
	theme := domain.Theme{
		Name:           strings.TrimSpace(f.Get("theme_name")),
		PrimaryBG:      formOr(f, "primary_bg", cur.PrimaryBG),
		SecondaryBG:    formOr(f, "secondary_bg", cur.SecondaryBG),
		TertiaryBG:     formOr(f, "tertiary_bg", cur.TertiaryBG),
		TextColor:      formOr(f, "text_color", cur.TextColor),
		LinkColor:      formOr(f, "link_color", cur.LinkColor),
		LinkVisited:    formOr(f, "link_visited", cur.LinkVisited),
		LinkHover:      formOr(f, "link_hover", cur.LinkHover),
		BorderColor:    formOr(f, "border_color", cur.BorderColor),
		FontSizeSmall:  formInt(f, "font_size_small", cur.FontSizeSmall),
		FontSizeMedium: formInt(f, "font_size_medium", cur.FontSizeMedium),
		FontSizeLarge:  formInt(f, "font_size_large", cur.FontSizeLarge),
	}
	if theme.Name == "" {
		theme.Name = cur.Name
	}
	s.Settings.UpdateTheme(r.Context(), service.ThemeUpdate{
		Action:        f.Get("action"),
		OriginalName:  f.Get("original_name"),
		LoadThemeName: f.Get("load_theme_name"),
		Theme:         theme,
	})
	redirect(w, r, backTo(r), http.StatusSeeOther)
}

// backTo returns the same-origin path of the Referer, or "/".
func backTo(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") {
		return "/"
	}
	if ref.Host != "" && ref.Host != r.Host {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

func checkbox(v string) bool {
	switch strings.ToLower(v) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

func formOr(f url.Values, key, def string) string {
	if v := strings.TrimSpace(f.Get(key)); v != "" {
		return v
	}
	return def
}

func formInt(f url.Values, key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(f.Get(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
