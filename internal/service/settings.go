package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"workbench/internal/domain"
	"workbench/internal/logging"
)

// Theme form actions. Anything else saves.
const (
	ThemeActionLoad   = "load"
	ThemeActionDelete = "delete"
	ThemeActionApply  = "apply_only"
)

// ThemeUpdate is the decoded /save_theme form.
type ThemeUpdate struct {
	Action        string
	OriginalName  string
	LoadThemeName string
	Theme         domain.Theme
}

// SettingsService owns the theme collection and home-page shortcuts.
type SettingsService struct {
	store   domain.SettingsStore
	emitter EventEmitter

	mu      sync.Mutex
	st      *domain.Settings
	applied *domain.Theme // unsaved preview from "apply_only"
}

func NewSettingsService(store domain.SettingsStore, emitter EventEmitter) *SettingsService {
	return &SettingsService{store: store, emitter: emitter}
}

func (s *SettingsService) ensureLoadedLocked() {
	if s.st != nil {
		return
	}
	st, err := s.store.LoadSettings()
	if err != nil {
		log := logging.WithComponent("settings")
		log.Error().Err(err).Msg("load settings, using defaults")
	}
	if st == nil {
		st = &domain.Settings{}
	}
	if st.Themes == nil {
		st.Themes = map[string]domain.Theme{}
	}
	def := domain.DefaultTheme()
	if _, ok := st.Themes[def.Name]; !ok {
		st.Themes[def.Name] = def
	}
	if _, ok := st.Themes[st.CurrentTheme]; !ok {
		st.CurrentTheme = def.Name
	}
	if st.Shortcuts == nil {
		st.Shortcuts = []domain.Shortcut{}
	}
	s.st = st
}

func (s *SettingsService) persistLocked() {
	if err := s.store.SaveSettings(s.st); err != nil {
		log := logging.WithComponent("settings")
		log.Error().Err(err).Msg("save settings")
	}
}

// CurrentTheme is the theme every page renders with.
func (s *SettingsService) CurrentTheme() domain.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked()
	if s.applied != nil {
		return *s.applied
	}
	return s.st.Themes[s.st.CurrentTheme]
}

// ThemeNames lists saved themes alphabetically.
func (s *SettingsService) ThemeNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked()
	names := make([]string, 0, len(s.st.Themes))
	for name := range s.st.Themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UpdateTheme applies one /save_theme submission.
func (s *SettingsService) UpdateTheme(ctx context.Context, u ThemeUpdate) {
	s.mu.Lock()
	s.ensureLoadedLocked()

	switch {
	case u.Action == ThemeActionLoad || (u.Action == "" && u.LoadThemeName != ""):
		if _, ok := s.st.Themes[u.LoadThemeName]; !ok {
			s.mu.Unlock()
			logging.Ctx(ctx).Warn().Str("theme", u.LoadThemeName).Msg("load unknown theme")
			return
		}
		s.st.CurrentTheme = u.LoadThemeName
		s.applied = nil

	case u.Action == ThemeActionDelete:
		name := u.LoadThemeName
		if name == "" {
			name = u.Theme.Name
		}
		if name == s.st.CurrentTheme {
			s.mu.Unlock()
			logging.Ctx(ctx).Warn().Str("theme", name).Msg("refusing to delete the current theme")
			return
		}
		delete(s.st.Themes, name)

	case u.Action == ThemeActionApply:
		t := u.Theme
		s.applied = &t
		s.mu.Unlock()
		return

	default:
		t := u.Theme
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			t.Name = u.OriginalName
		}
		if u.OriginalName != "" && u.OriginalName != t.Name {
			delete(s.st.Themes, u.OriginalName)
		}
		s.st.Themes[t.Name] = t
		s.st.CurrentTheme = t.Name
		s.applied = nil
	}

	s.persistLocked()
	s.mu.Unlock()
	s.emitter.Emit(ctx, "settings:theme-changed", u.Action)
}

// ── Shortcuts ──────────────────────────────────────────────

// Shortcuts returns shortcuts sorted by name, skipping hidden ones unless
// includeHidden is set.
func (s *SettingsService) Shortcuts(includeHidden bool) []domain.Shortcut {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked()
	out := make([]domain.Shortcut, 0, len(s.st.Shortcuts))
	for _, sc := range s.st.Shortcuts {
		if sc.Hidden && !includeHidden {
			continue
		}
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AddShortcut inserts sc or replaces the shortcut with the same name.
func (s *SettingsService) AddShortcut(ctx context.Context, sc domain.Shortcut) {
	s.mu.Lock()
	s.ensureLoadedLocked()
	replaced := false
	for i := range s.st.Shortcuts {
		if s.st.Shortcuts[i].Name == sc.Name {
			s.st.Shortcuts[i] = sc
			replaced = true
			break
		}
	}
	if !replaced {
		s.st.Shortcuts = append(s.st.Shortcuts, sc)
	}
	s.persistLocked()
	s.mu.Unlock()
	s.emitter.Emit(ctx, "settings:shortcut-added", sc.Name)
}
