package domain

// Theme is a named bundle of CSS variables applied to every page.
type Theme struct {
	Name           string `json:"name"`
	PrimaryBG      string `json:"primary_bg"`
	SecondaryBG    string `json:"secondary_bg"`
	TertiaryBG     string `json:"tertiary_bg"`
	TextColor      string `json:"text_color"`
	LinkColor      string `json:"link_color"`
	LinkVisited    string `json:"link_visited"`
	LinkHover      string `json:"link_hover"`
	BorderColor    string `json:"border_color"`
	FontSizeSmall  int    `json:"font_size_small"`
	FontSizeMedium int    `json:"font_size_medium"`
	FontSizeLarge  int    `json:"font_size_large"`
}

// DefaultTheme is the built-in dark theme.
func DefaultTheme() Theme {
	return Theme{
		Name:           "Dark",
		PrimaryBG:      "#2e2e2e",
		SecondaryBG:    "#222222",
		TertiaryBG:     "#3a3a3a",
		TextColor:      "#eeeeee",
		LinkColor:      "#4da6ff",
		LinkVisited:    "#b366ff",
		LinkHover:      "#66ccff",
		BorderColor:    "#444444",
		FontSizeSmall:  12,
		FontSizeMedium: 14,
		FontSizeLarge:  18,
	}
}

// Shortcut is a named link on the home page.
type Shortcut struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Hidden bool   `json:"hidden"`
}

// Settings groups the theme and shortcut state persisted together.
type Settings struct {
	CurrentTheme string           `json:"current_theme"`
	Themes       map[string]Theme `json:"themes"`
	Shortcuts    []Shortcut       `json:"shortcuts"`
}

// SettingsStore persists Settings as one document.
type SettingsStore interface {
	LoadSettings() (*Settings, error)
	SaveSettings(s *Settings) error
}
