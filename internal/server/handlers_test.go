package server_test

import (
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workbench/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Home and settings
// ─────────────────────────────────────────────────────────────

func TestAddShortcut(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm(t, "/add_shortcut", url.Values{"shortcut": {"gh"}, "url": {"https://github.com"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	env.postForm(t, "/add_shortcut", url.Values{"shortcut": {"secret"}, "url": {"https://example.com"}, "hidden": {"true"}})

	rec = env.do(t, http.MethodGet, "/", "", "")
	assert.Contains(t, rec.Body.String(), "https://github.com")
	assert.NotContains(t, rec.Body.String(), "https://example.com")

	rec = env.postForm(t, "/add_shortcut", url.Values{"shortcut": {"x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveTheme_RedirectsBack(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{
		"action":          {"save"},
		"original_name":   {"Dark"},
		"theme_name":      {"Solar"},
		"primary_bg":      {"#fdf6e3"},
		"font_size_small": {"11"},
	}
	req := httptestForm(t, "/save_theme", form)
	req.Header.Set("Referer", "http://example.com/note")
	req.Host = "example.com"
	rec := serve(env, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/note", rec.Header().Get("Location"))

	theme := env.deps.Settings.CurrentTheme()
	assert.Equal(t, "Solar", theme.Name)
	assert.Equal(t, "#fdf6e3", theme.PrimaryBG)
	assert.Equal(t, 11, theme.FontSizeSmall)
	assert.Equal(t, domain.DefaultTheme().FontSizeLarge, theme.FontSizeLarge)

	page := env.do(t, http.MethodGet, "/", "", "")
	assert.Contains(t, page.Body.String(), "--primary-bg: #fdf6e3")
}

func TestSaveTheme_ForeignRefererGoesHome(t *testing.T) {
	env := newTestEnv(t)

	req := httptestForm(t, "/save_theme", url.Values{"action": {"load"}, "load_theme_name": {"Dark"}})
	req.Header.Set("Referer", "https://evil.test/phish")
	rec := serve(env, req)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

// ─────────────────────────────────────────────────────────────
// Notes and files
// ─────────────────────────────────────────────────────────────

func TestNotes_UpsertAndDelete(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm(t, "/note", url.Values{"subject": {"todo"}, "content": {"one"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/note", rec.Header().Get("Location"))

	env.postForm(t, "/note", url.Values{"subject": {"todo"}, "content": {"two"}})
	env.postForm(t, "/note", url.Values{"subject": {""}, "content": {"a note without a subject line that is long"}})

	notes := env.deps.Notes.List()
	require.Len(t, notes, 2)
	assert.Equal(t, "two", notes[0].Content)
	assert.Equal(t, "a note without a subject line", notes[1].Subject)

	rec = env.postForm(t, "/note/delete", url.Values{"note_index": {"0"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, env.deps.Notes.List(), 1)

	rec = env.postForm(t, "/note/delete", url.Values{"note_index": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotePreview(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm(t, "/note/preview", url.Values{"content": {"# Title\n\n<script>x</script>"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Title</h1>")
	assert.NotContains(t, rec.Body.String(), "<script>")
}

func TestFileRoutes(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(filepath.Join(env.notes, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.notes, "docs", "a.md"), []byte("hello world\nsecond line\n"), 0o644))

	rec := env.do(t, http.MethodGet, "/note/ls?path=", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []struct {
		Name  string `json:"name"`
		IsDir bool   `json:"is_dir"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "docs", entries[0].Name)
	assert.True(t, entries[0].IsDir)

	rec = env.do(t, http.MethodGet, "/note/read?path=docs/a.md", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello world\nsecond line\n", rec.Body.String())

	rec = env.postJSON(t, "/note/save_file", map[string]string{"path": "docs/b.md", "content": "new"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"saved"`, rec.Body.String())
	data, err := os.ReadFile(filepath.Join(env.notes, "docs", "b.md"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	rec = env.do(t, http.MethodGet, "/note/search?q=SECOND", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"path":"docs/a.md","line":2,"text":"second line"}]`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/note/read?path=../../etc/passwd", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/note/read?path=missing.md", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookmarks(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.notes, "a.md"), []byte("x"), 0o644))

	rec := env.do(t, http.MethodGet, "/note/bookmarks", "", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.postJSON(t, "/note/bookmarks/add", map[string]string{"path": "a.md"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"a.md","path":"a.md"}]`, rec.Body.String())

	rec = env.postJSON(t, "/note/bookmarks/add", map[string]string{"path": "a.md"})
	assert.JSONEq(t, `[{"name":"a.md","path":"a.md"}]`, rec.Body.String())

	rec = env.postJSON(t, "/note/bookmarks/delete", map[string]string{"path": "a.md"})
	assert.JSONEq(t, `[]`, rec.Body.String())
}

// ─────────────────────────────────────────────────────────────
// Signaling
// ─────────────────────────────────────────────────────────────

func createRoom(t *testing.T, env *testEnv) string {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/signal/create", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		RoomID string `json:"room_id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.RoomID)
	assert.Equal(t, "created", res.Status)
	return res.RoomID
}

func TestSignaling_OfferAnswerFlow(t *testing.T) {
	env := newTestEnv(t)
	room := createRoom(t, env)

	rec := env.do(t, http.MethodGet, "/signal/offer/"+room, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Offer not found", rec.Body.String())

	rec = env.postJSON(t, "/signal/offer", map[string]string{"room_id": room, "data": "sdp-offer", "role": "host"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Offer received", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/signal/offer/"+room, "", "")
	assert.Equal(t, "sdp-offer", rec.Body.String())

	rec = env.postJSON(t, "/signal/answer", map[string]string{"room_id": room, "data": "sdp-answer", "role": "guest"})
	assert.Equal(t, "Answer received", rec.Body.String())
	rec = env.do(t, http.MethodGet, "/signal/answer/"+room, "", "")
	assert.Equal(t, "sdp-answer", rec.Body.String())
}

func TestSignaling_UnknownRoom(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON(t, "/signal/offer", map[string]string{"room_id": "nope", "data": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Room not found", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/signal/offer/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Offer not found", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/signal/answer/nope", "", "")
	assert.Equal(t, "Answer not found", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/signal/permissions/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSignaling_ICEGoesToOppositeSide(t *testing.T) {
	env := newTestEnv(t)
	room := createRoom(t, env)

	rec := env.postJSON(t, "/signal/ice", map[string]string{"room_id": room, "data": "h1", "role": "host"})
	assert.Equal(t, "ICE candidate received", rec.Body.String())
	env.postJSON(t, "/signal/ice", map[string]string{"room_id": room, "data": "g1", "role": "guest"})

	rec = env.do(t, http.MethodGet, "/signal/ice/"+room+"/host", "", "")
	assert.JSONEq(t, `["g1"]`, rec.Body.String())
	rec = env.do(t, http.MethodGet, "/signal/ice/"+room+"/guest", "", "")
	assert.JSONEq(t, `["h1"]`, rec.Body.String())
}

func TestSignaling_Permissions(t *testing.T) {
	env := newTestEnv(t)
	room := createRoom(t, env)

	rec := env.do(t, http.MethodGet, "/signal/permissions/"+room, "", "")
	assert.JSONEq(t, `{"paint":"rw","board":"rw","sql":"none"}`, rec.Body.String())

	rec = env.postJSON(t, "/signal/permissions", map[string]string{"room_id": room, "tool": "sql", "level": "r"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"paint":"rw","board":"rw","sql":"r"}`, rec.Body.String())

	rec = env.postJSON(t, "/signal/permissions", map[string]string{"room_id": room, "tool": "sql", "level": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ─────────────────────────────────────────────────────────────
// Request builder
// ─────────────────────────────────────────────────────────────

func TestRequests_SaveAndDelete(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm(t, "/requests/save", url.Values{
		"name":    {"list"},
		"method":  {"get"},
		"url":     {"https://api.example.com/items"},
		"headers": {"Accept: application/json"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/requests", rec.Header().Get("Location"))

	reqs := env.deps.Requests.List()
	require.Len(t, reqs, 1)
	assert.Equal(t, "GET", reqs[0].Method)

	rec = env.do(t, http.MethodGet, "/requests", "", "")
	assert.Contains(t, rec.Body.String(), "https://api.example.com/items")

	env.postForm(t, "/requests/delete", url.Values{"name": {"list"}})
	assert.Empty(t, env.deps.Requests.List())
}

func TestRequests_RunMissingCurl(t *testing.T) {
	if _, err := exec.LookPath("curl"); err == nil {
		t.Skip("curl is installed; this test covers the missing-binary path")
	}
	env := newTestEnv(t)

	rec := env.postJSON(t, "/requests/run", domain.ProxyRequest{Method: "GET", URL: "http://127.0.0.1:1"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to execute curl: ")
}

func TestRequests_RunValidates(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON(t, "/requests/run", map[string]string{"method": "GET"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
