package server_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workbench/internal/service"
)

func TestRunSQL_RendersTableWithNullAsEmpty(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON(t, "/sql/run", service.RunRequest{
		SQL:        "SELECT id, name, email FROM users ORDER BY id",
		Connection: "local",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<th>email</th>")
	assert.Contains(t, body, "<td>ada</td><td></td>")
	assert.Contains(t, body, "<td>g@example.com</td>")
	assert.Contains(t, body, "2 row(s)")
	assert.Empty(t, rec.Header().Get("HX-Trigger"))
}

func TestRunSQL_SubstitutesVariables(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON(t, "/sql/run", service.RunRequest{
		SQL:        "SELECT name FROM users WHERE id = {{id}}",
		Connection: "local",
		Variables:  map[string]string{"id": "2"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<td>grace</td>")
	assert.NotContains(t, rec.Body.String(), "<td>ada</td>")
}

func TestRunSQL_EscapesCellValues(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON(t, "/sql/run", service.RunRequest{
		SQL:        "SELECT '<b>x</b>' AS v",
		Connection: "local",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "&lt;b&gt;x&lt;/b&gt;")
}

func TestRunSQL_DDLSetsTrigger(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON(t, "/sql/run", service.RunRequest{
		SQL:        "CREATE TABLE orders (id INTEGER)",
		Connection: "local",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "schema-changed", rec.Header().Get("HX-Trigger"))
	assert.Contains(t, env.emitter.Names(), "sql:schema-changed")
}

func TestRunSQL_ErrorsAreInline(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postJSON(t, "/sql/run", service.RunRequest{SQL: "SELECT 1", Connection: "missing"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="sql-error"`)
	assert.Contains(t, rec.Body.String(), "Connection &#39;missing&#39; not found")

	rec = env.postJSON(t, "/sql/run", service.RunRequest{SQL: "SELEC nonsense", Connection: "local"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "query error")
}

func TestRunSQL_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/sql/run", "application/json", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.postJSON(t, "/sql/run", map[string]string{"sql": "SELECT 1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/sql/export", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	env.postJSON(t, "/sql/run", service.RunRequest{
		SQL:        "SELECT name, id FROM users ORDER BY id",
		Connection: "local",
	})

	rec = env.do(t, http.MethodGet, "/sql/export", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="results.csv"`, rec.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"id","name"`, lines[0])
	assert.Equal(t, `"1","ada"`, lines[1])
	assert.Equal(t, `"2","grace"`, lines[2])
}

func TestExportCSV_KeepsLastSuccessfulResult(t *testing.T) {
	env := newTestEnv(t)

	env.postJSON(t, "/sql/run", service.RunRequest{SQL: "SELECT 7 AS n", Connection: "local"})
	env.postJSON(t, "/sql/run", service.RunRequest{SQL: "SELECT * FROM nope", Connection: "local"})

	rec := env.do(t, http.MethodGet, "/sql/export", "", "")
	assert.Equal(t, "\"n\"\n\"7\"\n", rec.Body.String())
}

func TestSchemaJSON(t *testing.T) {
	env := newTestEnv(t)

	first := env.do(t, http.MethodGet, "/sql/local/schema-json", "", "")
	require.Equal(t, http.StatusOK, first.Code)
	var schema map[string][]string
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &schema))
	assert.Equal(t, []string{"id", "name", "email"}, schema["users"])

	second := env.do(t, http.MethodGet, "/sql/local/schema-json", "", "")
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestSchemaJSON_UnknownConnection(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/sql/ghost/schema-json", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `"Connection not found"`, rec.Body.String())
}

func TestRunnerPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/sql/local", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-connection="local"`)
	assert.Contains(t, rec.Body.String(), `"users"`)

	rec = env.do(t, http.MethodGet, "/sql/ghost", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConnectionCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm(t, "/sql/add", url.Values{
		"db_type":  {"postgres"},
		"host":     {"db.internal:5432"},
		"db_name":  {"app"},
		"user":     {"app"},
		"password": {"s3cret"},
		"nickname": {"prod"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/sql", rec.Header().Get("Location"))

	conn, err := env.deps.Connections.Get("prod")
	require.NoError(t, err)
	assert.Equal(t, "disable", conn.SSLMode)

	rec = env.do(t, http.MethodGet, "/sql", "", "")
	assert.Contains(t, rec.Body.String(), "db.internal:5432")
	assert.NotContains(t, rec.Body.String(), "s3cret")

	rec = env.postForm(t, "/sql/delete_connection", url.Values{"nickname": {"prod"}})
	require.Equal(t, http.StatusFound, rec.Code)
	_, err = env.deps.Connections.Get("prod")
	assert.ErrorIs(t, err, service.ErrConnectionNotFound)
}

func TestAddConnection_Invalid(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm(t, "/sql/add", url.Values{"db_type": {"oracle"}, "host": {"x"}, "nickname": {"o"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.postForm(t, "/sql/add", url.Values{"db_type": {"sqlite"}, "host": {"x.db"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSavedQueries(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm(t, "/sql/save", url.Values{
		"query_name": {"all users"},
		"sql":        {"SELECT * FROM users"},
		"connection": {"local"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/sql/local", rec.Header().Get("Location"))

	env.postForm(t, "/sql/save", url.Values{
		"query_name": {"all users"},
		"sql":        {"SELECT id FROM users"},
		"connection": {"local"},
	})
	qs := env.deps.SQL.SavedQueries()
	require.Len(t, qs, 1)
	assert.Equal(t, "SELECT id FROM users", qs[0].SQL)

	rec = env.postForm(t, "/sql/delete", url.Values{"query_name": {"all users"}, "connection": {"local"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Empty(t, env.deps.SQL.SavedQueries())
}
