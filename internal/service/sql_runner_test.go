package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"workbench/internal/dbclient"
	"workbench/internal/domain"
	"workbench/internal/service"
	"workbench/internal/storage"
)

// newSQLService wires a runner against a fresh SQLite file registered as "local".
func newSQLService(t *testing.T) (*service.SQLService, *service.MockEmitter) {
	t.Helper()
	b := newBackend(t)
	emitter := &service.MockEmitter{}
	reg := service.NewConnectionRegistry(newConnectionStore(t, b), emitter)
	reg.Save(context.Background(), domain.DbConnection{
		DBType:   domain.DBTypeSQLite,
		Host:     filepath.Join(t.TempDir(), "runner.db"),
		Nickname: "local",
	})

	pools := dbclient.NewPoolCache()
	t.Cleanup(func() { pools.Close() })

	svc := service.NewSQLService(reg, pools, storage.NewQueryStore(b), emitter, service.SQLOptions{})
	return svc, emitter
}

func run(t *testing.T, svc *service.SQLService, sql string, vars map[string]string) *service.RunOutcome {
	t.Helper()
	out, err := svc.Run(context.Background(), service.RunRequest{SQL: sql, Connection: "local", Variables: vars})
	if err != nil {
		t.Fatalf("Run(%q): %v", sql, err)
	}
	return out
}

// ─────────────────────────────────────────────────────────────
// SQLService.Run
// ─────────────────────────────────────────────────────────────

func TestSQLService_DDLFlagsSchemaChange(t *testing.T) {
	svc, emitter := newSQLService(t)

	out := run(t, svc, "CREATE TABLE t (a TEXT, b TEXT)", nil)
	if !out.SchemaChanged {
		t.Error("expected SchemaChanged for CREATE TABLE")
	}
	found := false
	for _, name := range emitter.Names() {
		if name == "sql:schema-changed" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected sql:schema-changed event, got %v", emitter.Names())
	}

	out = run(t, svc, "SELECT 1", nil)
	if out.SchemaChanged {
		t.Error("did not expect SchemaChanged for SELECT")
	}
}

func TestSQLService_SubstitutesVariables(t *testing.T) {
	svc, _ := newSQLService(t)
	out := run(t, svc, "SELECT {{x}} AS v", map[string]string{"x": "5"})
	if want := [][]string{{"5"}}; !reflect.DeepEqual(out.Result.Rows, want) {
		t.Errorf("Rows = %v, want %v", out.Result.Rows, want)
	}
}

func TestSQLService_UnknownConnection(t *testing.T) {
	svc, _ := newSQLService(t)
	_, err := svc.Run(context.Background(), service.RunRequest{SQL: "SELECT 1", Connection: "missing"})
	if !errors.Is(err, service.ErrConnectionNotFound) {
		t.Fatalf("expected ErrConnectionNotFound, got %v", err)
	}
}

func TestSQLService_FailureKeepsLastResults(t *testing.T) {
	svc, _ := newSQLService(t)
	run(t, svc, "SELECT 'kept' AS v", nil)

	_, err := svc.Run(context.Background(), service.RunRequest{SQL: "SELECT * FROM nowhere", Connection: "local"})
	if !errors.Is(err, dbclient.ErrQuery) {
		t.Fatalf("expected ErrQuery, got %v", err)
	}
	last := svc.LastResults()
	if len(last.Rows) != 1 || last.Rows[0][0] != "kept" {
		t.Errorf("previous results lost: %+v", last.Rows)
	}
}

// ─────────────────────────────────────────────────────────────
// CSV export
// ─────────────────────────────────────────────────────────────

func TestSQLService_ExportCSV(t *testing.T) {
	svc, _ := newSQLService(t)
	run(t, svc, "CREATE TABLE t (b TEXT, a TEXT)", nil)
	run(t, svc, `INSERT INTO t VALUES ('x', 'he said "hi"'), (NULL, 'y'), ('z', NULL)`, nil)
	run(t, svc, "SELECT b, a FROM t", nil)

	csv := string(svc.ExportCSV())
	lines := strings.Split(strings.TrimSuffix(csv, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines (header + 3 rows), got %d: %q", len(lines), csv)
	}
	if lines[0] != `"a","b"` {
		t.Errorf("header = %q, want sorted %q", lines[0], `"a","b"`)
	}
	if lines[1] != `"he said ""hi""","x"` {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != `"y",""` {
		t.Errorf("NULL should export as empty, row 2 = %q", lines[2])
	}
	if lines[3] != `"","z"` {
		t.Errorf("row 3 = %q", lines[3])
	}
}

func TestEncodeCSV_Empty(t *testing.T) {
	if got := service.EncodeCSV(nil); len(got) != 0 {
		t.Errorf("expected empty output, got %q", got)
	}
}

// ─────────────────────────────────────────────────────────────
// Schema + saved queries
// ─────────────────────────────────────────────────────────────

func TestSQLService_SchemaIdempotent(t *testing.T) {
	svc, _ := newSQLService(t)
	run(t, svc, "CREATE TABLE users (id INTEGER, email TEXT)", nil)
	run(t, svc, "CREATE TABLE empty_one (x INTEGER)", nil)

	ctx := context.Background()
	first, err := svc.Schema(ctx, "local")
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	second, err := svc.Schema(ctx, "local")
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("schema changed between calls: %v vs %v", first, second)
	}
	if want := []string{"id", "email"}; !reflect.DeepEqual(first["users"], want) {
		t.Errorf("users = %v, want %v", first["users"], want)
	}
}

func TestSQLService_SavedQueries(t *testing.T) {
	svc, _ := newSQLService(t)

	svc.SaveQuery(domain.SavedQuery{Name: "all", SQL: "SELECT 1"})
	svc.SaveQuery(domain.SavedQuery{Name: "all", SQL: "SELECT 2"})
	svc.SaveQuery(domain.SavedQuery{Name: "other", SQL: "SELECT 3"})

	qs := svc.SavedQueries()
	if len(qs) != 2 {
		t.Fatalf("expected 2 saved queries, got %d", len(qs))
	}
	if qs[0].SQL != "SELECT 2" {
		t.Errorf("expected replaced SQL, got %q", qs[0].SQL)
	}

	svc.DeleteQuery("all")
	qs = svc.SavedQueries()
	if len(qs) != 1 || qs[0].Name != "other" {
		t.Errorf("unexpected queries after delete: %+v", qs)
	}
}
