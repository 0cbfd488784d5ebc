package dbclient

import "testing"

func TestSubstitute(t *testing.T) {
	cases := []struct {
		query string
		vars  map[string]string
		want  string
	}{
		{"SELECT {{x}}", map[string]string{"x": "5"}, "SELECT 5"},
		{"SELECT {{x}} + {{x}}", map[string]string{"x": "1"}, "SELECT 1 + 1"},
		{"SELECT {{y}}", map[string]string{"x": "1"}, "SELECT {{y}}"},
		{"WHERE name = '{{n}}'", map[string]string{"n": "o'brien"}, "WHERE name = 'o'brien'"},
		{"SELECT 1", nil, "SELECT 1"},
	}
	for _, c := range cases {
		if got := Substitute(c.query, c.vars); got != c.want {
			t.Errorf("Substitute(%q) = %q, want %q", c.query, got, c.want)
		}
	}
}

func TestIsDDL(t *testing.T) {
	cases := map[string]bool{
		"CREATE TABLE t (a int)":         true,
		"drop table t":                   true,
		"Alter Table t add column b int": true,
		"SELECT 'create table' AS s":     true,
		"CREATE INDEX i ON t(a)":         false,
		"SELECT * FROM t":                false,
		"ALTER  TABLE t RENAME TO u":     false,
	}
	for q, want := range cases {
		if got := IsDDL(q); got != want {
			t.Errorf("IsDDL(%q) = %v, want %v", q, got, want)
		}
	}
}
