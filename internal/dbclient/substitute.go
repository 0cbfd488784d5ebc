package dbclient

import (
	"sort"
	"strings"
)

// Substitute replaces every {{name}} in query with vars[name]. Values are
// inserted verbatim; there is no quoting or escaping.
func Substitute(query string, vars map[string]string) string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		query = strings.ReplaceAll(query, "{{"+name+"}}", vars[name])
	}
	return query
}

var ddlMarkers = []string{"CREATE TABLE", "DROP TABLE", "ALTER TABLE"}

// IsDDL reports whether query looks like it changes the table layout.
// It is a substring match: a marker inside a string literal counts, and
// CREATE INDEX or RENAME do not.
func IsDDL(query string) bool {
	upper := strings.ToUpper(query)
	for _, m := range ddlMarkers {
		if strings.Contains(upper, m) {
			return true
		}
	}
	return false
}
