package mcpserver

import (
	"strings"

	"github.com/goccy/go-json"
)

// Statements starting with one of these keywords only read, provided no
// modifying keyword appears anywhere in them.
var readOnlyLeads = map[string]bool{
	"SELECT": true, "WITH": true, "VALUES": true, "TABLE": true,
	"SHOW": true, "EXPLAIN": true, "DESCRIBE": true, "DESC": true, "PRAGMA": true,
}

var modifyingWords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "REPLACE": true, "MERGE": true, "UPSERT": true,
	"TRUNCATE": true, "DROP": true, "CREATE": true, "ALTER": true, "RENAME": true,
	"GRANT": true, "REVOKE": true, "COPY": true, "INTO": true,
	"ATTACH": true, "DETACH": true, "VACUUM": true, "REINDEX": true,
	"CALL": true, "EXEC": true, "EXECUTE": true, "LOCK": true, "COMMENT": true,
}

var readOnlyMongoOps = map[string]bool{"": true, "find": true, "aggregate": true}

// isWrite reports whether query may modify data or schema. Anything not
// recognizably read-only counts as a write.
func isWrite(query string) bool {
	trimmed := strings.TrimSpace(query)
	if strings.HasPrefix(trimmed, "{") {
		return isMongoWrite(trimmed)
	}
	for _, stmt := range splitStatements(query) {
		if len(stmt) == 0 {
			continue
		}
		if !readOnlyLeads[stmt[0]] {
			return true
		}
		for _, tok := range stmt {
			if modifyingWords[tok] {
				return true
			}
			// PRAGMA name = value changes settings.
			if stmt[0] == "PRAGMA" && tok == "=" {
				return true
			}
		}
	}
	return false
}

func isMongoWrite(query string) bool {
	var q struct {
		Operation string `json:"operation"`
		Pipeline  []any  `json:"pipeline"`
	}
	if err := json.Unmarshal([]byte(query), &q); err != nil {
		return true
	}
	if !readOnlyMongoOps[q.Operation] {
		return true
	}
	// $out and $merge stages write the pipeline result to a collection.
	for _, stage := range q.Pipeline {
		if m, ok := stage.(map[string]any); ok {
			if _, out := m["$out"]; out {
				return true
			}
			if _, merge := m["$merge"]; merge {
				return true
			}
		}
	}
	return false
}

// splitStatements breaks query on semicolons into upper-cased keyword
// tokens, skipping comments, string literals and quoted identifiers.
// "=" is kept as a token; other punctuation is dropped.
func splitStatements(query string) [][]string {
	var (
		stmts [][]string
		cur   []string
		word  strings.Builder
	)
	flush := func() {
		if word.Len() > 0 {
			cur = append(cur, strings.ToUpper(word.String()))
			word.Reset()
		}
	}

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			flush()
			for i < len(query) && query[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(query) && query[i+1] == '*':
			flush()
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				i = len(query)
			} else {
				i += end + 3
			}
		case c == '\'' || c == '"' || c == '`':
			flush()
			i = skipQuoted(query, i, c)
		case c == '$' && word.Len() == 0:
			flush()
			i = skipDollarQuoted(query, i)
		case c == ';':
			flush()
			stmts = append(stmts, cur)
			cur = nil
		case c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
			word.WriteByte(c)
		case c == '=':
			flush()
			cur = append(cur, "=")
		default:
			flush()
		}
	}
	flush()
	return append(stmts, cur)
}

// skipQuoted returns the index of the quote closing the literal opened at
// start. A doubled quote is an escaped quote.
func skipQuoted(s string, start int, q byte) int {
	for i := start + 1; i < len(s); i++ {
		if s[i] == q {
			if i+1 < len(s) && s[i+1] == q {
				i++
				continue
			}
			return i
		}
	}
	return len(s)
}

// skipDollarQuoted skips a Postgres $tag$ ... $tag$ body. A lone $ (such
// as a $1 parameter) is skipped by itself.
func skipDollarQuoted(s string, start int) int {
	end := strings.IndexByte(s[start+1:], '$')
	if end < 0 {
		return start
	}
	tag := s[start : start+end+2]
	for _, c := range tag[1 : len(tag)-1] {
		if !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return start
		}
	}
	closing := strings.Index(s[start+len(tag):], tag)
	if closing < 0 {
		return len(s)
	}
	return start + len(tag) + closing + len(tag) - 1
}
