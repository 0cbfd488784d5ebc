package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"workbench/internal/domain"
)

// buildSQLiteDSN treats Host as the database file path.
func buildSQLiteDSN(conn *domain.DbConnection) string {
	return conn.Host + "?_pragma=busy_timeout(5000)"
}

type pragmaColumn struct {
	CID     int            `db:"cid"`
	Name    string         `db:"name"`
	Type    string         `db:"type"`
	NotNull int            `db:"notnull"`
	Default sql.NullString `db:"dflt_value"`
	PK      int            `db:"pk"`
}

func sqliteSchema(ctx context.Context, db *sqlx.DB) (map[string][]string, error) {
	var tables []string
	err := db.SelectContext(ctx, &tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: schema: %v", ErrQuery, err)
	}

	schema := make(map[string][]string, len(tables))
	for _, table := range tables {
		var info []pragmaColumn
		q := `PRAGMA table_info("` + strings.ReplaceAll(table, `"`, `""`) + `")`
		if err := db.SelectContext(ctx, &info, q); err != nil {
			return nil, fmt.Errorf("%w: table_info %s: %v", ErrQuery, table, err)
		}
		cols := make([]string, 0, len(info))
		for _, c := range info {
			cols = append(cols, c.Name)
		}
		schema[table] = cols
	}
	return schema, nil
}
