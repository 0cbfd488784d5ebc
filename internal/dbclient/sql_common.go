package dbclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"workbench/internal/domain"
	"workbench/internal/logging"
)

// sqlConnector is the shared implementation for Postgres, MySQL, and SQLite.
type sqlConnector struct {
	dbType  domain.DBType
	db      *sqlx.DB
	decoder *Decoder
}

func newSQLConnector(dbType domain.DBType, driverName, dsn string, maxOpen int, dec *Decoder) (*sqlConnector, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrConnect, driverName, err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(min(2, maxOpen))
	db.SetConnMaxLifetime(10 * time.Minute)

	return &sqlConnector{dbType: dbType, db: db, decoder: dec}, nil
}

func (c *sqlConnector) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	return nil
}

func (c *sqlConnector) Query(ctx context.Context, query string, maxRows int) (*domain.QueryResult, error) {
	rows, err := c.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("%w: columns: %v", ErrQuery, err)
	}
	cols := make([]Column, len(types))
	names := make([]string, len(types))
	for i, ct := range types {
		cols[i] = Column{Name: ct.Name(), Type: strings.ToUpper(ct.DatabaseTypeName())}
		names[i] = ct.Name()
	}

	var out [][]string
	for rows.Next() {
		if maxRows > 0 && len(out) >= maxRows {
			log := logging.WithComponent("dbclient")
			log.Warn().
				Str("db_type", string(c.dbType)).
				Int("max_rows", maxRows).
				Msg("result truncated")
			break
		}
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrQuery, err)
		}
		out = append(out, c.decoder.DecodeRow(cols, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	return domain.NewQueryResult(names, out), nil
}

func (c *sqlConnector) Schema(ctx context.Context) (map[string][]string, error) {
	switch c.dbType {
	case domain.DBTypeSQLite:
		return sqliteSchema(ctx, c.db)
	case domain.DBTypeMySQL:
		return informationSchema(ctx, c.db, mysqlSchemaQuery)
	default:
		return informationSchema(ctx, c.db, postgresSchemaQuery)
	}
}

func (c *sqlConnector) Close() error {
	return c.db.Close()
}

type schemaColumn struct {
	Table  string `db:"table_name"`
	Column string `db:"column_name"`
}

// informationSchema groups information_schema.columns rows by table,
// keeping ordinal order.
func informationSchema(ctx context.Context, db *sqlx.DB, query string) (map[string][]string, error) {
	var cols []schemaColumn
	if err := db.SelectContext(ctx, &cols, query); err != nil {
		return nil, fmt.Errorf("%w: schema: %v", ErrQuery, err)
	}
	schema := make(map[string][]string)
	for _, c := range cols {
		schema[c.Table] = append(schema[c.Table], c.Column)
	}
	return schema, nil
}
