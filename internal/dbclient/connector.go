package dbclient

import (
	"context"
	"errors"
	"fmt"

	"workbench/internal/domain"
)

var (
	// ErrConnect wraps failures to open or reach a database.
	ErrConnect = errors.New("db connect error")
	// ErrQuery wraps failures while running a statement or reading its rows.
	ErrQuery = errors.New("query error")
	// ErrUnsupported is returned for a db_type no connector handles.
	ErrUnsupported = errors.New("unsupported db type")
)

// Connector abstracts interaction with an external database.
type Connector interface {
	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Query runs one statement and materializes its rows as display
	// strings. maxRows <= 0 means no limit.
	Query(ctx context.Context, query string, maxRows int) (*domain.QueryResult, error)

	// Schema maps each table (or collection) to its column names.
	Schema(ctx context.Context) (map[string][]string, error)

	Close() error
}

// DSN builds the driver connection string for conn. The DSN is also the
// key under which PoolCache shares connectors.
func DSN(conn *domain.DbConnection) (string, error) {
	switch conn.DBType {
	case domain.DBTypePostgres, "":
		return buildPostgresDSN(conn), nil
	case domain.DBTypeSQLite:
		return buildSQLiteDSN(conn), nil
	case domain.DBTypeMySQL:
		return buildMySQLDSN(conn), nil
	case domain.DBTypeMongoDB:
		return buildMongoURI(conn), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, conn.DBType)
	}
}

// Open creates a Connector for conn without contacting the server.
func Open(conn *domain.DbConnection, dsn string) (Connector, error) {
	switch conn.DBType {
	case domain.DBTypePostgres, "":
		return newSQLConnector(domain.DBTypePostgres, "postgres", dsn, 5, NewDecoder())
	case domain.DBTypeSQLite:
		return newSQLConnector(domain.DBTypeSQLite, "sqlite", dsn, 1, NewSQLiteDecoder())
	case domain.DBTypeMySQL:
		return newSQLConnector(domain.DBTypeMySQL, "mysql", dsn, 5, NewDecoder())
	case domain.DBTypeMongoDB:
		return newMongoConnector(dsn, mongoDatabaseName(conn, dsn))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, conn.DBType)
	}
}
