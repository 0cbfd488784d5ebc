package dbclient

import (
	"github.com/go-sql-driver/mysql"

	"workbench/internal/domain"
)

const mysqlSchemaQuery = `SELECT table_name AS table_name, column_name AS column_name
FROM information_schema.columns
WHERE table_schema = DATABASE()
ORDER BY table_name, ordinal_position`

// buildMySQLDSN constructs user:pass@tcp(host)/db?parseTime=true&charset=utf8mb4.
func buildMySQLDSN(conn *domain.DbConnection) string {
	cfg := mysql.NewConfig()
	cfg.User = conn.User
	cfg.Passwd = conn.Password
	cfg.Net = "tcp"
	cfg.Addr = conn.Host
	cfg.DBName = conn.DBName
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	if conn.SSLMode == "require" {
		cfg.TLSConfig = "true"
	}
	return cfg.FormatDSN()
}
