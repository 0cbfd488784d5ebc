package domain

// DBType represents the kind of database engine behind a connection.
type DBType string

const (
	DBTypePostgres DBType = "postgres"
	DBTypeSQLite   DBType = "sqlite"
	DBTypeMySQL    DBType = "mysql"
	DBTypeMongoDB  DBType = "mongodb"
)

// DbConnection is a saved database connection profile.
// Nickname is the identity key and must be unique within the registry.
// For sqlite, Host is the database file path and the other fields are unused.
type DbConnection struct {
	DBType   DBType `json:"db_type" validate:"omitempty,oneof=postgres sqlite mysql mongodb"`
	Host     string `json:"host" validate:"required"`
	DBName   string `json:"db_name"`
	User     string `json:"user"`
	Password string `json:"password"`
	Nickname string `json:"nickname" validate:"required,max=64"`
	SSLMode  string `json:"ssl_mode,omitempty"`
}

// Normalize fills in defaults for fields older profiles may omit.
func (c *DbConnection) Normalize() {
	if c.DBType == "" {
		c.DBType = DBTypePostgres
	}
	if c.SSLMode == "" && c.DBType == DBTypePostgres {
		c.SSLMode = "disable"
	}
}

// ConnectionStore persists the full list of connection profiles.
// Implementations encrypt the list at rest.
type ConnectionStore interface {
	LoadConnections() ([]DbConnection, error)
	SaveConnections(conns []DbConnection) error
}

// QueryResult is the materialized output of one query run.
// Rows holds display strings in column order; Export holds the same
// data keyed by column name for CSV export. Both always have the same length.
type QueryResult struct {
	Columns []string            `json:"columns"`
	Rows    [][]string          `json:"rows"`
	Export  []map[string]string `json:"-"`
}

// NewQueryResult builds a QueryResult, deriving the export maps from rows.
func NewQueryResult(columns []string, rows [][]string) *QueryResult {
	export := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(row) {
				m[col] = row[i]
			}
		}
		export = append(export, m)
	}
	if rows == nil {
		rows = [][]string{}
	}
	return &QueryResult{Columns: columns, Rows: rows, Export: export}
}

// SavedQuery is a named SQL snippet shown on the runner page.
type SavedQuery struct {
	Name string `json:"name"`
	SQL  string `json:"sql"`
}

// SavedQueryStore persists saved queries as one document.
type SavedQueryStore interface {
	LoadQueries() ([]SavedQuery, error)
	SaveQueries(queries []SavedQuery) error
}
