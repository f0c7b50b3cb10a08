package domain

// ConnectionConfig is the structured form of a DSN. It is produced by a
// dialect's DSN parser and consumed by the matching connector.
type ConnectionConfig struct {
	Dialect  Dialect
	Scheme   string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// Params holds every query parameter of the DSN, known or not.
	Params map[string]string
	// FilePath is the database file for SQLite, or ":memory:".
	FilePath string
	// Wire is the protocol an ANSI connection rides on (WirePostgres or WireMySQL).
	Wire string
	// DriverDSN is the connection string rendered for the native driver.
	DriverDSN string
}

// Param returns a DSN parameter, or "" when absent.
func (c *ConnectionConfig) Param(key string) string {
	if c == nil || c.Params == nil {
		return ""
	}
	return c.Params[key]
}

// TableDescription bundles the columns and indexes of one table.
type TableDescription struct {
	Schema  string        `json:"schema"`
	Table   string        `json:"table"`
	Columns []TableColumn `json:"columns"`
	Indexes []TableIndex  `json:"indexes"`
}
