package domain

import "strings"

// Dialect identifies the database engine a connector speaks to.
// The set is closed: every switch over Dialect in this module lists all of
// the constants below, so adding a dialect is a compile-visible change.
type Dialect string

const (
	DialectPostgres  Dialect = "postgres"
	DialectMySQL     Dialect = "mysql"
	DialectMariaDB   Dialect = "mariadb"
	DialectSQLServer Dialect = "sqlserver"
	DialectSQLite    Dialect = "sqlite"
	// DialectANSI is the explicit fallback for engines that speak a known wire
	// protocol but are only introspected through information_schema.
	DialectANSI Dialect = "ansi"
)

// Dialects lists every supported dialect in display order.
var Dialects = []Dialect{
	DialectPostgres,
	DialectMySQL,
	DialectMariaDB,
	DialectSQLServer,
	DialectSQLite,
	DialectANSI,
}

// DisplayName returns the human-readable engine name.
func (d Dialect) DisplayName() string {
	switch d {
	case DialectPostgres:
		return "PostgreSQL"
	case DialectMySQL:
		return "MySQL"
	case DialectMariaDB:
		return "MariaDB"
	case DialectSQLServer:
		return "SQL Server"
	case DialectSQLite:
		return "SQLite"
	case DialectANSI:
		return "ANSI SQL"
	}
	return string(d)
}

// SupportsStoredProcedures reports whether the dialect exposes stored
// procedures through its catalog.
func (d Dialect) SupportsStoredProcedures() bool {
	switch d {
	case DialectPostgres, DialectMySQL, DialectMariaDB, DialectSQLServer:
		return true
	case DialectSQLite, DialectANSI:
		return false
	}
	return false
}

// Wire protocols an ANSI connection can ride on.
const (
	WirePostgres = "postgres"
	WireMySQL    = "mysql"
)

// schemeDialects maps DSN schemes (lowercase) to dialects.
var schemeDialects = map[string]Dialect{
	"postgres":    DialectPostgres,
	"postgresql":  DialectPostgres,
	"mysql":       DialectMySQL,
	"mariadb":     DialectMariaDB,
	"sqlserver":   DialectSQLServer,
	"mssql":       DialectSQLServer,
	"sqlite":      DialectSQLite,
	"sqlite3":     DialectSQLite,
	"cockroachdb": DialectANSI,
	"yugabytedb":  DialectANSI,
	"redshift":    DialectANSI,
	"tidb":        DialectANSI,
}

// ansiWires maps ANSI schemes to the wire protocol used to reach them.
var ansiWires = map[string]string{
	"cockroachdb": WirePostgres,
	"yugabytedb":  WirePostgres,
	"redshift":    WirePostgres,
	"tidb":        WireMySQL,
}

// DialectForScheme resolves a DSN scheme to its dialect.
func DialectForScheme(scheme string) (Dialect, bool) {
	d, ok := schemeDialects[strings.ToLower(scheme)]
	return d, ok
}

// ANSIWire returns the wire protocol for an ANSI scheme.
func ANSIWire(scheme string) (string, bool) {
	w, ok := ansiWires[strings.ToLower(scheme)]
	return w, ok
}

// ReadOnlyKeywords returns the leading keywords that classify a statement as
// read-only for the dialect. It is total over Dialect: an unrecognized value
// gets the ANSI set.
func ReadOnlyKeywords(d Dialect) []string {
	switch d {
	case DialectPostgres:
		return []string{"select", "with", "explain", "analyze", "show"}
	case DialectMySQL, DialectMariaDB:
		return []string{"select", "with", "explain", "analyze", "show", "describe", "desc"}
	case DialectSQLite:
		return []string{"select", "with", "explain", "analyze", "pragma"}
	case DialectSQLServer:
		return []string{"select", "with", "explain", "showplan"}
	case DialectANSI:
		return ansiKeywords()
	}
	return ansiKeywords()
}

func ansiKeywords() []string {
	return []string{"select", "with", "explain", "show"}
}
