package interfaces

import (
	"context"

	"github.com/hyperterse/dbmcp/core/domain"
)

// DSNParser turns a raw DSN into a ConnectionConfig for one dialect.
type DSNParser interface {
	// Dialect returns the dialect this parser produces configs for
	Dialect() domain.Dialect

	// Parse parses raw. It fails with DSN_PARSE_ERROR when the scheme does not
	// belong to the dialect or a required field is missing.
	Parse(raw string) (*domain.ConnectionConfig, error)

	// SampleDSN returns a canonical example, for operator diagnostics only
	SampleDSN() string
}

// Connector is the uniform contract every dialect variant implements.
// Methods taking a schema treat "" as the dialect's default schema.
type Connector interface {
	// ID returns the dialect tag
	ID() domain.Dialect
	// Name returns the display name of the engine
	Name() string
	// Parser returns the DSN parser for this dialect
	Parser() DSNParser

	// Connect opens and verifies the pool. On failure no handle is kept.
	Connect(ctx context.Context, cfg *domain.ConnectionConfig) error
	// Disconnect closes the pool. It is safe to call more than once.
	Disconnect() error
	// DefaultSchema returns the schema used when callers pass ""
	DefaultSchema() string

	GetSchemas(ctx context.Context) ([]string, error)
	GetTables(ctx context.Context, schema string) ([]string, error)
	TableExists(ctx context.Context, schema, table string) (bool, error)
	GetTableSchema(ctx context.Context, schema, table string) ([]domain.TableColumn, error)
	GetTableIndexes(ctx context.Context, schema, table string) ([]domain.TableIndex, error)

	// GetStoredProcedures fails with UNSUPPORTED on dialects without procedures
	GetStoredProcedures(ctx context.Context, schema string) ([]domain.StoredProcedure, error)
	// GetStoredProcedureDetail returns nil, nil when the procedure does not exist
	GetStoredProcedureDetail(ctx context.Context, schema, name string) (*domain.StoredProcedure, error)

	// ExecuteSQL runs every ';'-separated statement of sql in order on a
	// single connection and returns the rows of all of them.
	ExecuteSQL(ctx context.Context, sql string) (*domain.SQLResult, error)
}

// ConnectorManager holds the single active connector of the process
type ConnectorManager interface {
	// ConnectWithDSN resolves, connects and installs a connector
	ConnectWithDSN(ctx context.Context, dsn string) error

	// Current returns the installed connector. It panics when nothing is
	// installed, since that is a startup-ordering bug.
	Current() Connector

	// Disconnect tears down the installed connector, if any
	Disconnect() error
}
