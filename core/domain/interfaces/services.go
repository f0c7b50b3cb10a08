package interfaces

import (
	"context"

	"github.com/hyperterse/dbmcp/core/domain"
)

// SQLService is what the tool layer talks to. Schema arguments may be empty,
// in which case the connector default is used and reported back.
type SQLService interface {
	// Dialect returns the dialect of the underlying connector
	Dialect() domain.Dialect

	// ExecuteSQL applies the read-only gate, then runs sql
	ExecuteSQL(ctx context.Context, sql string) (*domain.SQLResult, error)

	ListSchemas(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context, schema string) (string, []string, error)
	DescribeTable(ctx context.Context, schema, table string) (*domain.TableDescription, error)
	ListStoredProcedures(ctx context.Context, schema string) (string, []domain.StoredProcedure, error)
	DescribeStoredProcedure(ctx context.Context, schema, name string) (*domain.StoredProcedure, error)
}
