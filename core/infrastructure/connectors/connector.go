package connectors

import (
	"fmt"

	"github.com/hyperterse/dbmcp/core/domain"
	"github.com/hyperterse/dbmcp/core/domain/interfaces"
	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

// Compile-time checks that every variant satisfies the contract.
var (
	_ interfaces.Connector = (*PostgresConnector)(nil)
	_ interfaces.Connector = (*MySQLConnector)(nil)
	_ interfaces.Connector = (*SQLServerConnector)(nil)
	_ interfaces.Connector = (*SQLiteConnector)(nil)
	_ interfaces.Connector = (*ANSIConnector)(nil)
)

// New creates a disconnected connector for dialect.
func New(dialect domain.Dialect) (interfaces.Connector, error) {
	switch dialect {
	case domain.DialectPostgres:
		return NewPostgresConnector(), nil
	case domain.DialectMySQL, domain.DialectMariaDB:
		return NewMySQLConnector(dialect), nil
	case domain.DialectSQLServer:
		return NewSQLServerConnector(), nil
	case domain.DialectSQLite:
		return NewSQLiteConnector(), nil
	case domain.DialectANSI:
		return NewANSIConnector(), nil
	}
	return nil, apperrors.NewAppError(apperrors.ErrCodeDSNParse,
		fmt.Sprintf("unsupported dialect '%s'", dialect), nil)
}

var _ interfaces.ConnectorManager = (*ConnectorManager)(nil)
