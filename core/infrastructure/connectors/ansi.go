package connectors

import (
	"context"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/hyperterse/dbmcp/core/domain"
	"github.com/hyperterse/dbmcp/core/domain/interfaces"
	"github.com/hyperterse/dbmcp/core/infrastructure/dsn"
	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

const ansiSchemasQuery = `SELECT schema_name FROM information_schema.schemata
WHERE schema_name NOT IN ('information_schema', 'pg_catalog', 'pg_extension', 'crdb_internal',
  'mysql', 'performance_schema', 'sys', 'metrics_schema')
ORDER BY schema_name`

// ANSIConnector is the fallback for engines that speak the Postgres or MySQL
// wire protocol but are introspected only through information_schema. It
// uses lib/pq for the Postgres wire and go-sql-driver/mysql for the MySQL
// wire.
type ANSIConnector struct {
	sqlConnector
	defaultSchema string
}

// NewANSIConnector creates a disconnected ANSI connector
func NewANSIConnector() *ANSIConnector {
	c := &ANSIConnector{}
	c.init(domain.DialectANSI)
	return c
}

func (c *ANSIConnector) Parser() interfaces.DSNParser { return dsn.ANSIParser{} }

func (c *ANSIConnector) DefaultSchema() string { return c.defaultSchema }

func (c *ANSIConnector) Connect(ctx context.Context, cfg *domain.ConnectionConfig) error {
	var driverName string
	switch cfg.Wire {
	case domain.WirePostgres:
		driverName = "postgres"
		c.defaultSchema = "public"
	case domain.WireMySQL:
		driverName = "mysql"
		c.defaultSchema = cfg.Database
	default:
		return apperrors.NewAppError(apperrors.ErrCodeConnection,
			fmt.Sprintf("unknown wire protocol '%s' for %s", cfg.Wire, cfg.Scheme), nil)
	}
	c.log.Debugf("Opening %s connection over the %s wire", cfg.Scheme, cfg.Wire)
	return c.open(ctx, driverName, cfg.DriverDSN)
}

func (c *ANSIConnector) GetSchemas(ctx context.Context) ([]string, error) {
	return c.selectStrings(ctx, ansiSchemasQuery)
}

func (c *ANSIConnector) GetTables(ctx context.Context, schema string) ([]string, error) {
	return c.infoSchemaTables(ctx, orDefault(schema, c.DefaultSchema()))
}

func (c *ANSIConnector) TableExists(ctx context.Context, schema, table string) (bool, error) {
	return c.infoSchemaTableExists(ctx, orDefault(schema, c.DefaultSchema()), table)
}

func (c *ANSIConnector) GetTableSchema(ctx context.Context, schema, table string) ([]domain.TableColumn, error) {
	return c.columnsFrom(ctx, infoSchemaColumnsQuery, orDefault(schema, c.DefaultSchema()), table)
}

func (c *ANSIConnector) GetTableIndexes(ctx context.Context, schema, table string) ([]domain.TableIndex, error) {
	return c.indexesFrom(ctx, infoSchemaConstraintIndexesQuery, orDefault(schema, c.DefaultSchema()), table)
}

func (c *ANSIConnector) GetStoredProcedures(context.Context, string) ([]domain.StoredProcedure, error) {
	return nil, c.unsupportedProcedures()
}

func (c *ANSIConnector) GetStoredProcedureDetail(context.Context, string, string) (*domain.StoredProcedure, error) {
	return nil, c.unsupportedProcedures()
}
