package connectors

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/hyperterse/dbmcp/core/domain"
	"github.com/hyperterse/dbmcp/core/domain/interfaces"
	"github.com/hyperterse/dbmcp/core/infrastructure/dsn"
	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

const (
	postgresSchemasQuery = `SELECT schema_name FROM information_schema.schemata
WHERE schema_name NOT IN ('pg_catalog', 'information_schema')
  AND schema_name NOT LIKE 'pg\_toast%'
  AND schema_name NOT LIKE 'pg\_temp\_%'
ORDER BY schema_name`

	postgresIndexesQuery = `SELECT i.relname AS index_name, a.attname AS column_name,
ix.indisunique AS is_unique, ix.indisprimary AS is_primary
FROM pg_class t
JOIN pg_namespace n ON n.oid = t.relnamespace
JOIN pg_index ix ON ix.indrelid = t.oid
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
WHERE n.nspname = ? AND t.relname = ?
ORDER BY i.relname, k.ord`
)

// PostgresConnector implements the Connector interface for PostgreSQL using
// a pgx/v5 pool exposed through database/sql.
type PostgresConnector struct {
	sqlConnector
}

// NewPostgresConnector creates a disconnected PostgreSQL connector
func NewPostgresConnector() *PostgresConnector {
	c := &PostgresConnector{}
	c.init(domain.DialectPostgres)
	return c
}

func (c *PostgresConnector) Parser() interfaces.DSNParser { return dsn.PostgresParser{} }

func (c *PostgresConnector) DefaultSchema() string { return "public" }

// Connect opens a pgxpool and wraps it with the pgx stdlib adapter
func (c *PostgresConnector) Connect(ctx context.Context, cfg *domain.ConnectionConfig) error {
	c.log.Debugf("Opening PostgreSQL connection pool (pgx/v5)")

	poolCfg, err := pgxpool.ParseConfig(cfg.DriverDSN)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeConnection, "failed to parse postgres connection string", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeConnection, "failed to create postgres connection pool", err)
	}
	return c.attach(ctx, stdlib.OpenDBFromPool(pool), "pgx", pool.Close)
}

func (c *PostgresConnector) GetSchemas(ctx context.Context) ([]string, error) {
	return c.selectStrings(ctx, postgresSchemasQuery)
}

func (c *PostgresConnector) GetTables(ctx context.Context, schema string) ([]string, error) {
	return c.infoSchemaTables(ctx, orDefault(schema, c.DefaultSchema()))
}

func (c *PostgresConnector) TableExists(ctx context.Context, schema, table string) (bool, error) {
	return c.infoSchemaTableExists(ctx, orDefault(schema, c.DefaultSchema()), table)
}

func (c *PostgresConnector) GetTableSchema(ctx context.Context, schema, table string) ([]domain.TableColumn, error) {
	return c.columnsFrom(ctx, infoSchemaColumnsQuery, orDefault(schema, c.DefaultSchema()), table)
}

func (c *PostgresConnector) GetTableIndexes(ctx context.Context, schema, table string) ([]domain.TableIndex, error) {
	return c.indexesFrom(ctx, postgresIndexesQuery, orDefault(schema, c.DefaultSchema()), table)
}

func (c *PostgresConnector) GetStoredProcedures(ctx context.Context, schema string) ([]domain.StoredProcedure, error) {
	return c.infoSchemaProcedures(ctx, orDefault(schema, c.DefaultSchema()))
}

func (c *PostgresConnector) GetStoredProcedureDetail(ctx context.Context, schema, name string) (*domain.StoredProcedure, error) {
	return c.infoSchemaProcedureDetail(ctx, orDefault(schema, c.DefaultSchema()), name)
}
