package connectors

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"

	"github.com/hyperterse/dbmcp/core/domain"
	"github.com/hyperterse/dbmcp/core/domain/interfaces"
	"github.com/hyperterse/dbmcp/core/infrastructure/dsn"
)

const (
	mysqlSchemasQuery = `SELECT schema_name AS name FROM information_schema.schemata
WHERE schema_name NOT IN ('information_schema', 'mysql', 'performance_schema', 'sys')
ORDER BY schema_name`

	// column_type keeps lengths and unsigned flags that data_type drops
	mysqlColumnsQuery = `SELECT column_name AS name, column_type AS data_type,
is_nullable AS is_nullable, column_default AS default_value
FROM information_schema.columns
WHERE table_schema = ? AND table_name = ?
ORDER BY ordinal_position`

	mysqlIndexesQuery = `SELECT index_name AS index_name, column_name AS column_name,
non_unique = 0 AS is_unique, index_name = 'PRIMARY' AS is_primary
FROM information_schema.statistics
WHERE table_schema = ? AND table_name = ?
ORDER BY index_name, seq_in_index`
)

// MySQLConnector implements the Connector interface for MySQL and MariaDB.
// The two only differ in their dialect tag.
type MySQLConnector struct {
	sqlConnector
	defaultSchema string
}

// NewMySQLConnector creates a disconnected connector for DialectMySQL or
// DialectMariaDB
func NewMySQLConnector(dialect domain.Dialect) *MySQLConnector {
	c := &MySQLConnector{}
	c.init(dialect)
	return c
}

func (c *MySQLConnector) Parser() interfaces.DSNParser { return dsn.NewMySQLParser(c.dialect) }

// DefaultSchema is the database named in the DSN, or the server's current
// database when the DSN names none
func (c *MySQLConnector) DefaultSchema() string { return c.defaultSchema }

func (c *MySQLConnector) Connect(ctx context.Context, cfg *domain.ConnectionConfig) error {
	c.log.Debugf("Opening %s connection pool", c.Name())
	if err := c.open(ctx, "mysql", cfg.DriverDSN); err != nil {
		return err
	}

	c.defaultSchema = cfg.Database
	if c.defaultSchema == "" {
		var current sql.NullString
		db, err := c.handle()
		if err == nil {
			err = db.GetContext(ctx, &current, "SELECT DATABASE()")
		}
		if err != nil {
			c.log.Warnf("Could not determine current database: %v", err)
		}
		c.defaultSchema = current.String
	}
	return nil
}

func (c *MySQLConnector) GetSchemas(ctx context.Context) ([]string, error) {
	return c.selectStrings(ctx, mysqlSchemasQuery)
}

func (c *MySQLConnector) GetTables(ctx context.Context, schema string) ([]string, error) {
	return c.infoSchemaTables(ctx, orDefault(schema, c.DefaultSchema()))
}

func (c *MySQLConnector) TableExists(ctx context.Context, schema, table string) (bool, error) {
	return c.infoSchemaTableExists(ctx, orDefault(schema, c.DefaultSchema()), table)
}

func (c *MySQLConnector) GetTableSchema(ctx context.Context, schema, table string) ([]domain.TableColumn, error) {
	return c.columnsFrom(ctx, mysqlColumnsQuery, orDefault(schema, c.DefaultSchema()), table)
}

func (c *MySQLConnector) GetTableIndexes(ctx context.Context, schema, table string) ([]domain.TableIndex, error) {
	return c.indexesFrom(ctx, mysqlIndexesQuery, orDefault(schema, c.DefaultSchema()), table)
}

func (c *MySQLConnector) GetStoredProcedures(ctx context.Context, schema string) ([]domain.StoredProcedure, error) {
	return c.infoSchemaProcedures(ctx, orDefault(schema, c.DefaultSchema()))
}

func (c *MySQLConnector) GetStoredProcedureDetail(ctx context.Context, schema, name string) (*domain.StoredProcedure, error) {
	return c.infoSchemaProcedureDetail(ctx, orDefault(schema, c.DefaultSchema()), name)
}
