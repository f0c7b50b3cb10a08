package connectors

import (
	"context"
	"database/sql"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/hyperterse/dbmcp/core/domain"
	"github.com/hyperterse/dbmcp/core/domain/interfaces"
	"github.com/hyperterse/dbmcp/core/infrastructure/dsn"
)

const (
	sqlServerSchemasQuery = `SELECT name FROM sys.schemas
WHERE name NOT IN ('sys', 'INFORMATION_SCHEMA', 'guest') AND name NOT LIKE 'db[_]%'
ORDER BY name`

	sqlServerIndexesQuery = `SELECT i.name AS index_name, c.name AS column_name,
i.is_unique AS is_unique, i.is_primary_key AS is_primary
FROM sys.indexes i
JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
JOIN sys.tables t ON t.object_id = i.object_id
JOIN sys.schemas s ON s.schema_id = t.schema_id
WHERE s.name = ? AND t.name = ? AND i.name IS NOT NULL AND ic.is_included_column = 0
ORDER BY i.name, ic.key_ordinal`

	sqlServerRoutinesQuery = `SELECT o.object_id AS object_id, o.name AS name, s.name AS schema_name,
CASE WHEN o.type = 'P' THEN 'PROCEDURE' ELSE 'FUNCTION' END AS kind,
OBJECT_DEFINITION(o.object_id) AS definition
FROM sys.objects o
JOIN sys.schemas s ON s.schema_id = o.schema_id
WHERE s.name = ? AND o.type IN ('P', 'FN', 'IF', 'TF')`

	// parameter_id 0 is the return value of a scalar function
	sqlServerParametersQuery = `SELECT p.parameter_id AS parameter_id, p.name AS name,
TYPE_NAME(p.user_type_id) AS data_type,
CASE WHEN p.is_output = 1 THEN 'OUT' ELSE 'IN' END AS mode
FROM sys.parameters p
WHERE p.object_id = ?
ORDER BY p.parameter_id`
)

type sqlServerRoutineRow struct {
	ObjectID   int64          `db:"object_id"`
	Name       string         `db:"name"`
	Schema     string         `db:"schema_name"`
	Kind       string         `db:"kind"`
	Definition sql.NullString `db:"definition"`
}

type sqlServerParameterRow struct {
	ParameterID int    `db:"parameter_id"`
	Name        string `db:"name"`
	DataType    string `db:"data_type"`
	Mode        string `db:"mode"`
}

// SQLServerConnector implements the Connector interface for Microsoft SQL
// Server using go-mssqldb
type SQLServerConnector struct {
	sqlConnector
}

// NewSQLServerConnector creates a disconnected SQL Server connector
func NewSQLServerConnector() *SQLServerConnector {
	c := &SQLServerConnector{}
	c.init(domain.DialectSQLServer)
	c.resetStatement = "IF @@TRANCOUNT > 0 ROLLBACK TRANSACTION"
	return c
}

func (c *SQLServerConnector) Parser() interfaces.DSNParser { return dsn.SQLServerParser{} }

func (c *SQLServerConnector) DefaultSchema() string { return "dbo" }

func (c *SQLServerConnector) Connect(ctx context.Context, cfg *domain.ConnectionConfig) error {
	c.log.Debugf("Opening SQL Server connection pool")
	return c.open(ctx, "sqlserver", cfg.DriverDSN)
}

func (c *SQLServerConnector) GetSchemas(ctx context.Context) ([]string, error) {
	return c.selectStrings(ctx, sqlServerSchemasQuery)
}

func (c *SQLServerConnector) GetTables(ctx context.Context, schema string) ([]string, error) {
	return c.infoSchemaTables(ctx, orDefault(schema, c.DefaultSchema()))
}

func (c *SQLServerConnector) TableExists(ctx context.Context, schema, table string) (bool, error) {
	return c.infoSchemaTableExists(ctx, orDefault(schema, c.DefaultSchema()), table)
}

func (c *SQLServerConnector) GetTableSchema(ctx context.Context, schema, table string) ([]domain.TableColumn, error) {
	return c.columnsFrom(ctx, infoSchemaColumnsQuery, orDefault(schema, c.DefaultSchema()), table)
}

func (c *SQLServerConnector) GetTableIndexes(ctx context.Context, schema, table string) ([]domain.TableIndex, error) {
	return c.indexesFrom(ctx, sqlServerIndexesQuery, orDefault(schema, c.DefaultSchema()), table)
}

func (c *SQLServerConnector) GetStoredProcedures(ctx context.Context, schema string) ([]domain.StoredProcedure, error) {
	var rows []sqlServerRoutineRow
	if err := c.selectRows(ctx, &rows, sqlServerRoutinesQuery+" ORDER BY o.name", orDefault(schema, c.DefaultSchema())); err != nil {
		return nil, err
	}
	procedures := make([]domain.StoredProcedure, 0, len(rows))
	for _, r := range rows {
		procedures = append(procedures, domain.StoredProcedure{
			Name:       r.Name,
			Schema:     r.Schema,
			Kind:       r.Kind,
			Parameters: []domain.ProcedureParameter{},
			Language:   "T-SQL",
		})
	}
	return procedures, nil
}

func (c *SQLServerConnector) GetStoredProcedureDetail(ctx context.Context, schema, name string) (*domain.StoredProcedure, error) {
	var rows []sqlServerRoutineRow
	if err := c.selectRows(ctx, &rows, sqlServerRoutinesQuery+" AND o.name = ?", orDefault(schema, c.DefaultSchema()), name); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	r := rows[0]

	var params []sqlServerParameterRow
	if err := c.selectRows(ctx, &params, sqlServerParametersQuery, r.ObjectID); err != nil {
		return nil, err
	}

	procedure := &domain.StoredProcedure{
		Name:       r.Name,
		Schema:     r.Schema,
		Kind:       r.Kind,
		Parameters: []domain.ProcedureParameter{},
		Language:   "T-SQL",
		Definition: r.Definition.String,
	}
	for _, p := range params {
		if p.ParameterID == 0 {
			procedure.ReturnType = p.DataType
			continue
		}
		procedure.Parameters = append(procedure.Parameters, domain.ProcedureParameter{
			Name:     p.Name,
			DataType: p.DataType,
			Mode:     p.Mode,
		})
	}
	return procedure, nil
}
