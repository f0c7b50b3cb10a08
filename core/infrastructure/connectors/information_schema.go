package connectors

import (
	"context"
	"database/sql"

	"github.com/hyperterse/dbmcp/core/domain"
)

// Catalog queries shared by the dialects that implement information_schema.
// They are written with '?' placeholders and rebound per driver.
const (
	infoSchemaTablesQuery = `SELECT table_name AS name FROM information_schema.tables
WHERE table_schema = ? AND table_type = 'BASE TABLE'
ORDER BY table_name`

	infoSchemaTableExistsQuery = `SELECT COUNT(*) FROM information_schema.tables
WHERE table_schema = ? AND table_name = ?`

	infoSchemaColumnsQuery = `SELECT column_name AS name, data_type AS data_type,
is_nullable AS is_nullable, column_default AS default_value
FROM information_schema.columns
WHERE table_schema = ? AND table_name = ?
ORDER BY ordinal_position`

	// PRIMARY KEY and UNIQUE constraints are the only indexes visible through
	// the standard views.
	infoSchemaConstraintIndexesQuery = `SELECT tc.constraint_name AS index_name, kcu.column_name AS column_name,
CASE WHEN tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE') THEN 1 ELSE 0 END AS is_unique,
CASE WHEN tc.constraint_type = 'PRIMARY KEY' THEN 1 ELSE 0 END AS is_primary
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_schema = tc.constraint_schema
 AND kcu.constraint_name = tc.constraint_name
 AND kcu.table_name = tc.table_name
WHERE tc.table_schema = ? AND tc.table_name = ?
  AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
ORDER BY tc.constraint_name, kcu.ordinal_position`

	infoSchemaRoutinesQuery = `SELECT routine_name AS name, routine_schema AS schema_name,
COALESCE(routine_type, 'FUNCTION') AS kind, data_type AS return_type,
external_language AS language, routine_definition AS definition,
specific_name AS specific_name
FROM information_schema.routines
WHERE routine_schema = ?`

	infoSchemaParametersQuery = `SELECT COALESCE(parameter_name, '') AS name, data_type AS data_type,
COALESCE(parameter_mode, '') AS mode
FROM information_schema.parameters
WHERE specific_schema = ? AND specific_name = ? AND parameter_mode IS NOT NULL
ORDER BY ordinal_position`
)

type routineRow struct {
	Name         string         `db:"name"`
	Schema       string         `db:"schema_name"`
	Kind         string         `db:"kind"`
	ReturnType   sql.NullString `db:"return_type"`
	Language     sql.NullString `db:"language"`
	Definition   sql.NullString `db:"definition"`
	SpecificName string         `db:"specific_name"`
}

func (r routineRow) toProcedure() domain.StoredProcedure {
	return domain.StoredProcedure{
		Name:       r.Name,
		Schema:     r.Schema,
		Kind:       r.Kind,
		Parameters: []domain.ProcedureParameter{},
		ReturnType: r.ReturnType.String,
		Language:   r.Language.String,
	}
}

type parameterRow struct {
	Name     string `db:"name"`
	DataType string `db:"data_type"`
	Mode     string `db:"mode"`
}

// infoSchemaProcedures lists routines of schema. Definitions are left out of
// the listing and only returned by infoSchemaProcedureDetail.
func (c *sqlConnector) infoSchemaProcedures(ctx context.Context, schema string) ([]domain.StoredProcedure, error) {
	var rows []routineRow
	if err := c.selectRows(ctx, &rows, infoSchemaRoutinesQuery+" ORDER BY routine_name, specific_name", schema); err != nil {
		return nil, err
	}
	procedures := make([]domain.StoredProcedure, 0, len(rows))
	for _, r := range rows {
		procedures = append(procedures, r.toProcedure())
	}
	return procedures, nil
}

// infoSchemaProcedureDetail returns the first overload of name, or nil.
func (c *sqlConnector) infoSchemaProcedureDetail(ctx context.Context, schema, name string) (*domain.StoredProcedure, error) {
	var rows []routineRow
	query := infoSchemaRoutinesQuery + " AND routine_name = ? ORDER BY specific_name"
	if err := c.selectRows(ctx, &rows, query, schema, name); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var params []parameterRow
	if err := c.selectRows(ctx, &params, infoSchemaParametersQuery, schema, rows[0].SpecificName); err != nil {
		return nil, err
	}

	procedure := rows[0].toProcedure()
	procedure.Definition = rows[0].Definition.String
	for _, p := range params {
		procedure.Parameters = append(procedure.Parameters, domain.ProcedureParameter{
			Name:     p.Name,
			DataType: p.DataType,
			Mode:     p.Mode,
		})
	}
	return &procedure, nil
}

func (c *sqlConnector) infoSchemaTables(ctx context.Context, schema string) ([]string, error) {
	return c.selectStrings(ctx, infoSchemaTablesQuery, schema)
}

func (c *sqlConnector) infoSchemaTableExists(ctx context.Context, schema, table string) (bool, error) {
	n, err := c.selectCount(ctx, infoSchemaTableExistsQuery, schema, table)
	return n > 0, err
}

func (c *sqlConnector) columnsFrom(ctx context.Context, query string, args ...any) ([]domain.TableColumn, error) {
	var rows []columnRow
	if err := c.selectRows(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return toColumns(rows), nil
}

func (c *sqlConnector) indexesFrom(ctx context.Context, query string, args ...any) ([]domain.TableIndex, error) {
	var rows []indexRow
	if err := c.selectRows(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return groupIndexes(rows), nil
}
