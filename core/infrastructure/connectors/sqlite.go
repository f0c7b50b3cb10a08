package connectors

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/hyperterse/dbmcp/core/domain"
	"github.com/hyperterse/dbmcp/core/domain/interfaces"
	"github.com/hyperterse/dbmcp/core/infrastructure/dsn"
	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

const (
	sqliteSchemasQuery = `SELECT name FROM pragma_database_list ORDER BY seq`

	sqliteColumnsQuery = `SELECT name AS name, type AS data_type,
CASE WHEN "notnull" = 0 THEN 'YES' ELSE 'NO' END AS is_nullable,
dflt_value AS default_value, pk AS pk
FROM pragma_table_info(?, ?)
ORDER BY cid`

	sqliteIndexesQuery = `SELECT il.name AS index_name, COALESCE(ii.name, '<expression>') AS column_name,
il."unique" AS is_unique, il.origin = 'pk' AS is_primary
FROM pragma_index_list(?, ?) AS il, pragma_index_info(il.name, ?) AS ii
ORDER BY il.name, ii.seqno`

	// rowidIndexName labels the primary key of a table whose key is its rowid,
	// which SQLite keeps without an index entry.
	rowidIndexName = "PRIMARY"
)

// sqliteColumnRow adds the primary key position, 0 for non-key columns.
type sqliteColumnRow struct {
	columnRow
	PK int `db:"pk"`
}

// rowidAlias reports whether rows declare an INTEGER PRIMARY KEY, which
// aliases the rowid and can never hold NULL.
func rowidAlias(rows []sqliteColumnRow) (string, bool) {
	var key []sqliteColumnRow
	for _, r := range rows {
		if r.PK > 0 {
			key = append(key, r)
		}
	}
	if len(key) != 1 || !strings.EqualFold(key[0].DataType, "INTEGER") {
		return "", false
	}
	return key[0].Name, true
}

// SQLiteConnector implements the Connector interface for SQLite using the
// pure-Go modernc.org/sqlite driver. Attached databases are its schemas.
type SQLiteConnector struct {
	sqlConnector
}

// NewSQLiteConnector creates a disconnected SQLite connector
func NewSQLiteConnector() *SQLiteConnector {
	c := &SQLiteConnector{}
	c.init(domain.DialectSQLite)
	// ROLLBACK fails when no transaction is open, and dropping the only
	// connection of a :memory: database would lose its contents.
	c.keepOnResetError = true
	return c
}

func (c *SQLiteConnector) Parser() interfaces.DSNParser { return dsn.SQLiteParser{} }

func (c *SQLiteConnector) DefaultSchema() string { return "main" }

func (c *SQLiteConnector) Connect(ctx context.Context, cfg *domain.ConnectionConfig) error {
	c.log.Debugf("Opening SQLite database")
	db, err := sql.Open("sqlite", cfg.DriverDSN)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeConnection, "failed to open SQLite database", err)
	}
	if cfg.FilePath == dsn.MemoryPath {
		// every new connection would see its own empty database
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	}
	return c.attach(ctx, db, "sqlite", nil)
}

func (c *SQLiteConnector) GetSchemas(ctx context.Context) ([]string, error) {
	return c.selectStrings(ctx, sqliteSchemasQuery)
}

func (c *SQLiteConnector) GetTables(ctx context.Context, schema string) ([]string, error) {
	query := `SELECT name FROM ` + quoteIdent(orDefault(schema, c.DefaultSchema())) + `.sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
ORDER BY name`
	return c.selectStrings(ctx, query)
}

func (c *SQLiteConnector) TableExists(ctx context.Context, schema, table string) (bool, error) {
	query := `SELECT COUNT(*) FROM ` + quoteIdent(orDefault(schema, c.DefaultSchema())) + `.sqlite_master
WHERE type = 'table' AND name = ?`
	n, err := c.selectCount(ctx, query, table)
	return n > 0, err
}

func (c *SQLiteConnector) tableInfo(ctx context.Context, schema, table string) ([]sqliteColumnRow, error) {
	var rows []sqliteColumnRow
	if err := c.selectRows(ctx, &rows, sqliteColumnsQuery, table, orDefault(schema, c.DefaultSchema())); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *SQLiteConnector) GetTableSchema(ctx context.Context, schema, table string) ([]domain.TableColumn, error) {
	rows, err := c.tableInfo(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	plain := make([]columnRow, 0, len(rows))
	for _, r := range rows {
		plain = append(plain, r.columnRow)
	}
	columns := toColumns(plain)
	if key, ok := rowidAlias(rows); ok {
		for i := range columns {
			if columns[i].Name == key {
				columns[i].IsNullable = false
			}
		}
	}
	return columns, nil
}

// GetTableIndexes lists the table's indexes. A rowid primary key has no
// index of its own in SQLite, so it is reported as a synthetic PRIMARY one.
func (c *SQLiteConnector) GetTableIndexes(ctx context.Context, schema, table string) ([]domain.TableIndex, error) {
	schema = orDefault(schema, c.DefaultSchema())
	indexes, err := c.indexesFrom(ctx, sqliteIndexesQuery, table, schema, schema)
	if err != nil {
		return nil, err
	}
	for _, index := range indexes {
		if index.IsPrimary {
			return indexes, nil
		}
	}

	rows, err := c.tableInfo(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	key, ok := rowidAlias(rows)
	if !ok {
		return indexes, nil
	}
	primary := domain.TableIndex{
		Name:      rowidIndexName,
		Columns:   []string{key},
		IsUnique:  true,
		IsPrimary: true,
	}
	return append([]domain.TableIndex{primary}, indexes...), nil
}

func (c *SQLiteConnector) GetStoredProcedures(context.Context, string) ([]domain.StoredProcedure, error) {
	return nil, c.unsupportedProcedures()
}

func (c *SQLiteConnector) GetStoredProcedureDetail(context.Context, string, string) (*domain.StoredProcedure, error) {
	return nil, c.unsupportedProcedures()
}

// quoteIdent quotes a schema name for the places SQLite does not accept a
// bound parameter.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
