package connectors

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hyperterse/dbmcp/core/domain"
	"github.com/hyperterse/dbmcp/core/domain/safety"
	"github.com/hyperterse/dbmcp/core/infrastructure/logging"
	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

// sqlConnector carries what every dialect variant shares: the pool handle,
// connect/disconnect bookkeeping and statement execution. Variants embed it
// and add their catalog queries.
type sqlConnector struct {
	dialect domain.Dialect
	log     logging.Logger

	// resetStatement ends any transaction a batch left open. When it fails
	// the connection is discarded unless keepOnResetError is set.
	resetStatement   string
	keepOnResetError bool

	mu      sync.RWMutex
	db      *sqlx.DB
	onClose func()
}

// resetTimeout bounds the rollback issued when a connection is released.
const resetTimeout = 5 * time.Second

func (c *sqlConnector) init(dialect domain.Dialect) {
	c.dialect = dialect
	c.log = logging.New(fmt.Sprintf("connector:%s", dialect))
	c.resetStatement = "ROLLBACK"
}

func (c *sqlConnector) ID() domain.Dialect { return c.dialect }

func (c *sqlConnector) Name() string { return c.dialect.DisplayName() }

// attach pings db and installs it. On failure db is closed and nothing is
// installed. onClose runs after the pool is closed on Disconnect.
func (c *sqlConnector) attach(ctx context.Context, db *sql.DB, driverName string, onClose func()) error {
	c.log.Debugf("Testing connection with ping")
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		if onClose != nil {
			onClose()
		}
		return apperrors.NewAppError(apperrors.ErrCodeConnection,
			fmt.Sprintf("failed to connect to %s", c.Name()), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		db.Close()
		if onClose != nil {
			onClose()
		}
		return apperrors.NewAppError(apperrors.ErrCodeConnection,
			fmt.Sprintf("%s connector is already connected", c.Name()), nil)
	}
	c.db = sqlx.NewDb(db, driverName)
	c.onClose = onClose
	c.log.Debugf("%s connection pool opened successfully", c.Name())
	return nil
}

// open is attach for drivers registered with database/sql.
func (c *sqlConnector) open(ctx context.Context, driverName, dataSource string) error {
	db, err := sql.Open(driverName, dataSource)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrCodeConnection,
			fmt.Sprintf("failed to open %s pool", c.Name()), err)
	}
	return c.attach(ctx, db, driverName, nil)
}

// Disconnect closes the pool. Calling it on a connector that never connected,
// or more than once, is a no-op.
func (c *sqlConnector) Disconnect() error {
	c.mu.Lock()
	db, onClose := c.db, c.onClose
	c.db, c.onClose = nil, nil
	c.mu.Unlock()

	if db == nil {
		return nil
	}
	c.log.Debugf("Closing %s connection pool", c.Name())
	err := db.Close()
	if onClose != nil {
		onClose()
	}
	if err != nil {
		return fmt.Errorf("failed to close %s pool: %w", c.Name(), err)
	}
	c.log.Debugf("%s connection pool closed", c.Name())
	return nil
}

func (c *sqlConnector) handle() (*sqlx.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeConnection,
			fmt.Sprintf("%s connector is not connected", c.Name()), nil)
	}
	return c.db, nil
}

// ExecuteSQL runs the statements of sql in order on one pinned connection, so
// session state such as an explicit BEGIN carries across them. No
// transaction is opened implicitly, and one left open is rolled back before
// the connection returns to the pool.
func (c *sqlConnector) ExecuteSQL(ctx context.Context, sqlText string) (*domain.SQLResult, error) {
	statements := safety.SplitStatements(sqlText)
	if len(statements) == 0 {
		return domain.NewSQLResult(nil), nil
	}

	db, err := c.handle()
	if err != nil {
		return nil, err
	}
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, apperrors.Execution(err)
	}
	defer c.release(conn)

	var results []map[string]any
	for i, statement := range statements {
		c.log.Debugf("Executing statement %d/%d", i+1, len(statements))
		rows, err := conn.QueryxContext(ctx, statement)
		if err != nil {
			return nil, apperrors.Execution(err)
		}
		results, err = appendRows(results, rows)
		if err != nil {
			return nil, apperrors.Execution(err)
		}
	}
	return domain.NewSQLResult(results), nil
}

// release rolls back whatever transaction the batch left open and hands conn
// back to the pool. A connection whose session could not be reset is closed
// for good so the next caller gets a fresh one.
func (c *sqlConnector) release(conn *sqlx.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
	defer cancel()

	if _, err := conn.ExecContext(ctx, c.resetStatement); err != nil && !c.keepOnResetError {
		c.log.Warnf("Discarding connection after failed session reset: %v", err)
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	}
	_ = conn.Close()
}

func appendRows(results []map[string]any, rows *sqlx.Rows) ([]map[string]any, error) {
	defer rows.Close()
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		for key, value := range row {
			// text columns arrive as []byte from most drivers
			if b, ok := value.([]byte); ok {
				row[key] = string(b)
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// unsupportedProcedures is shared by dialects without stored procedures.
func (c *sqlConnector) unsupportedProcedures() error {
	return apperrors.Unsupported(c.Name(), "stored procedures")
}

// catalogError wraps a failed introspection query.
func catalogError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Execution(err)
}

func (c *sqlConnector) selectStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	db, err := c.handle()
	if err != nil {
		return nil, err
	}
	names := []string{}
	if err := db.SelectContext(ctx, &names, db.Rebind(query), args...); err != nil {
		return nil, catalogError(err)
	}
	return names, nil
}

func (c *sqlConnector) selectCount(ctx context.Context, query string, args ...any) (int, error) {
	db, err := c.handle()
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.GetContext(ctx, &n, db.Rebind(query), args...); err != nil {
		return 0, catalogError(err)
	}
	return n, nil
}

func (c *sqlConnector) selectRows(ctx context.Context, dest any, query string, args ...any) error {
	db, err := c.handle()
	if err != nil {
		return err
	}
	return catalogError(db.SelectContext(ctx, dest, db.Rebind(query), args...))
}

// columnRow is the scan target of every column catalog query.
type columnRow struct {
	Name         string         `db:"name"`
	DataType     string         `db:"data_type"`
	IsNullable   string         `db:"is_nullable"`
	DefaultValue sql.NullString `db:"default_value"`
}

func toColumns(rows []columnRow) []domain.TableColumn {
	columns := make([]domain.TableColumn, 0, len(rows))
	for _, r := range rows {
		col := domain.TableColumn{
			Name:       r.Name,
			DataType:   r.DataType,
			IsNullable: r.IsNullable == "YES" || r.IsNullable == "yes" || r.IsNullable == "1",
		}
		if r.DefaultValue.Valid {
			v := r.DefaultValue.String
			col.DefaultValue = &v
		}
		columns = append(columns, col)
	}
	return columns
}

// indexRow is one (index, column) pair, ordered by index then key position.
type indexRow struct {
	IndexName  string `db:"index_name"`
	ColumnName string `db:"column_name"`
	IsUnique   bool   `db:"is_unique"`
	IsPrimary  bool   `db:"is_primary"`
}

func groupIndexes(rows []indexRow) []domain.TableIndex {
	indexes := []domain.TableIndex{}
	positions := map[string]int{}
	for _, r := range rows {
		pos, ok := positions[r.IndexName]
		if !ok {
			pos = len(indexes)
			positions[r.IndexName] = pos
			indexes = append(indexes, domain.TableIndex{
				Name:      r.IndexName,
				Columns:   []string{},
				IsUnique:  r.IsUnique,
				IsPrimary: r.IsPrimary,
			})
		}
		indexes[pos].Columns = append(indexes[pos].Columns, r.ColumnName)
	}
	return indexes
}

func orDefault(schema, fallback string) string {
	if schema == "" {
		return fallback
	}
	return schema
}
