package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/dbmcp/core/application/services"
	"github.com/hyperterse/dbmcp/core/domain"
	"github.com/hyperterse/dbmcp/core/domain/interfaces"
	"github.com/hyperterse/dbmcp/core/infrastructure/dsn"
	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

type mockConnector struct {
	mock.Mock
	dialect domain.Dialect
}

func newMockConnector(dialect domain.Dialect) *mockConnector {
	return &mockConnector{dialect: dialect}
}

func (m *mockConnector) ID() domain.Dialect                                      { return m.dialect }
func (m *mockConnector) Name() string                                            { return m.dialect.DisplayName() }
func (m *mockConnector) Parser() interfaces.DSNParser                            { p, _ := dsn.ParserFor(m.dialect); return p }
func (m *mockConnector) DefaultSchema() string                                   { return "public" }
func (m *mockConnector) Disconnect() error                                       { return nil }
func (m *mockConnector) Connect(context.Context, *domain.ConnectionConfig) error { return nil }

func (m *mockConnector) GetSchemas(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockConnector) GetTables(ctx context.Context, schema string) ([]string, error) {
	args := m.Called(ctx, schema)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockConnector) TableExists(ctx context.Context, schema, table string) (bool, error) {
	args := m.Called(ctx, schema, table)
	return args.Bool(0), args.Error(1)
}

func (m *mockConnector) GetTableSchema(ctx context.Context, schema, table string) ([]domain.TableColumn, error) {
	args := m.Called(ctx, schema, table)
	return args.Get(0).([]domain.TableColumn), args.Error(1)
}

func (m *mockConnector) GetTableIndexes(ctx context.Context, schema, table string) ([]domain.TableIndex, error) {
	args := m.Called(ctx, schema, table)
	return args.Get(0).([]domain.TableIndex), args.Error(1)
}

func (m *mockConnector) GetStoredProcedures(ctx context.Context, schema string) ([]domain.StoredProcedure, error) {
	args := m.Called(ctx, schema)
	procs, _ := args.Get(0).([]domain.StoredProcedure)
	return procs, args.Error(1)
}

func (m *mockConnector) GetStoredProcedureDetail(ctx context.Context, schema, name string) (*domain.StoredProcedure, error) {
	args := m.Called(ctx, schema, name)
	proc, _ := args.Get(0).(*domain.StoredProcedure)
	return proc, args.Error(1)
}

func (m *mockConnector) ExecuteSQL(ctx context.Context, sql string) (*domain.SQLResult, error) {
	args := m.Called(ctx, sql)
	result, _ := args.Get(0).(*domain.SQLResult)
	return result, args.Error(1)
}

func TestSQLService_ExecuteSQL(t *testing.T) {
	tests := []struct {
		name         string
		readOnly     bool
		sql          string
		expectCalled bool
		expectedCode apperrors.ErrorCode
	}{
		{name: "read-only allows reads", readOnly: true, sql: "SELECT 1; SHOW search_path", expectCalled: true},
		{name: "read-only rejects mixed batch", readOnly: true, sql: "SELECT 1; INSERT INTO t VALUES (1);", expectedCode: apperrors.ErrCodeReadOnlyViolation},
		{name: "read-only passes empty batch", readOnly: true, sql: " ; ; ", expectCalled: true},
		{name: "read-write passes writes", readOnly: false, sql: "DELETE FROM t", expectCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newMockConnector(domain.DialectPostgres)
			if tt.expectCalled {
				conn.On("ExecuteSQL", mock.Anything, tt.sql).Return(domain.NewSQLResult(nil), nil)
			}

			svc := services.NewSQLService(conn, tt.readOnly)
			result, err := svc.ExecuteSQL(context.Background(), tt.sql)

			if tt.expectedCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedCode, apperrors.CodeOf(err))
				assert.Nil(t, result)
				conn.AssertNotCalled(t, "ExecuteSQL", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, result)
			conn.AssertExpectations(t)
		})
	}
}

func TestSQLService_ExecuteSQLPropagatesDriverError(t *testing.T) {
	conn := newMockConnector(domain.DialectMySQL)
	driverErr := apperrors.Execution(errors.New("Error 1146: Table 'shop.nope' doesn't exist"))
	conn.On("ExecuteSQL", mock.Anything, "SELECT * FROM nope").Return(nil, driverErr)

	_, err := services.NewSQLService(conn, true).ExecuteSQL(context.Background(), "SELECT * FROM nope")
	assert.Equal(t, apperrors.ErrCodeExecution, apperrors.CodeOf(err))
	assert.Equal(t, "Error 1146: Table 'shop.nope' doesn't exist", apperrors.MessageOf(err))
}

func TestSQLService_ListTablesUsesDefaultSchema(t *testing.T) {
	conn := newMockConnector(domain.DialectPostgres)
	conn.On("GetTables", mock.Anything, "public").Return([]string{"orders"}, nil)

	schema, tables, err := services.NewSQLService(conn, false).ListTables(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "public", schema)
	assert.Equal(t, []string{"orders"}, tables)
}

func TestSQLService_DescribeTable(t *testing.T) {
	ctx := context.Background()

	t.Run("columns and indexes", func(t *testing.T) {
		conn := newMockConnector(domain.DialectPostgres)
		conn.On("TableExists", mock.Anything, "sales", "orders").Return(true, nil)
		conn.On("GetTableSchema", mock.Anything, "sales", "orders").Return([]domain.TableColumn{{Name: "id", DataType: "integer"}}, nil)
		conn.On("GetTableIndexes", mock.Anything, "sales", "orders").Return([]domain.TableIndex{{Name: "orders_pkey", Columns: []string{"id"}, IsPrimary: true, IsUnique: true}}, nil)

		desc, err := services.NewSQLService(conn, false).DescribeTable(ctx, "sales", "orders")
		require.NoError(t, err)
		assert.Equal(t, "sales", desc.Schema)
		assert.Len(t, desc.Columns, 1)
		assert.Len(t, desc.Indexes, 1)
		conn.AssertExpectations(t)
	})

	t.Run("missing table", func(t *testing.T) {
		conn := newMockConnector(domain.DialectPostgres)
		conn.On("TableExists", mock.Anything, "public", "ghost").Return(false, nil)

		_, err := services.NewSQLService(conn, false).DescribeTable(ctx, "", "ghost")
		assert.True(t, apperrors.IsNotFound(err))
		conn.AssertNotCalled(t, "GetTableSchema", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("index failure fails the call", func(t *testing.T) {
		conn := newMockConnector(domain.DialectPostgres)
		conn.On("TableExists", mock.Anything, "public", "orders").Return(true, nil)
		conn.On("GetTableSchema", mock.Anything, "public", "orders").Return([]domain.TableColumn{}, nil)
		conn.On("GetTableIndexes", mock.Anything, "public", "orders").Return([]domain.TableIndex(nil), apperrors.Execution(errors.New("permission denied")))

		_, err := services.NewSQLService(conn, false).DescribeTable(ctx, "", "orders")
		assert.Equal(t, apperrors.ErrCodeExecution, apperrors.CodeOf(err))
	})

	t.Run("empty table name", func(t *testing.T) {
		conn := newMockConnector(domain.DialectPostgres)
		_, err := services.NewSQLService(conn, false).DescribeTable(ctx, "", "  ")
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.CodeOf(err))
	})
}

func TestSQLService_StoredProcedures(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported dialect", func(t *testing.T) {
		conn := newMockConnector(domain.DialectSQLite)
		conn.On("GetStoredProcedures", mock.Anything, "public").Return(nil, apperrors.Unsupported("SQLite", "stored procedures"))

		_, _, err := services.NewSQLService(conn, false).ListStoredProcedures(ctx, "")
		assert.True(t, apperrors.IsUnsupported(err))
	})

	t.Run("detail not found", func(t *testing.T) {
		conn := newMockConnector(domain.DialectPostgres)
		conn.On("GetStoredProcedureDetail", mock.Anything, "public", "nope").Return(nil, nil)

		_, err := services.NewSQLService(conn, false).DescribeStoredProcedure(ctx, "", "nope")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("detail found", func(t *testing.T) {
		conn := newMockConnector(domain.DialectPostgres)
		proc := &domain.StoredProcedure{Name: "refresh", Schema: "public", Kind: "PROCEDURE"}
		conn.On("GetStoredProcedureDetail", mock.Anything, "public", "refresh").Return(proc, nil)

		got, err := services.NewSQLService(conn, false).DescribeStoredProcedure(ctx, "", "refresh")
		require.NoError(t, err)
		assert.Equal(t, proc, got)
	})
}
