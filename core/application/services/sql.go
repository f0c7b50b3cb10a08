package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hyperterse/dbmcp/core/domain"
	"github.com/hyperterse/dbmcp/core/domain/interfaces"
	"github.com/hyperterse/dbmcp/core/domain/safety"
	"github.com/hyperterse/dbmcp/core/infrastructure/logging"
	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

// SQLService implements the SQLService interface used by every transport. It
// applies the read-only gate before any SQL reaches the connector.
type SQLService struct {
	connector interfaces.Connector
	gate      *safety.Gate
	log       logging.Logger
}

var _ interfaces.SQLService = (*SQLService)(nil)

// NewSQLService creates a new SQLService over an installed connector
func NewSQLService(connector interfaces.Connector, readOnly bool) *SQLService {
	return &SQLService{
		connector: connector,
		gate:      safety.NewGate(connector.ID(), readOnly),
		log:       logging.New("sql"),
	}
}

func (s *SQLService) Dialect() domain.Dialect {
	return s.connector.ID()
}

// ExecuteSQL rejects the whole batch when read-only mode is on and any
// statement is not a read. The connector is not called in that case.
func (s *SQLService) ExecuteSQL(ctx context.Context, sql string) (*domain.SQLResult, error) {
	if err := s.gate.Check(sql); err != nil {
		s.log.Warnf("Rejected statement batch: %s", apperrors.MessageOf(err))
		return nil, err
	}
	result, err := s.connector.ExecuteSQL(ctx, sql)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("Statement batch returned %d row(s)", result.Count)
	return result, nil
}

func (s *SQLService) ListSchemas(ctx context.Context) ([]string, error) {
	return s.connector.GetSchemas(ctx)
}

// ListTables returns the resolved schema name alongside its tables.
func (s *SQLService) ListTables(ctx context.Context, schema string) (string, []string, error) {
	schema = s.schemaOrDefault(schema)
	tables, err := s.connector.GetTables(ctx, schema)
	if err != nil {
		return schema, nil, err
	}
	return schema, tables, nil
}

// DescribeTable fetches columns and indexes concurrently once the table is
// known to exist.
func (s *SQLService) DescribeTable(ctx context.Context, schema, table string) (*domain.TableDescription, error) {
	if strings.TrimSpace(table) == "" {
		return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidInput, "table name is required", nil)
	}
	schema = s.schemaOrDefault(schema)

	exists, err := s.connector.TableExists(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNotFound,
			fmt.Sprintf("table '%s' not found in schema '%s'", table, schema), nil)
	}

	desc := &domain.TableDescription{Schema: schema, Table: table}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		columns, err := s.connector.GetTableSchema(gctx, schema, table)
		desc.Columns = columns
		return err
	})
	g.Go(func() error {
		indexes, err := s.connector.GetTableIndexes(gctx, schema, table)
		desc.Indexes = indexes
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if desc.Indexes == nil {
		desc.Indexes = []domain.TableIndex{}
	}
	return desc, nil
}

func (s *SQLService) ListStoredProcedures(ctx context.Context, schema string) (string, []domain.StoredProcedure, error) {
	schema = s.schemaOrDefault(schema)
	procedures, err := s.connector.GetStoredProcedures(ctx, schema)
	if err != nil {
		return schema, nil, err
	}
	return schema, procedures, nil
}

func (s *SQLService) DescribeStoredProcedure(ctx context.Context, schema, name string) (*domain.StoredProcedure, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidInput, "procedure name is required", nil)
	}
	schema = s.schemaOrDefault(schema)

	procedure, err := s.connector.GetStoredProcedureDetail(ctx, schema, name)
	if err != nil {
		return nil, err
	}
	if procedure == nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNotFound,
			fmt.Sprintf("stored procedure '%s' not found in schema '%s'", name, schema), nil)
	}
	return procedure, nil
}

func (s *SQLService) schemaOrDefault(schema string) string {
	if schema == "" {
		return s.connector.DefaultSchema()
	}
	return schema
}
