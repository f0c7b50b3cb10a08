package connectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/dbmcp/core/domain"
	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

func TestNew_CoversEveryDialect(t *testing.T) {
	for _, d := range domain.Dialects {
		conn, err := New(d)
		require.NoError(t, err, d)
		assert.Equal(t, d, conn.ID())
		assert.Equal(t, d, conn.Parser().Dialect())
	}

	_, err := New(domain.Dialect("oracle"))
	assert.Error(t, err)
}

func TestConnectorManager_CurrentBeforeInstallPanics(t *testing.T) {
	m := NewConnectorManager()
	assert.Panics(t, func() { m.Current() })
}

func TestConnectorManager_ConnectWithDSN(t *testing.T) {
	ctx := context.Background()
	m := NewConnectorManager()
	t.Cleanup(func() { _ = m.Disconnect() })

	require.NoError(t, m.ConnectWithDSN(ctx, "sqlite://:memory:"))
	assert.Equal(t, domain.DialectSQLite, m.Current().ID())

	err := m.ConnectWithDSN(ctx, "sqlite://:memory:")
	assert.Error(t, err, "a second install must fail")

	require.NoError(t, m.Disconnect())
	require.NoError(t, m.Disconnect())
	assert.Panics(t, func() { m.Current() })
}

func TestConnectorManager_FailuresInstallNothing(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		code apperrors.ErrorCode
	}{
		{"empty", "", apperrors.ErrCodeDSNResolution},
		{"unknown scheme", "oracle://u:p@h/d", apperrors.ErrCodeDSNParse},
		{"missing host", "postgres:///d", apperrors.ErrCodeDSNParse},
		{"missing sqlite path", "sqlite://", apperrors.ErrCodeDSNParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewConnectorManager()
			err := m.ConnectWithDSN(context.Background(), tt.dsn)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
			assert.Panics(t, func() { m.Current() })
		})
	}
}

func TestGroupIndexes(t *testing.T) {
	rows := []indexRow{
		{IndexName: "pk", ColumnName: "a", IsUnique: true, IsPrimary: true},
		{IndexName: "pk", ColumnName: "b", IsUnique: true, IsPrimary: true},
		{IndexName: "idx", ColumnName: "c"},
	}
	indexes := groupIndexes(rows)
	require.Len(t, indexes, 2)
	assert.Equal(t, []string{"a", "b"}, indexes[0].Columns)
	assert.True(t, indexes[0].IsPrimary)
	assert.Equal(t, []string{"c"}, indexes[1].Columns)

	assert.Equal(t, []domain.TableIndex{}, groupIndexes(nil))
}
