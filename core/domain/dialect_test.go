package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDialectForScheme(t *testing.T) {
	tests := []struct {
		scheme   string
		expected Dialect
		ok       bool
	}{
		{"postgres", DialectPostgres, true},
		{"PostgreSQL", DialectPostgres, true},
		{"mysql", DialectMySQL, true},
		{"mariadb", DialectMariaDB, true},
		{"sqlserver", DialectSQLServer, true},
		{"mssql", DialectSQLServer, true},
		{"sqlite", DialectSQLite, true},
		{"sqlite3", DialectSQLite, true},
		{"cockroachdb", DialectANSI, true},
		{"tidb", DialectANSI, true},
		{"oracle", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			d, ok := DialectForScheme(tt.scheme)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestANSIWire(t *testing.T) {
	wire, ok := ANSIWire("tidb")
	assert.True(t, ok)
	assert.Equal(t, WireMySQL, wire)

	wire, ok = ANSIWire("cockroachdb")
	assert.True(t, ok)
	assert.Equal(t, WirePostgres, wire)

	_, ok = ANSIWire("postgres")
	assert.False(t, ok)
}

func TestReadOnlyKeywords_TotalOverDialects(t *testing.T) {
	for _, d := range Dialects {
		assert.Contains(t, ReadOnlyKeywords(d), "select", "dialect %s", d)
		assert.NotEmpty(t, d.DisplayName())
	}
	assert.Equal(t, ReadOnlyKeywords(DialectANSI), ReadOnlyKeywords(Dialect("unknown")))
}

func TestSupportsStoredProcedures(t *testing.T) {
	assert.True(t, DialectPostgres.SupportsStoredProcedures())
	assert.True(t, DialectSQLServer.SupportsStoredProcedures())
	assert.False(t, DialectSQLite.SupportsStoredProcedures())
	assert.False(t, DialectANSI.SupportsStoredProcedures())
}

func TestNewSQLResult(t *testing.T) {
	empty := NewSQLResult(nil)
	assert.NotNil(t, empty.Rows)
	assert.Equal(t, 0, empty.Count)

	res := NewSQLResult([]map[string]any{{"a": 1}, {"a": 2}})
	assert.Equal(t, 2, res.Count)
}
