package dsn

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hyperterse/dbmcp/core/domain"
)

// MemoryPath selects an in-memory SQLite database.
const MemoryPath = ":memory:"

// pragma and locking options understood by modernc.org/sqlite
var sqliteParams = []string{"_pragma", "_time_format", "_txlock"}

// SQLiteParser parses sqlite:// and sqlite3:// DSNs. sqlite:///abs/path and
// sqlite://relative/path both work; sqlite://:memory: opens a private
// in-memory database.
type SQLiteParser struct{}

func (SQLiteParser) Dialect() domain.Dialect { return domain.DialectSQLite }

func (SQLiteParser) SampleDSN() string {
	return "sqlite:///absolute/path/to/file.db"
}

func (SQLiteParser) Parse(raw string) (*domain.ConnectionConfig, error) {
	scheme := Scheme(raw)
	if d, ok := domain.DialectForScheme(scheme); !ok || d != domain.DialectSQLite {
		return nil, sampleError(domain.DialectSQLite, fmt.Sprintf("scheme '%s' is not a SQLite DSN", scheme), nil)
	}

	rest := strings.TrimPrefix(raw[len(scheme)+1:], "//")
	path, rawQuery, _ := strings.Cut(rest, "?")
	if path == "" {
		return nil, sampleError(domain.DialectSQLite, "SQLite DSN requires a file path", nil)
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, sampleError(domain.DialectSQLite, "malformed SQLite DSN parameters", err)
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}

	cfg := &domain.ConnectionConfig{
		Dialect:  domain.DialectSQLite,
		Scheme:   scheme,
		Database: "main",
		FilePath: path,
		Params:   queryParams(query),
	}

	driverDSN := path
	if opts := forwarded(cfg.Params, sqliteParams...); len(opts) > 0 {
		driverDSN += "?" + opts.Encode()
	}
	cfg.DriverDSN = driverDSN
	return cfg, nil
}
