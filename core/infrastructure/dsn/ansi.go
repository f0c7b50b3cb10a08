package dsn

import (
	"fmt"

	"github.com/hyperterse/dbmcp/core/domain"
)

var ansiDefaultPorts = map[string]int{
	"cockroachdb": 26257,
	"yugabytedb":  5433,
	"redshift":    5439,
	"tidb":        4000,
}

// ANSIParser parses DSNs of engines reached over the Postgres or MySQL wire
// protocol but introspected only through information_schema.
type ANSIParser struct{}

func (ANSIParser) Dialect() domain.Dialect { return domain.DialectANSI }

func (ANSIParser) SampleDSN() string {
	return "cockroachdb://root@localhost:26257/defaultdb?sslmode=disable"
}

func (ANSIParser) Parse(raw string) (*domain.ConnectionConfig, error) {
	scheme := Scheme(raw)
	wire, ok := domain.ANSIWire(scheme)
	if !ok {
		return nil, sampleError(domain.DialectANSI, fmt.Sprintf("scheme '%s' is not an ANSI DSN", scheme), nil)
	}

	cfg, err := parseNetwork(raw, domain.DialectANSI, ansiDefaultPorts[scheme])
	if err != nil {
		return nil, err
	}
	cfg.Wire = wire

	switch wire {
	case domain.WirePostgres:
		cfg.DriverDSN = renderPostgresURL(cfg)
	case domain.WireMySQL:
		driverDSN, err := renderMySQLDSN(cfg)
		if err != nil {
			return nil, err
		}
		cfg.DriverDSN = driverDSN
	}
	return cfg, nil
}
