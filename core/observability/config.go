package observability

import (
	"os"
	"strconv"
)

type Config struct {
	Enabled           bool
	TracesEnabled     bool
	MetricsEnabled    bool
	ServiceName       string
	ServiceVersion    string
	Environment       string
	OTLPEndpoint      string
	TraceSamplingRate float64
}

// ResolveConfig reads the exporter settings from the environment. Export is
// enabled as soon as OTEL_EXPORTER_OTLP_ENDPOINT is set; without it the
// providers are still installed but nothing leaves the process.
func ResolveConfig() Config {
	cfg := Config{
		TracesEnabled:     true,
		MetricsEnabled:    true,
		ServiceName:       "dbmcp",
		ServiceVersion:    "dev",
		Environment:       "development",
		TraceSamplingRate: 1.0,
	}

	overrideString("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.OTLPEndpoint)
	cfg.Enabled = cfg.OTLPEndpoint != ""

	overrideBool("DBMCP_OTEL_TRACES_ENABLED", &cfg.TracesEnabled)
	overrideBool("DBMCP_OTEL_METRICS_ENABLED", &cfg.MetricsEnabled)
	overrideString("OTEL_SERVICE_NAME", &cfg.ServiceName)
	overrideString("DBMCP_OTEL_ENVIRONMENT", &cfg.Environment)
	overrideFloat("DBMCP_OTEL_TRACE_SAMPLING_RATIO", &cfg.TraceSamplingRate)

	if cfg.TraceSamplingRate < 0 {
		cfg.TraceSamplingRate = 0
	}
	if cfg.TraceSamplingRate > 1 {
		cfg.TraceSamplingRate = 1
	}
	return cfg
}

func overrideString(name string, target *string) {
	if value := os.Getenv(name); value != "" {
		*target = value
	}
}

func overrideBool(name string, target *bool) {
	value := os.Getenv(name)
	if value == "" {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err == nil {
		*target = parsed
	}
}

func overrideFloat(name string, target *float64) {
	value := os.Getenv(name)
	if value == "" {
		return
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err == nil {
		*target = parsed
	}
}
