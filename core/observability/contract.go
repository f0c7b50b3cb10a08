package observability

import (
	"strings"
)

const (
	AttrToolName  = "tool.name"
	AttrDialect   = "db.system"
	AttrDBSchema  = "db.schema"
	AttrDBTable   = "db.table"
	AttrErrorCode = "error.code"
	AttrRowCount  = "db.response.row_count"
)

var secretKeySubstrings = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"api_key",
	"apikey",
	"authorization",
	"connection_string",
	"dsn",
}

// RedactAttributeValue masks values for known-sensitive attribute keys.
func RedactAttributeValue(key string, value string) string {
	lower := strings.ToLower(key)
	for _, needle := range secretKeySubstrings {
		if strings.Contains(lower, needle) {
			return "[REDACTED]"
		}
	}
	return value
}
