// Package safety implements the read-only gate that runs before any SQL
// reaches a driver.
//
// Statement splitting is lexical: a ';' inside a string literal or comment
// still splits. Execution uses the same splitter, so the units that are
// classified are exactly the units that are executed.
package safety

import (
	"slices"
	"strings"

	"github.com/hyperterse/dbmcp/core/domain"
	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

// SplitStatements splits sql on ';', trims each segment and drops the empty
// ones.
func SplitStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			statements = append(statements, part)
		}
	}
	return statements
}

// LeadingKeyword returns the first whitespace-delimited token of statement,
// lowercased.
func LeadingKeyword(statement string) string {
	fields := strings.Fields(strings.ToLower(statement))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Classify reports whether a single statement is read-only for dialect.
func Classify(statement string, dialect domain.Dialect) bool {
	keyword := LeadingKeyword(statement)
	if keyword == "" {
		return false
	}
	return slices.Contains(domain.ReadOnlyKeywords(dialect), keyword)
}

// CheckReadOnly rejects sql unless every statement in it is read-only. Input
// made only of whitespace and semicolons passes.
func CheckReadOnly(sql string, dialect domain.Dialect) error {
	for _, statement := range SplitStatements(sql) {
		if !Classify(statement, dialect) {
			return apperrors.ReadOnlyViolation(statement)
		}
	}
	return nil
}

// Gate binds the read-only policy to one dialect.
type Gate struct {
	dialect  domain.Dialect
	readOnly bool
}

// NewGate creates a gate for dialect. When readOnly is false the gate lets
// everything through.
func NewGate(dialect domain.Dialect, readOnly bool) *Gate {
	return &Gate{dialect: dialect, readOnly: readOnly}
}

// ReadOnly reports whether the gate enforces read-only mode.
func (g *Gate) ReadOnly() bool {
	return g.readOnly
}

// Check applies the policy to sql.
func (g *Gate) Check(sql string) error {
	if !g.readOnly {
		return nil
	}
	return CheckReadOnly(sql, g.dialect)
}
