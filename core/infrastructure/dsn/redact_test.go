package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"postgres", "postgres://u:secret@h:5432/d", "postgres://u:***@h:5432/d"},
		{"keeps query", "mysql://root:pw@db:3306/shop?charset=utf8mb4&tls=true", "mysql://root:***@db:3306/shop?charset=utf8mb4&tls=true"},
		{"escaped password", "postgres://u:p%40ss@h/d", "postgres://u:***@h/d"},
		{"sqlite unchanged", "sqlite:///path/db", "sqlite:///path/db"},
		{"user without password unchanged", "postgres://u@h/d", "postgres://u@h/d"},
		{"no userinfo unchanged", "postgres://h/d", "postgres://h/d"},
		{"conninfo", "host=h user=u password=secret dbname=d", "host=h user=u password=*** dbname=d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Redact(tt.raw))
		})
	}
}

func TestRedact_FallsBackWhenUnparseable(t *testing.T) {
	tests := []struct {
		raw    string
		secret string
	}{
		{"postgres://u:bad%zzsecret@h/d", "bad%zzsecret"},
		{"postgres://u:p@ss@h/d", "p@ss"},
		{"sqlserver://sa:pa/ss@h:1433?database=x", "pa/ss"},
		{"postgres://u:12#secret@h:5432/d", "12#secret"},
		{"mysql://root:3306?pw@db/x", "3306?pw"},
		{"postgres://app:9/xK+q=@db:5432/app", "9/xK+q="},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			redacted := Redact(tt.raw)
			assert.NotContains(t, redacted, tt.secret)
			assert.Contains(t, redacted, Mask)
		})
	}
	assert.Equal(t, "postgres://u:***@h/d", Redact("postgres://u:p@ss@h/d"))
	assert.Equal(t, "postgres://u:***@h:5432/d", Redact("postgres://u:12#secret@h:5432/d"))
}
