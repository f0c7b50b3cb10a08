package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	previous := GetLogLevel()
	t.Cleanup(func() {
		SetOutput(nil)
		SetTagFilter("")
		SetLogLevel(previous)
	})
	return buf
}

func TestNew_WritesTaggedJSON(t *testing.T) {
	buf := captureOutput(t)
	SetLogLevel(LogLevelInfo)

	New("connectors").With(map[string]any{"dialect": "sqlite"}).Infof("connected to %s", "db")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "connectors", entry["tag"])
	assert.Equal(t, "sqlite", entry["dialect"])
	assert.Equal(t, "connected to db", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestLogLevelFiltering(t *testing.T) {
	buf := captureOutput(t)
	SetLogLevel(LogLevelWarn)

	log := New("http")
	log.Info("hidden")
	log.Debug("hidden")
	log.Warn("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "shown")
}

func TestTagFilter(t *testing.T) {
	tests := []struct {
		filter   string
		tag      string
		expected bool
	}{
		{"", "mcp", true},
		{"mcp", "mcp", true},
		{"mcp", "mcp:tools", true},
		{"mcp", "http", false},
		{"-http", "http", false},
		{"-http", "mcp", true},
		{"mcp,-mcp:tools", "mcp:tools", false},
	}

	for _, tt := range tests {
		t.Run(tt.filter+"/"+tt.tag, func(t *testing.T) {
			captureOutput(t)
			SetTagFilter(tt.filter)
			assert.Equal(t, tt.expected, shouldLogTag(tt.tag))
		})
	}
}
