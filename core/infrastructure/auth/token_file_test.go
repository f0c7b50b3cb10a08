package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(path, []byte("  first-token\n"), 0o600))

	source, err := NewFileToken(path)
	require.NoError(t, err)
	assert.Equal(t, "first-token", source.Token())

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0o600))
	_, err = NewFileToken(empty)
	assert.Error(t, err)

	_, err = NewFileToken(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestFileToken_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("first-token"), 0o600))

	source, err := NewFileToken(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, source.Watch(ctx))

	require.NoError(t, os.WriteFile(path, []byte("second-token"), 0o600))
	assert.Eventually(t, func() bool {
		return source.Token() == "second-token"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestFileToken_EmptyReloadKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("first-token"), 0o600))

	source, err := NewFileToken(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(""), 0o600))
	source.reload()
	assert.Equal(t, "first-token", source.Token())
}
