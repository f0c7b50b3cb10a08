package auth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/hyperterse/dbmcp/core/infrastructure/logging"
)

// FileToken is a TokenSource backed by a file. Watch keeps it current when
// the file is rewritten or replaced.
type FileToken struct {
	path  string
	token atomic.Pointer[string]
	log   logging.Logger
}

// NewFileToken reads the token from path. An empty file is an error.
func NewFileToken(path string) (*FileToken, error) {
	f := &FileToken{path: path, log: logging.New("auth")}
	token, err := readToken(path)
	if err != nil {
		return nil, err
	}
	f.token.Store(&token)
	return f, nil
}

func (f *FileToken) Token() string {
	return *f.token.Load()
}

// Watch reloads the token on changes until ctx is done. The parent directory
// is watched so that atomic replacements, as done by secret mounts and most
// editors, are seen. A reload that yields an empty or unreadable file keeps
// the previous token.
func (f *FileToken) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return err
	}

	target := filepath.Clean(f.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				f.reload()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.log.Warnf("Token file watcher error: %v", err)
			}
		}
	}()
	return nil
}

func (f *FileToken) reload() {
	token, err := readToken(f.path)
	if err != nil {
		f.log.Warnf("Keeping previous auth token: %v", err)
		return
	}
	if token == f.Token() {
		return
	}
	f.token.Store(&token)
	f.log.Infof("Auth token reloaded from %s", f.path)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read auth token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("auth token file %s is empty", path)
	}
	return token, nil
}
