package credstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps the token in a single owner-only file. It is the
// terminal client's equivalent of the browser cookie.
type FileStore struct {
	path string
}

// NewFile returns a FileStore at path. The file is not touched until the
// first Get/Set/Clear.
func NewFile(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultTokenPath returns $COOPHUB_TOKEN_FILE if set, otherwise
// $XDG_CONFIG_HOME/coophub/token, otherwise ~/.config/coophub/token.
func DefaultTokenPath() string {
	if p := os.Getenv("COOPHUB_TOKEN_FILE"); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "coophub-token")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "coophub", "token")
}

// Path returns the file location.
func (f *FileStore) Path() string { return f.path }

// Get treats an unreadable file the same as an absent one; the session
// layer will simply start anonymous.
func (f *FileStore) Get() (string, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", false
	}
	tok := strings.TrimSpace(string(data))
	return tok, tok != ""
}

func (f *FileStore) Set(token string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create token directory %s: %w", dir, err)
	}
	if err := os.WriteFile(f.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file %s: %w", f.path, err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file %s: %w", f.path, err)
	}
	return nil
}
