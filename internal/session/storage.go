package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/finch-bank/finchctl/internal/domain"
)

// FileTokenStorage persists the opaque session token in a file under the user
// config directory, keyed by the application name. Implements
// domain.TokenStorage.
type FileTokenStorage struct {
	path string
}

// NewFileTokenStorage creates storage at an explicit path, or at the default
// location (<user config dir>/<appName>/token) when path is empty.
func NewFileTokenStorage(appName, path string) (*FileTokenStorage, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving user config dir: %w", err)
		}
		path = filepath.Join(configDir, appName, "token")
	}
	return &FileTokenStorage{path: path}, nil
}

// Path returns the token file location.
func (s *FileTokenStorage) Path() string { return s.path }

// Load reads the stored token. Absence of the file is the sole signal for "no
// prior session" and is reported as domain.ErrNoStoredToken.
func (s *FileTokenStorage) Load() (string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.ErrNoStoredToken
		}
		return "", fmt.Errorf("reading token file: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", domain.ErrNoStoredToken
	}
	return token, nil
}

// Save writes the token, creating the parent directory if needed. The file is
// readable only by the owner.
func (s *FileTokenStorage) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// Clear removes the stored token. Clearing an absent token is not an error.
func (s *FileTokenStorage) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

var _ domain.TokenStorage = (*FileTokenStorage)(nil)
