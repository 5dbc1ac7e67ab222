package history

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// FileStore keeps one JSON array file per session under baseDir.
type FileStore struct {
	baseDir string
	mu      sync.Mutex
}

func NewFileStore(baseDir string) (*FileStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("base directory must be provided")
	}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) Load(_ context.Context, key string) ([]Message, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read(path)
}

func (s *FileStore) Append(_ context.Context, key string, messages ...Message) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(path)
	if err != nil {
		return err
	}

	return s.write(path, append(existing, messages...))
}

// Clear truncates the session file to zero bytes, creating it if needed.
func (s *FileStore) Clear(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return fmt.Errorf("truncate history: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove history: %w", err)
	}
	return nil
}

// Exists reports false for ids the store could never have created.
func (s *FileStore) Exists(_ context.Context, key string) (bool, error) {
	path, err := s.path(key)
	if err != nil {
		return false, nil
	}

	_, err = os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat history: %w", err)
	}
}

func (s *FileStore) read(path string) ([]Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("open history file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []Message{}, nil
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return messages, nil
}

func (s *FileStore) write(path string, messages []Message) error {
	tmp, err := os.CreateTemp(s.baseDir, "history-*.json")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}

	if err := json.NewEncoder(tmp).Encode(messages); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode history: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close history temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

func (s *FileStore) path(key string) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, key)
	}
	return filepath.Join(s.baseDir, key+".json"), nil
}

// validKey accepts only ids that map to exactly one file name.
func validKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

var _ Store = (*FileStore)(nil)
