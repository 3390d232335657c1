// Package file caches traces on the local filesystem, one msgpack file per
// key. It suits single-host deployments that want the cache to survive
// restarts without running Redis.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeflow-dev/codeflow/pkg/adapters/codec"
	"github.com/codeflow-dev/codeflow/pkg/domain"
)

const ext = ".trace"

// Store implements ports.TraceStore using the local filesystem.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".codeflow/traces".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".codeflow", "traces")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid trace key %q", key)
	}
	return filepath.Join(s.BasePath, key+ext), nil
}

// Save writes the trace atomically: to a temporary file in the same
// directory, fsynced, then renamed over the destination.
func (s *Store) Save(ctx context.Context, key string, trace *domain.Trace) error {
	destPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure cache directory: %w", err)
	}

	data, err := codec.EncodeTrace(trace)
	if err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op after a successful rename
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename does not replace an existing file on Windows.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to replace cached trace: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move trace into place: %w", err)
	}
	return nil
}

// Load reads the trace stored under key.
func (s *Store) Load(ctx context.Context, key string) (*domain.Trace, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrTraceNotFound
		}
		return nil, fmt.Errorf("failed to read cached trace: %w", err)
	}

	trace, err := codec.DecodeTrace(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode trace %s: %w", key, err)
	}
	return trace, nil
}

// Delete removes the file for key. Missing entries are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete cached trace: %w", err)
	}
	return nil
}

// List returns the cached keys.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list cached traces: %w", err)
	}

	keys := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ext))
	}
	return keys, nil
}
