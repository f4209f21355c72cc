package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore writes session files under root/<session>/<path>.
type FileStore struct {
	root string
}

// NewFileStore creates root when missing and locks every path under it.
func NewFileStore(root string) (*FileStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("store: file root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("store: resolve %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("store: create %s: %w", abs, err)
	}
	return &FileStore{root: abs}, nil
}

func (s *FileStore) Put(_ context.Context, sessionID, path string, content []byte) error {
	full, err := s.pathFor(sessionID, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, content, 0o644)
}

func (s *FileStore) Get(_ context.Context, sessionID, path string) ([]byte, error) {
	full, err := s.pathFor(sessionID, path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

// List walks the session directory and returns slash-separated paths.
func (s *FileStore) List(_ context.Context, sessionID string) ([]string, error) {
	dir, err := s.pathFor(sessionID, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (s *FileStore) pathFor(sessionID, path string) (string, error) {
	sessionID, err := cleanSession(sessionID)
	if err != nil {
		return "", err
	}
	if path != "." {
		if sessionID, path, err = cleanKey(sessionID, path); err != nil {
			return "", err
		}
	}
	if strings.ContainsAny(sessionID, `/\`) || sessionID == ".." {
		return "", fmt.Errorf("store: invalid session id %q", sessionID)
	}
	full := filepath.Join(s.root, sessionID, filepath.FromSlash(path))
	if !within(full, filepath.Join(s.root, sessionID)) {
		return "", fmt.Errorf("store: path escapes session directory: %s", path)
	}
	return full, nil
}

func within(path, root string) bool {
	path, root = filepath.Clean(path), filepath.Clean(root)
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(os.PathSeparator))
}
