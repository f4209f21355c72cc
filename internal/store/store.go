// Package store persists session outputs. Every backend keys content by
// session id and a relative path.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/batpad/ll-html/internal/config"
)

// Store is the output sink for a session's files.
type Store interface {
	Put(ctx context.Context, sessionID, path string, content []byte) error
	Get(ctx context.Context, sessionID, path string) ([]byte, error)
	List(ctx context.Context, sessionID string) ([]string, error)
}

var ErrNotFound = errors.New("store: not found")

// Open builds the backend named by cfg.Kind. The returned close function is
// never nil. Kind "none" yields a nil Store.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, func(), error) {
	noop := func() {}
	switch cfg.Kind {
	case "", "memory":
		return NewMemoryStore(), noop, nil
	case "none":
		return nil, noop, nil
	case "file":
		s, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "s3":
		s, err := NewS3Store(S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "postgres":
		s, err := NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("store: unknown kind %q", cfg.Kind)
	}
}

func cleanKey(sessionID, path string) (string, string, error) {
	sessionID = strings.TrimSpace(sessionID)
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if sessionID == "" {
		return "", "", fmt.Errorf("store: session id is required")
	}
	if path == "" {
		return "", "", fmt.Errorf("store: path is required")
	}
	return sessionID, path, nil
}

func cleanSession(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", fmt.Errorf("store: session id is required")
	}
	return sessionID, nil
}
