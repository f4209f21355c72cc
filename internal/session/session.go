// Package session holds the per-request state shared by the phases: the
// budget tracker and the tool cache. Nothing in a Session is shared with
// another Session.
package session

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/batpad/ll-html/internal/budget"
	"github.com/batpad/ll-html/internal/cache/toolcache"
	"github.com/batpad/ll-html/internal/config"
	"github.com/batpad/ll-html/internal/mcp"
)

const cacheSize = 256

var ErrEmptyRequest = errors.New("session: request is empty")

type Session struct {
	ID        string
	Request   string
	Config    config.Config
	Tracker   *budget.Tracker
	Cache     *toolcache.Cache[mcp.Invocation]
	CreatedAt time.Time
}

// New validates cfg and starts a session for request.
func New(request string, cfg config.Config) (*Session, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return nil, ErrEmptyRequest
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		ID:        uuid.NewString(),
		Request:   request,
		Config:    cfg,
		Tracker:   budget.New(cfg.Limits.Ceilings()),
		Cache:     toolcache.New[mcp.Invocation](cacheSize),
		CreatedAt: time.Now(),
	}, nil
}
