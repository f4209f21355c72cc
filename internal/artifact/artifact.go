// Package artifact holds generated documents and their version chain.
package artifact

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/batpad/ll-html/internal/templates"
)

// Origin records which step produced a version.
type Origin string

const (
	OriginGeneration Origin = "generation"
	OriginRepair     Origin = "repair"
	OriginImport     Origin = "import"
)

// Artifact is one immutable version of a generated document.
type Artifact struct {
	ID           string          `json:"id"`
	Version      int             `json:"version"`
	ParentID     string          `json:"parent_id,omitempty"`
	Template     templates.Kind  `json:"template"`
	Parts        templates.Parts `json:"parts"`
	Text         string          `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	InputTokens  int             `json:"input_tokens,omitempty"`
	OutputTokens int             `json:"output_tokens,omitempty"`
	Origin       Origin          `json:"origin"`
}

// Usage is the token accounting of the call that produced a version.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// New renders parts into tpl and returns version 1.
func New(tpl templates.Template, parts templates.Parts, usage Usage, now time.Time) (Artifact, error) {
	text, err := templates.Render(tpl, parts)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		ID:           uuid.NewString(),
		Version:      1,
		Template:     tpl.Kind,
		Parts:        parts,
		Text:         text,
		CreatedAt:    now,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		Origin:       OriginGeneration,
	}, nil
}

// FromText wraps an existing document, for validating files that were not generated here.
func FromText(kind templates.Kind, text string, now time.Time) Artifact {
	return Artifact{ID: uuid.NewString(), Version: 1, Template: kind, Text: text, CreatedAt: now, Origin: OriginImport}
}

// Revise renders new parts into the same template as a child version of a.
func (a Artifact) Revise(tpl templates.Template, parts templates.Parts, usage Usage, now time.Time) (Artifact, error) {
	if tpl.Kind != a.Template {
		return Artifact{}, fmt.Errorf("artifact: revise %s artifact with %s template", a.Template, tpl.Kind)
	}
	next, err := New(tpl, parts, usage, now)
	if err != nil {
		return Artifact{}, err
	}
	next.Version = a.Version + 1
	next.ParentID = a.ID
	next.Origin = OriginRepair
	return next, nil
}

// Chain is the append-only audit trail of versions.
type Chain struct {
	versions []Artifact
}

var ErrBrokenChain = errors.New("artifact: version does not extend the chain")

// NewChain starts a chain at root.
func NewChain(root Artifact) *Chain {
	return &Chain{versions: []Artifact{root}}
}

// Append adds a version whose parent is the current latest.
func (c *Chain) Append(a Artifact) error {
	last := c.Latest()
	if a.ParentID != last.ID || a.Version != last.Version+1 {
		return ErrBrokenChain
	}
	c.versions = append(c.versions, a)
	return nil
}

func (c *Chain) Latest() Artifact { return c.versions[len(c.versions)-1] }
func (c *Chain) Len() int { return len(c.versions) }

// Versions returns a copy of the chain, oldest first.
func (c *Chain) Versions() []Artifact {
	out := make([]Artifact, len(c.versions))
	copy(out, c.versions)
	return out
}

// Best returns the index of the lowest score, the earliest on ties. scores
// are aligned with Versions.
func Best(scores []int) int {
	best := 0
	for i, s := range scores {
		if s < scores[best] {
			best = i
		}
	}
	return best
}
