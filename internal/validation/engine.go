package validation

import (
	"context"
	"sort"

	"github.com/batpad/ll-html/internal/telemetry"
	"github.com/batpad/ll-html/internal/templates"
	"go.opentelemetry.io/otel/attribute"
)

// Context is what a check may compare the document against. Template is
// nil for documents imported as text.
type Context struct {
	Template        *templates.Template
	ProbedEndpoints []string
}

// Detector is one family of checks.
type Detector interface {
	Name() string
	Detect(doc *Document, c Context) []Issue
}

// Engine runs detectors in order. It is stateless and safe for concurrent use.
type Engine struct {
	detectors []Detector
}

// NewEngine returns an engine over ds, or over the four standard
// detectors when ds is empty.
func NewEngine(ds ...Detector) *Engine {
	if len(ds) == 0 {
		ds = []Detector{NewStructural(), NewScripting(), NewDependency(), NewEndpoint()}
	}
	return &Engine{detectors: ds}
}

// Validate parses text and returns the issues, ordered by detector then
// line, with their score. The same input always gives the same report.
func (e *Engine) Validate(ctx context.Context, text string, c Context) Report {
	_, span := telemetry.Tracer("validation").Start(ctx, "validate")
	defer span.End()

	doc := Parse(text)
	issues := []Issue{}
	for _, d := range e.detectors {
		found := d.Detect(doc, c)
		sort.SliceStable(found, func(i, j int) bool {
			if found[i].Line != found[j].Line {
				return found[i].Line < found[j].Line
			}
			return found[i].Locator < found[j].Locator
		})
		issues = append(issues, found...)
	}
	r := Report{Issues: issues, Score: Score(issues)}
	span.SetAttributes(attribute.Int("validation.issues", len(issues)), attribute.Int("validation.score", r.Score))
	return r
}
