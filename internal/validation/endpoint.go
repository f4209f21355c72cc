package validation

import (
	"github.com/batpad/ll-html/internal/endpoints"
)

type endpoint struct{}

// NewEndpoint flags data URLs the document calls that research never
// probed successfully.
func NewEndpoint() Detector { return endpoint{} }

func (endpoint) Name() string { return string(Endpoint) }

func (endpoint) Detect(doc *Document, c Context) []Issue {
	var out []Issue
	for _, e := range endpoints.Extract(doc.Text) {
		if endpoints.Covered(e.URL, c.ProbedEndpoints) {
			continue
		}
		out = append(out, Issue{
			Category:    Endpoint,
			Severity:    Major,
			Locator:     e.URL,
			Line:        e.Line,
			Description: "calls " + e.URL + " which was not validated during research",
		})
	}
	return out
}
