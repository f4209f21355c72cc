// Package validation statically checks generated documents and scores them.
// No model calls are made here.
package validation

import "fmt"

// Category of an issue.
type Category string

const (
	Structural Category = "structural"
	Scripting  Category = "scripting"
	Dependency Category = "dependency"
	Endpoint   Category = "endpoint"
)

// Severity of an issue.
type Severity string

const (
	Blocking Severity = "blocking"
	Major    Severity = "major"
	Minor    Severity = "minor"
)

// Weight is the severity's contribution to a report score.
func (s Severity) Weight() int {
	switch s {
	case Blocking:
		return 10
	case Major:
		return 3
	case Minor:
		return 1
	}
	return 0
}

// Issue is one finding. Locator names what a repair should target (an
// element id, a symbol, a URL); Line is 1-based or 0 when unknown.
type Issue struct {
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Locator     string   `json:"locator,omitempty"`
	Line        int      `json:"line,omitempty"`
}

func (i Issue) String() string {
	loc := i.Locator
	if i.Line > 0 {
		loc = fmt.Sprintf("%s line %d", loc, i.Line)
	}
	return fmt.Sprintf("[%s/%s] %s (%s)", i.Category, i.Severity, i.Description, loc)
}

// Report is the ordered issue list for one artifact version.
type Report struct {
	Issues []Issue `json:"issues"`
	Score  int     `json:"score"`
}

// Score is the weighted issue sum: blocking=10, major=3, minor=1.
func Score(issues []Issue) int {
	total := 0
	for _, i := range issues {
		total += i.Severity.Weight()
	}
	return total
}

// OnlyMinor reports whether every issue is minor.
func (r Report) OnlyMinor() bool {
	for _, i := range r.Issues {
		if i.Severity != Minor {
			return false
		}
	}
	return true
}

// Count returns the number of issues with severity s.
func (r Report) Count(s Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == s {
			n++
		}
	}
	return n
}
