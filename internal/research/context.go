// Package research runs the REASON, ACT, OBSERVE loop that gathers evidence
// before generation is allowed.
package research

import (
	"time"

	"github.com/batpad/ll-html/internal/mcp"
)

// State of the research state machine.
type State string

const (
	StateReason    State = "REASON"
	StateAct       State = "ACT"
	StateObserve   State = "OBSERVE"
	StateDone      State = "DONE"
	StateBlocked   State = "BLOCKED"
	StateCancelled State = "CANCELLED"
)

// Tier is the trust tier of a data source.
type Tier string

const (
	TierConfigured Tier = "configured"
	TierExternal   Tier = "external"
)

// SourceDescriptor is a candidate data source presented to the model.
type SourceDescriptor struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Tier          Tier      `json:"tier"`
	URL           string    `json:"url,omitempty"`
	QueryPattern  string    `json:"query_pattern,omitempty"`
	Collections   []string  `json:"collections,omitempty"`
	Relevance     float64   `json:"relevance"`
	LastValidated time.Time `json:"last_validated,omitempty"`
	Notes         string    `json:"notes,omitempty"`

	text  string
	order int
}

// Plan is the optional implementation plan produced before research.
type Plan struct {
	Summary                string   `json:"summary"`
	UserIntent             string   `json:"user_intent,omitempty"`
	FunctionalRequirements []string `json:"functional_requirements,omitempty"`
	DataRequirements       []string `json:"data_requirements,omitempty"`
	UIComponents           []string `json:"ui_components,omitempty"`
	SuccessCriteria        []string `json:"success_criteria,omitempty"`
}

// Context is the evidence handed to generation.
type Context struct {
	Request string `json:"request"`
	Plan    *Plan  `json:"plan,omitempty"`
	// Observations holds successful invocations in the order observed.
	Observations []mcp.Invocation `json:"observations"`
	// Attempts holds every invocation including failures.
	Attempts        []mcp.Invocation   `json:"attempts"`
	Successful      int                `json:"successful_tool_calls"`
	Sources         []SourceDescriptor `json:"sources"`
	ProbedEndpoints []string           `json:"probed_endpoints"`
	Sufficient      bool               `json:"sufficient"`
	Forced          bool               `json:"forced"`
	Iterations      int                `json:"iterations"`
}

func (c *Context) addProbed(urls ...string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		dup := false
		for _, p := range c.ProbedEndpoints {
			if p == u {
				dup = true
				break
			}
		}
		if !dup {
			c.ProbedEndpoints = append(c.ProbedEndpoints, u)
		}
	}
}

// ToolsUsed lists the distinct tools that produced successful observations.
func (c *Context) ToolsUsed() []string {
	seen := map[string]bool{}
	var out []string
	for _, inv := range c.Observations {
		if !seen[inv.Tool] {
			seen[inv.Tool] = true
			out = append(out, inv.Tool)
		}
	}
	return out
}

// Outcome of one research run. Context is nil when cancelled.
type Outcome struct {
	State   State    `json:"state"`
	Context *Context `json:"context,omitempty"`
	Reason  string   `json:"reason,omitempty"`
	Err     error    `json:"-"`
}
