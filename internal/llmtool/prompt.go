package llmtool

import (
	"bytes"
	"encoding/json"

	"github.com/batpad/ll-html/internal/mcp"
)

// DefaultObservationChars caps each rendered observation.
const DefaultObservationChars = 1500

// FormatToolSpecs renders a compact JSON block of tool specs for prompt inclusion.
func FormatToolSpecs(tools []mcp.ToolSpec) string {
	if tools == nil {
		tools = []mcp.ToolSpec{}
	}
	return encode(tools)
}

type observationView struct {
	Tool        string          `json:"tool"`
	Params      json.RawMessage `json:"params,omitempty"`
	Outcome     mcp.Outcome     `json:"outcome"`
	Cached      bool            `json:"cached,omitempty"`
	Observation json.RawMessage `json:"observation,omitempty"`
	Truncated   string          `json:"observation_truncated,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// FormatObservations renders invocations as a JSON block. Observations longer
// than maxChars are replaced by a truncated string preview.
func FormatObservations(invs []mcp.Invocation, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultObservationChars
	}
	views := make([]observationView, 0, len(invs))
	for _, inv := range invs {
		v := observationView{Tool: inv.Tool, Params: inv.Params, Outcome: inv.Outcome, Cached: inv.Cached, Error: inv.Error}
		if len(inv.Observation) > maxChars {
			v.Truncated = string(inv.Observation[:maxChars]) + "..."
		} else {
			v.Observation = inv.Observation
		}
		views = append(views, v)
	}
	return encode(views)
}

func encode(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
	return buf.String()
}
