package research

import (
	"fmt"
	"strings"

	"github.com/batpad/ll-html/internal/budget"
	"github.com/batpad/ll-html/internal/jsonutil"
	"github.com/batpad/ll-html/internal/llmtool"
)

const systemPrompt = "You are the research step of a web artifact generator. " +
	"You gather evidence about live data sources with tools before any page is written. " +
	"Reply with a single JSON object."

func (o *Orchestrator) prompt(r *run) (string, error) {
	snap := o.tracker.Snapshot()
	input := map[string]any{
		"request":                   r.rc.Request,
		"iteration":                 r.rc.Iterations,
		"max_iterations":            snap.Ceilings.MaxIterations,
		"successful_tool_calls":     r.rc.Successful,
		"min_successful_tool_calls": o.opts.MinSuccessful,
		"remaining_model_calls":     o.tracker.Remaining(budget.ModelCall),
	}
	sections := []llmtool.Section{{Title: "CANDIDATE_SOURCES", Body: FormatSources(r.rc.Sources)}}
	if r.rc.Plan != nil {
		b, _ := jsonutil.MarshalIndent(r.rc.Plan)
		sections = append(sections, llmtool.Section{Title: "PLAN", Body: string(b)})
	}
	if len(r.rc.ProbedEndpoints) > 0 {
		sections = append(sections, llmtool.Section{Title: "PROBED_ENDPOINTS", Body: llmtool.FormatList(r.rc.ProbedEndpoints)})
	}
	spec := llmtool.StructuredPromptSpec{
		Purpose:    "Choose the next research action for the request, or proceed to generation when the evidence is sufficient.",
		Background: "The generated page will call the data endpoints you verify here. Configured sources are trusted and listed first.",
		Input:      input,
		Sections:   sections,
		Tools:      o.tools.Specs(),
		// Failures are shown so the next step can change tool or parameters.
		Observations: r.rc.Attempts,
		OutputFields: []llmtool.PromptField{
			{Name: "action", Type: "string", Required: true, Description: `"tool" or "proceed"`},
			{Name: "tool", Type: "string", Description: "tool name when action is tool"},
			{Name: "params", Type: "object", Description: "tool parameters matching its input_schema"},
			{Name: "reasoning", Type: "string", Description: "one sentence"},
		},
		Rules: []string{
			"Sample configured sources before external ones, in the order given.",
			fmt.Sprintf("proceed is accepted only after %d successful tool calls.", o.opts.MinSuccessful),
			"Do not repeat a call that already appears in the observations.",
			"Probe every endpoint the page will request.",
		},
		OutputFormat: `{"action":"tool","tool":"catalog_sampler","params":{"collection":"..."},"reasoning":"..."} or {"action":"proceed","reasoning":"..."}`,
	}
	return llmtool.ApplyPresets(spec, llmtool.PresetStrictJSON()).Render()
}

// FormatSources renders candidates as a numbered list in the given order.
func FormatSources(sources []SourceDescriptor) string {
	if len(sources) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for i, s := range sources {
		fmt.Fprintf(&b, "%d. [%s] %s", i+1, s.Tier, s.ID)
		if s.Name != "" && s.Name != s.ID {
			fmt.Fprintf(&b, " (%s)", s.Name)
		}
		fmt.Fprintf(&b, " relevance=%.2f", s.Relevance)
		if s.URL != "" {
			fmt.Fprintf(&b, " url=%s", s.URL)
		}
		if len(s.Collections) > 0 {
			fmt.Fprintf(&b, " collections=%s", strings.Join(s.Collections, ","))
		}
		if s.QueryPattern != "" {
			fmt.Fprintf(&b, " pattern=%q", s.QueryPattern)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
