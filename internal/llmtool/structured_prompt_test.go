package llmtool

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/batpad/ll-html/internal/mcp"
)

func TestStructuredPrompt_RendersSections(t *testing.T) {
	spec := StructuredPromptSpec{
		Purpose:      "Pick the next research action.",
		Background:   "Interactive map request.",
		Input:        map[string]any{"request": "earthquake map"},
		Sections:     []Section{{Title: "sources", Body: "- montandon"}},
		OutputFields: []PromptField{{Name: "action", Type: "string", Required: true, Description: "tool or proceed"}, {Name: "reasoning", Type: "string"}},
		Constraints:  []string{"No markdown."},
		Rules:        []string{"Prefer configured sources."},
		Assumptions:  []string{"Network may be slow."},
		OutputFormat: "JSON only.",
		Tools:        []mcp.ToolSpec{{Name: "catalog_sampler"}},
		Observations: []mcp.Invocation{{Tool: "catalog_sampler", Params: json.RawMessage(`{"collection":"gdacs-events"}`), Outcome: mcp.OutcomeSuccess, Observation: json.RawMessage(`{"total_found":3}`), StartedAt: time.Unix(0, 0)}},
		Examples:     []PromptExample{{InputJSON: `{"request":"x"}`, OutputJSON: `{"action":"proceed"}`}},
	}
	out, err := spec.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := []string{"[PURPOSE]", "[BACKGROUND]", "[INPUT]", "[SOURCES]", "[TOOLS]", "[OBSERVATIONS]", "[OUTPUT]", "[CONSTRAINTS]", "[RULES]", "[ASSUMPTIONS]", "[OUTPUT_FORMAT]", "[EXAMPLES]"}
	last := -1
	for _, sec := range want {
		i := strings.Index(out, sec)
		if i < 0 {
			t.Fatalf("missing section %s", sec)
		}
		if i < last {
			t.Fatalf("section %s out of order", sec)
		}
		last = i
	}
	if !strings.Contains(out, "- action (string, required): tool or proceed") {
		t.Fatalf("fields not rendered:\n%s", out)
	}
	again, _ := spec.Render()
	if again != out {
		t.Fatalf("render not deterministic")
	}
}

func TestStructuredPrompt_OmitsEmptySections(t *testing.T) {
	out, err := StructuredPromptSpec{Purpose: "x", OutputFields: []PromptField{{Name: "a", Type: "string"}}}.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, sec := range []string{"[TOOLS]", "[OBSERVATIONS]", "[INPUT]", "[EXAMPLES]"} {
		if strings.Contains(out, sec) {
			t.Fatalf("unexpected %s in %q", sec, out)
		}
	}
}

func TestStructuredPrompt_RequiresPurposeAndFields(t *testing.T) {
	if _, err := (StructuredPromptSpec{OutputFields: []PromptField{{Name: "a"}}}).Render(); err == nil || !strings.Contains(err.Error(), "purpose") {
		t.Fatalf("expected purpose error, got %v", err)
	}
	if _, err := (StructuredPromptSpec{Purpose: "x"}).Render(); err == nil || !strings.Contains(err.Error(), "output fields") {
		t.Fatalf("expected output fields error, got %v", err)
	}
}

func TestFormatObservations_Truncates(t *testing.T) {
	big := `{"body":"` + strings.Repeat("a", 100) + `"}`
	out := FormatObservations([]mcp.Invocation{{Tool: "api_probe", Outcome: mcp.OutcomeSuccess, Observation: json.RawMessage(big)}}, 20)
	if !strings.Contains(out, "observation_truncated") || strings.Contains(out, strings.Repeat("a", 50)) {
		t.Fatalf("observation not truncated: %s", out)
	}
}

func TestApplyPresets_PrependConstraintsAndRules(t *testing.T) {
	spec := StructuredPromptSpec{
		Purpose:      "x",
		OutputFields: []PromptField{{Name: "summary", Type: "string", Required: true}},
		Constraints:  []string{"spec-constraint"},
		Rules:        []string{"spec-rule"},
	}
	applied := ApplyPresets(spec, PromptPreset{Constraints: []string{"preset-constraint"}, Rules: []string{"preset-rule"}})
	if len(applied.Constraints) != 2 || applied.Constraints[0] != "preset-constraint" {
		t.Fatalf("expected preset constraint prepended, got %+v", applied.Constraints)
	}
	if len(applied.Rules) != 2 || applied.Rules[0] != "preset-rule" {
		t.Fatalf("expected preset rule prepended, got %+v", applied.Rules)
	}
}
