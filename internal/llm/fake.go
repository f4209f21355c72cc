package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// FakeClient returns deterministic minimal payloads per purpose for offline
// runs. Research always asks to proceed, which leaves tool selection to the
// orchestrator's own policy.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "fake" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Complete(_ context.Context, req Request) (Completion, error) {
	var obj any
	switch req.Purpose {
	case PurposeReasoning:
		obj = map[string]any{"action": "proceed", "reasoning": "fake client defers to the orchestrator"}
	case PurposePlanning:
		obj = map[string]any{
			"summary":                 "offline plan",
			"user_intent":             firstLine(req.Prompt),
			"functional_requirements": []string{"show the requested data"},
			"data_requirements":       []string{"configured catalog samples"},
			"ui_components":           []string{"main view"},
			"success_criteria":        []string{"page renders without errors"},
		}
	case PurposeGeneration, PurposeRepair:
		var b strings.Builder
		for _, id := range requiredIDs(req.Prompt) {
			fmt.Fprintf(&b, "<div id=%q></div>", id)
		}
		obj = map[string]any{
			"title":        "Offline preview",
			"description":  "Generated without a model provider.",
			"main_content": `<div class="container">` + b.String() + `</div>`,
			"custom_css":   "",
			"custom_js":    "",
		}
	default:
		return Completion{}, fmt.Errorf("fake: unsupported purpose %q", req.Purpose)
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return Completion{}, err
	}
	return Completion{Text: string(b), Model: "fake", OutputTokens: EstimateTokens(string(b))}, nil
}

// requiredIDs reads the "[REQUIRED_IDS]" section of a prompt.
func requiredIDs(prompt string) []string {
	const marker = "[REQUIRED_IDS]\n"
	i := strings.Index(prompt, marker)
	if i < 0 {
		return nil
	}
	var ids []string
	for _, line := range strings.Split(prompt[i+len(marker):], "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[") {
			break
		}
		ids = append(ids, strings.TrimPrefix(line, "- "))
	}
	return ids
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
