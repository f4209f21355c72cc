package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/batpad/ll-html/internal/llm"
	"github.com/batpad/ll-html/internal/llmtool"
	"github.com/batpad/ll-html/internal/research"
)

// Planner turns a request into an implementation plan with one model call.
type Planner struct {
	model llm.Client
	log   zerolog.Logger
}

func NewPlanner(model llm.Client, log zerolog.Logger) *Planner {
	return &Planner{model: model, log: log}
}

func (p *Planner) Plan(ctx context.Context, request string) (*research.Plan, error) {
	spec := llmtool.StructuredPromptSpec{
		Purpose: "Break the request down into an implementation plan for a single web page.",
		Input:   map[string]any{"request": request},
		OutputFields: []llmtool.PromptField{
			{Name: "summary", Type: "string", Required: true},
			{Name: "user_intent", Type: "string", Required: true},
			{Name: "functional_requirements", Type: "[]string", Required: true},
			{Name: "data_requirements", Type: "[]string", Required: true, Description: "datasets or APIs the page needs"},
			{Name: "ui_components", Type: "[]string"},
			{Name: "success_criteria", Type: "[]string"},
		},
		Assumptions: []string{"The page is a single HTML file that loads data from public HTTP APIs."},
	}
	prompt, err := llmtool.ApplyPresets(spec, llmtool.PresetStrictJSON()).Render()
	if err != nil {
		return nil, err
	}
	c, err := p.model.Complete(ctx, llm.Request{Purpose: llm.PurposePlanning, Prompt: request + "\n\n" + prompt})
	if err != nil {
		return nil, fmt.Errorf("generation: plan: %w", err)
	}
	var plan research.Plan
	if err := llm.DecodeJSON(c.Text, &plan); err != nil {
		return nil, fmt.Errorf("generation: plan: %w", err)
	}
	if strings.TrimSpace(plan.Summary) == "" {
		return nil, errors.New("generation: plan has no summary")
	}
	p.log.Debug().Str("summary", plan.Summary).Int("requirements", len(plan.FunctionalRequirements)).Msg("plan ready")
	return &plan, nil
}
