package generation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batpad/ll-html/internal/artifact"
	"github.com/batpad/ll-html/internal/errs"
	"github.com/batpad/ll-html/internal/llm"
	"github.com/batpad/ll-html/internal/mcp"
	"github.com/batpad/ll-html/internal/research"
	"github.com/batpad/ll-html/internal/templates"
)

func evidence(request string) *research.Context {
	return &research.Context{
		Request:         request,
		Successful:      2,
		Sufficient:      true,
		ProbedEndpoints: []string{"https://stac.example/search"},
		Observations: []mcp.Invocation{
			{Tool: mcp.ToolCatalogSampler, Outcome: mcp.OutcomeSuccess, Observation: json.RawMessage(`{"collection":"usgs-events"}`)},
		},
	}
}

const partsReply = `{"title":"Quakes","description":"Recent earthquakes","main_content":"<ul id=\"list\"></ul>","custom_css":"","custom_js":"hideLoading();"}`

func TestGenerateMakesExactlyOneCall(t *testing.T) {
	model := llm.NewScripted().On(llm.PurposeGeneration, llm.Reply{Text: "```json\n" + partsReply + "\n```", OutputTokens: 42})
	stage := NewStage(model, Options{})

	a, err := stage.Generate(context.Background(), evidence("earthquake map"), templates.Default())

	require.NoError(t, err)
	assert.Equal(t, 1, model.Calls(llm.PurposeGeneration))
	assert.Len(t, model.Requests(), 1)
	assert.Equal(t, templates.KindMap, a.Template)
	assert.Equal(t, 1, a.Version)
	assert.Equal(t, artifact.OriginGeneration, a.Origin)
	assert.Equal(t, 42, a.OutputTokens)
	assert.Contains(t, a.Text, `<ul id="list"></ul>`)

	prompt := model.Requests()[0].Prompt
	for _, want := range []string{"[PRELOADED_LIBRARIES]", "Leaflet", "[UTILITY_FUNCTIONS]", "addMarker(lat, lng, popupContent)", "[PROBED_ENDPOINTS]", "https://stac.example/search", "[OBSERVATIONS]"} {
		assert.Contains(t, prompt, want)
	}
}

func TestGenerateFailuresAreNotRetried(t *testing.T) {
	cases := map[string]llm.Reply{
		"model error": {Err: errors.New("boom")},
		"bad json":    {Text: "here is your page: <html>"},
		"empty parts": {Text: `{"title":"x"}`},
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			model := llm.NewScripted().On(llm.PurposeGeneration, reply, llm.Reply{Text: partsReply})
			_, err := NewStage(model, Options{}).Generate(context.Background(), evidence("flood dashboard"), templates.Default())
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.GenerationFailure))
			assert.Equal(t, 1, model.Calls(llm.PurposeGeneration))
		})
	}
}

func TestPlanner(t *testing.T) {
	model := llm.NewScripted().On(llm.PurposePlanning,
		llm.Reply{Text: `{"summary":"map of quakes","user_intent":"see recent earthquakes","functional_requirements":["markers"]}`},
		llm.Reply{Text: `{"summary":""}`},
	)
	p := NewPlanner(model, zerolog.Nop())
	plan, err := p.Plan(context.Background(), "earthquake map")
	require.NoError(t, err)
	assert.Equal(t, "map of quakes", plan.Summary)
	assert.Equal(t, []string{"markers"}, plan.FunctionalRequirements)

	_, err = p.Plan(context.Background(), "earthquake map")
	assert.Error(t, err)
}

func TestParseParts(t *testing.T) {
	p, err := ParseParts(partsReply)
	require.NoError(t, err)
	assert.Equal(t, "Quakes", p.Title)
	_, err = ParseParts(`{"title":"x","main_content":"  "}`)
	assert.ErrorIs(t, err, ErrEmptyParts)
}

func TestParsePartsOverKeepsOmittedFields(t *testing.T) {
	base := templates.Parts{Title: "Quakes", Description: "recent events", CustomCSS: ".x{}", MainContent: "<p>old</p>"}
	p, err := ParsePartsOver("```json\n{\"custom_js\": \"hideLoading();\"}\n```", base)
	require.NoError(t, err)
	assert.Equal(t, "Quakes", p.Title)
	assert.Equal(t, ".x{}", p.CustomCSS)
	assert.Equal(t, "hideLoading();", p.CustomJS)
}

func TestParsePartsUnescapesDoubleEscapedHTML(t *testing.T) {
	p, err := ParseParts(`{"title": "Quakes", "main_content": "\\u003cul id=\"events\"\\u003e\\u003c/ul\\u003e"}`)
	require.NoError(t, err)
	assert.Equal(t, `<ul id="events"></ul>`, p.MainContent)
}
