package generation

import (
	"fmt"
	"strings"

	"github.com/batpad/ll-html/internal/jsonutil"
	"github.com/batpad/ll-html/internal/llmtool"
	"github.com/batpad/ll-html/internal/research"
	"github.com/batpad/ll-html/internal/templates"
)

// PartsFields describes the reply shared by generation and repair.
var PartsFields = []llmtool.PromptField{
	{Name: "title", Type: "string", Required: true},
	{Name: "description", Type: "string", Required: true, Description: "one sentence shown under the title"},
	{Name: "main_content", Type: "string", Required: true, Description: "HTML placed inside the template's content area"},
	{Name: "custom_css", Type: "string", Description: "extra CSS rules"},
	{Name: "custom_js", Type: "string", Required: true, Description: "JavaScript run after the libraries and utilities"},
}

// TemplateSections renders what the template already provides so the model
// fills gaps instead of adding dependencies.
func TemplateSections(tpl templates.Template) []llmtool.Section {
	var libs []string
	for _, l := range tpl.Libraries {
		line := l.Name
		if len(l.Globals) > 0 {
			line += " (global " + strings.Join(l.Globals, ", ") + ")"
		}
		libs = append(libs, line)
	}
	var utils []string
	for _, u := range tpl.Utilities {
		utils = append(utils, u.Signature)
	}
	sections := []llmtool.Section{
		{Title: "TEMPLATE", Body: fmt.Sprintf("%s: %s", tpl.Name, tpl.Description)},
		{Title: "PRELOADED_LIBRARIES", Body: llmtool.FormatList(libs)},
		{Title: "UTILITY_FUNCTIONS", Body: llmtool.FormatList(utils)},
		{Title: "TEMPLATE_IDS", Body: llmtool.FormatList(tpl.RequiredIDs)},
	}
	if len(tpl.Globals) > 0 {
		sections = append(sections, llmtool.Section{Title: "TEMPLATE_GLOBALS", Body: llmtool.FormatList(tpl.Globals)})
	}
	return sections
}

func generationPrompt(tpl templates.Template, rc *research.Context, obsChars int) (string, error) {
	sections := TemplateSections(tpl)
	if rc.Plan != nil {
		b, _ := jsonutil.MarshalIndent(rc.Plan)
		sections = append(sections, llmtool.Section{Title: "PLAN", Body: string(b)})
	}
	sections = append(sections, llmtool.Section{Title: "DATA_SOURCES", Body: research.FormatSources(rc.Sources)})
	probed := "(none)"
	if len(rc.ProbedEndpoints) > 0 {
		probed = llmtool.FormatList(rc.ProbedEndpoints)
	}
	sections = append(sections, llmtool.Section{Title: "PROBED_ENDPOINTS", Body: probed})

	spec := llmtool.StructuredPromptSpec{
		Purpose:          "Write the content of a self-contained web page that answers the request with live data.",
		Background:       "The research step verified the data sources below. The page is injected into the template described here.",
		Input:            map[string]any{"request": rc.Request, "template": tpl.Kind, "forced_evidence": rc.Forced},
		Sections:         sections,
		Observations:     rc.Observations,
		ObservationChars: obsChars,
		OutputFields:     PartsFields,
		Rules: []string{
			"Request data at runtime only from PROBED_ENDPOINTS, using the query patterns shown.",
			"Use the template ids and utility functions instead of redefining them.",
			"Do not redeclare template globals.",
		},
		OutputFormat: `{"title":"...","description":"...","main_content":"<div>...</div>","custom_css":"","custom_js":"..."}`,
	}
	spec = llmtool.ApplyPresets(spec, llmtool.PresetStrictJSON(), llmtool.PresetNoInventedData(), llmtool.PresetSelfContained())
	return spec.Render()
}
