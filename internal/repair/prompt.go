package repair

import (
	"github.com/batpad/ll-html/internal/artifact"
	"github.com/batpad/ll-html/internal/generation"
	"github.com/batpad/ll-html/internal/jsonutil"
	"github.com/batpad/ll-html/internal/llmtool"
	"github.com/batpad/ll-html/internal/templates"
	"github.com/batpad/ll-html/internal/validation"
)

const systemPrompt = "You fix HTML and JavaScript content. Change only what the listed issues require and reply with a single JSON object."

func repairPrompt(tpl templates.Template, current Version, probed []string) (string, error) {
	sections := generation.TemplateSections(tpl)

	var issues []string
	for _, i := range current.Report.Issues {
		issues = append(issues, i.String())
	}
	sections = append(sections, llmtool.Section{Title: "ISSUES", Body: llmtool.FormatList(issues)})

	if current.Artifact.Origin == artifact.OriginImport {
		sections = append(sections, llmtool.Section{Title: "CURRENT_DOCUMENT", Body: current.Artifact.Text})
	} else {
		b, err := jsonutil.MarshalIndent(current.Artifact.Parts)
		if err != nil {
			return "", err
		}
		sections = append(sections, llmtool.Section{Title: "CURRENT_CONTENT", Body: string(b)})
	}

	probedBody := "(none)"
	if len(probed) > 0 {
		probedBody = llmtool.FormatList(probed)
	}
	sections = append(sections, llmtool.Section{Title: "PROBED_ENDPOINTS", Body: probedBody})

	spec := llmtool.StructuredPromptSpec{
		Purpose: "Fix the listed issues in the page content while keeping its behaviour.",
		Input: map[string]any{
			"template":     tpl.Kind,
			"version":      current.Artifact.Version,
			"score":        current.Report.Score,
			"issue_counts": counts(current.Report),
		},
		Sections:     sections,
		OutputFields: generation.PartsFields,
		Rules: []string{
			"Fix blocking issues first, then major ones.",
			"Do not change code that no issue points at.",
			"The preloaded libraries are already loaded; never add script or link tags for them.",
			"Replace unvalidated endpoints with the closest URL from PROBED_ENDPOINTS, or remove the call.",
			"Make every element id used by the script exist in main_content or the template.",
		},
		OutputFormat: `{"title":"...","description":"...","main_content":"...","custom_css":"...","custom_js":"..."}`,
	}
	spec = llmtool.ApplyPresets(spec, llmtool.PresetStrictJSON())
	return spec.Render()
}

func counts(r validation.Report) map[string]int {
	return map[string]int{
		string(validation.Blocking): r.Count(validation.Blocking),
		string(validation.Major):    r.Count(validation.Major),
		string(validation.Minor):    r.Count(validation.Minor),
	}
}
