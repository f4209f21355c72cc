package llmtool

// PromptPreset holds reusable constraints and rules for structured prompts.
type PromptPreset struct {
	Constraints []string
	Rules       []string
}

// ApplyPresets prepends preset constraints/rules to a structured prompt spec.
func ApplyPresets(spec StructuredPromptSpec, presets ...PromptPreset) StructuredPromptSpec {
	if len(presets) == 0 {
		return spec
	}
	var merged PromptPreset
	for _, p := range presets {
		merged.Constraints = append(merged.Constraints, p.Constraints...)
		merged.Rules = append(merged.Rules, p.Rules...)
	}
	spec.Constraints = append(merged.Constraints, spec.Constraints...)
	spec.Rules = append(merged.Rules, spec.Rules...)
	return spec
}

// PresetStrictJSON enforces a single JSON object reply.
func PresetStrictJSON() PromptPreset {
	return PromptPreset{
		Constraints: []string{
			"Reply with exactly one JSON object.",
			"No markdown fences, comments, or trailing commas.",
		},
	}
}

// PresetNoInventedData keeps the model on observed endpoints and fields.
func PresetNoInventedData() PromptPreset {
	return PromptPreset{
		Constraints: []string{
			"Do not invent URLs, collection ids, or property names; use only those present in the observations.",
			"Never embed placeholder or fabricated sample data in place of a live request.",
		},
	}
}

// PresetSelfContained is used for generated documents.
func PresetSelfContained() PromptPreset {
	return PromptPreset{
		Rules: []string{
			"Load libraries only from the CDN URLs listed in the template.",
			"Define every JavaScript function you call.",
			"Handle failed requests visibly in the page instead of failing silently.",
		},
	}
}
