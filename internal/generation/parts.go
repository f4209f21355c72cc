package generation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/batpad/ll-html/internal/jsonutil"
	"github.com/batpad/ll-html/internal/llm"
	"github.com/batpad/ll-html/internal/templates"
)

// ErrEmptyParts is returned when a reply decodes but carries no content.
var ErrEmptyParts = errors.New("generation: reply has no main_content or custom_js")

// ParseParts decodes a generation reply.
func ParseParts(text string) (templates.Parts, error) {
	return ParsePartsOver(text, templates.Parts{})
}

// ParsePartsOver decodes a repair reply on top of base, so fields the reply
// omits keep their current value.
func ParsePartsOver(text string, base templates.Parts) (templates.Parts, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return templates.Parts{}, fmt.Errorf("generation: decode parts: %w", err)
	}
	p := base
	if err := jsonutil.UnmarshalFlex(raw, &p); err != nil {
		return templates.Parts{}, fmt.Errorf("generation: decode parts: %w", err)
	}
	p.MainContent = jsonutil.UnescapeHTML(p.MainContent)
	p.CustomCSS = jsonutil.UnescapeHTML(p.CustomCSS)
	p.CustomJS = jsonutil.UnescapeHTML(p.CustomJS)
	if strings.TrimSpace(p.MainContent) == "" && strings.TrimSpace(p.CustomJS) == "" {
		return templates.Parts{}, ErrEmptyParts
	}
	return p, nil
}
