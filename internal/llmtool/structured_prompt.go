package llmtool

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/batpad/ll-html/internal/jsonutil"
	"github.com/batpad/ll-html/internal/mcp"
)

// PromptField describes a single output field in a simple schema.
type PromptField struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// PromptExample captures an optional input/output example.
type PromptExample struct {
	InputJSON  string
	OutputJSON string
}

// Section is an extra titled block such as a template or an issue list.
type Section struct {
	Title string
	Body  string
}

// StructuredPromptSpec defines the sections for a structured prompt.
type StructuredPromptSpec struct {
	Purpose      string
	Background   string
	Input        any
	Sections     []Section
	OutputFields []PromptField
	Constraints  []string
	Rules        []string
	Assumptions  []string
	OutputFormat string
	Tools        []mcp.ToolSpec
	Observations []mcp.Invocation
	// ObservationChars caps each rendered observation; zero means the default.
	ObservationChars int
	Examples         []PromptExample
}

// Render builds the prompt text. Empty sections are omitted; the section
// order is fixed so identical specs render identical prompts.
func (spec StructuredPromptSpec) Render() (string, error) {
	if strings.TrimSpace(spec.Purpose) == "" {
		return "", fmt.Errorf("llmtool: purpose is empty")
	}
	if len(spec.OutputFields) == 0 {
		return "", fmt.Errorf("llmtool: output fields are empty")
	}
	inputJSON := ""
	if spec.Input != nil {
		b, err := jsonutil.MarshalIndent(spec.Input)
		if err != nil {
			return "", fmt.Errorf("llmtool: encode input: %w", err)
		}
		inputJSON = string(b)
	}

	var buf bytes.Buffer
	writeSection(&buf, "PURPOSE", spec.Purpose)
	writeSection(&buf, "BACKGROUND", spec.Background)
	writeSection(&buf, "INPUT", inputJSON)
	for _, s := range spec.Sections {
		writeSection(&buf, strings.ToUpper(s.Title), s.Body)
	}
	if len(spec.Tools) > 0 {
		writeSection(&buf, "TOOLS", FormatToolSpecs(spec.Tools))
	}
	if len(spec.Observations) > 0 {
		writeSection(&buf, "OBSERVATIONS", FormatObservations(spec.Observations, spec.ObservationChars))
	}
	writeSection(&buf, "OUTPUT", formatFields(spec.OutputFields))
	writeSection(&buf, "CONSTRAINTS", FormatList(spec.Constraints))
	writeSection(&buf, "RULES", FormatList(spec.Rules))
	writeSection(&buf, "ASSUMPTIONS", FormatList(spec.Assumptions))
	writeSection(&buf, "OUTPUT_FORMAT", spec.OutputFormat)
	if len(spec.Examples) > 0 {
		writeSection(&buf, "EXAMPLES", formatExamples(spec.Examples))
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

func formatFields(fields []PromptField) string {
	var buf strings.Builder
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}
		req := "optional"
		if f.Required {
			req = "required"
		}
		if f.Description != "" {
			fmt.Fprintf(&buf, "- %s (%s, %s): %s\n", name, f.Type, req, f.Description)
		} else {
			fmt.Fprintf(&buf, "- %s (%s, %s)\n", name, f.Type, req)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

// FormatList renders items as a "- item" list, skipping blanks.
func FormatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatExamples(examples []PromptExample) string {
	var buf strings.Builder
	for i, ex := range examples {
		fmt.Fprintf(&buf, "Example %d:\n", i+1)
		for _, part := range []struct{ label, body string }{{"INPUT", ex.InputJSON}, {"OUTPUT", ex.OutputJSON}} {
			if strings.TrimSpace(part.body) == "" {
				continue
			}
			buf.WriteString(part.label + ":\n" + strings.TrimRight(part.body, "\n") + "\n")
		}
		buf.WriteString("\n")
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[" + title + "]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}
