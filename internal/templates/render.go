package templates

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Parts are the model-written pieces injected into a template.
type Parts struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	MainContent string `json:"main_content"`
	CustomCSS   string `json:"custom_css"`
	CustomJS    string `json:"custom_js"`
}

var document = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
{{range .Styles}}<link rel="stylesheet" href="{{.}}">
{{end}}<style>
{{.BaseCSS}}
{{.CustomCSS}}
</style>
</head>
<body>
{{.Body}}
{{range .Scripts}}<script src="{{.}}"></script>
{{end}}<script>
{{.Init}}
{{.Utilities}}
{{.CustomJS}}
</script>
</body>
</html>
`))

// Render assembles the full document. Parts are inserted verbatim; the
// output is only as safe as the model's markup.
func Render(t Template, p Parts) (string, error) {
	if strings.TrimSpace(p.Title) == "" {
		p.Title = t.Name
	}
	layout, err := template.New(string(t.Kind)).Parse(t.Layout)
	if err != nil {
		return "", fmt.Errorf("templates: parse %s layout: %w", t.Kind, err)
	}
	var body bytes.Buffer
	if err := layout.Execute(&body, p); err != nil {
		return "", fmt.Errorf("templates: render %s layout: %w", t.Kind, err)
	}
	var out bytes.Buffer
	err = document.Execute(&out, map[string]any{
		"Title":     p.Title,
		"Styles":    t.Styles(),
		"BaseCSS":   t.BaseCSS,
		"CustomCSS": p.CustomCSS,
		"Body":      body.String(),
		"Scripts":   t.Scripts(),
		"Init":      t.Init,
		"Utilities": t.UtilitySource(),
		"CustomJS":  p.CustomJS,
	})
	if err != nil {
		return "", fmt.Errorf("templates: render document: %w", err)
	}
	return out.String(), nil
}
