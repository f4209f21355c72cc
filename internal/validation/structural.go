package validation

import (
	"fmt"
	"strings"
)

var bootstrapClasses = []string{"container", "row", "col-", "btn", "card", "navbar", "alert", "modal"}

type structural struct{}

// NewStructural checks document skeleton, template element ids, tag
// balance and bootstrap layout containers.
func NewStructural() Detector { return structural{} }

func (structural) Name() string { return string(Structural) }

func (structural) Detect(doc *Document, c Context) []Issue {
	var out []Issue
	add := func(sev Severity, loc string, line int, format string, args ...any) {
		out = append(out, Issue{Category: Structural, Severity: sev, Locator: loc, Line: line, Description: fmt.Sprintf(format, args...)})
	}
	for _, part := range []struct {
		tag string
		ok  bool
	}{{"html", doc.HasHTML}, {"head", doc.HasHead}, {"body", doc.HasBody}} {
		if !part.ok {
			add(Blocking, "<"+part.tag+">", 0, "document has no <%s> element", part.tag)
		}
	}
	if c.Template != nil {
		for _, id := range c.Template.RequiredIDs {
			if _, ok := doc.IDs[id]; !ok {
				add(Major, "#"+id, 0, "template element #%s is missing", id)
			}
		}
	}
	for _, te := range doc.TagErrors {
		if te.Stray {
			add(Major, "</"+te.Tag+">", te.Line, "closing </%s> has no matching open tag", te.Tag)
		} else {
			add(Major, "<"+te.Tag+">", te.Line, "<%s> is never closed", te.Tag)
		}
	}
	if usesBootstrap(doc) && !doc.Classes["container"] && !doc.Classes["container-fluid"] {
		add(Minor, ".container", 0, "bootstrap classes are used without a container or container-fluid wrapper")
	}
	return out
}

func usesBootstrap(doc *Document) bool {
	for class := range doc.Classes {
		for _, b := range bootstrapClasses {
			if class == b || (strings.HasSuffix(b, "-") && strings.HasPrefix(class, b)) || strings.HasPrefix(class, b+"-") {
				return true
			}
		}
	}
	return false
}
