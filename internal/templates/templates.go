// Package templates holds the document templates the generator fills in:
// their preloaded libraries, utility functions and required element ids.
package templates

import (
	"fmt"
	"sort"
	"strings"
)

// Kind of template.
type Kind string

const (
	KindMap           Kind = "map"
	KindDashboard     Kind = "dashboard"
	KindComprehensive Kind = "comprehensive"
)

// ParseKind accepts a template kind name; "generic" is an alias of comprehensive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "map":
		return KindMap, nil
	case "dashboard":
		return KindDashboard, nil
	case "comprehensive", "generic", "":
		return KindComprehensive, nil
	}
	return "", fmt.Errorf("templates: unknown kind %q", s)
}

// Library is a preloaded front-end dependency.
type Library struct {
	Name string `json:"name"`
	// Family groups different URLs of the same library for duplicate checks.
	Family  string   `json:"family"`
	Globals []string `json:"globals,omitempty"`
	Scripts []string `json:"scripts,omitempty"`
	Styles  []string `json:"styles,omitempty"`
}

// Utility is a helper function defined by the template's own script.
type Utility struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Body      string `json:"-"`
}

// Template is one document skeleton.
type Template struct {
	Kind        Kind      `json:"kind"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Libraries   []Library `json:"libraries"`
	Utilities   []Utility `json:"utilities"`
	RequiredIDs []string  `json:"required_ids"`
	// Globals are script-level names the template itself declares.
	Globals []string `json:"globals,omitempty"`
	BaseCSS string   `json:"-"`
	// Layout is the body markup; it may reference .Title, .Description and .MainContent.
	Layout string `json:"-"`
	Init   string `json:"-"`
}

// LibraryGlobals lists the globals made available by the template's libraries.
func (t Template) LibraryGlobals() []string {
	var out []string
	for _, l := range t.Libraries {
		out = append(out, l.Globals...)
	}
	return out
}

// UtilityNames lists the utility function names.
func (t Template) UtilityNames() []string {
	out := make([]string, len(t.Utilities))
	for i, u := range t.Utilities {
		out[i] = u.Name
	}
	return out
}

// Scripts and Styles return the preloaded URLs in load order.
func (t Template) Scripts() []string {
	var out []string
	for _, l := range t.Libraries {
		out = append(out, l.Scripts...)
	}
	return out
}

func (t Template) Styles() []string {
	var out []string
	for _, l := range t.Libraries {
		out = append(out, l.Styles...)
	}
	return out
}

// UtilitySource is the JavaScript defining every utility.
func (t Template) UtilitySource() string {
	var b strings.Builder
	for _, u := range t.Utilities {
		b.WriteString(strings.TrimSpace(u.Body))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Catalog is a read-only set of templates keyed by kind.
type Catalog struct {
	byKind map[Kind]Template
}

// NewCatalog builds a catalog; later templates replace earlier ones of the same kind.
func NewCatalog(ts ...Template) *Catalog {
	c := &Catalog{byKind: make(map[Kind]Template, len(ts))}
	for _, t := range ts {
		c.byKind[t.Kind] = t
	}
	return c
}

// Default returns the built-in map, dashboard and comprehensive templates.
func Default() *Catalog {
	return NewCatalog(mapTemplate(), dashboardTemplate(), comprehensiveTemplate())
}

// Get returns the template for k, falling back to comprehensive.
func (c *Catalog) Get(k Kind) (Template, bool) {
	if t, ok := c.byKind[k]; ok {
		return t, true
	}
	t, ok := c.byKind[KindComprehensive]
	return t, ok
}

func (c *Catalog) Kinds() []Kind {
	out := make([]Kind, 0, len(c.byKind))
	for k := range c.byKind {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var (
	mapWords       = []string{"map", "maps", "geographic", "geospatial", "location", "locations", "spatial", "gis", "coordinates", "choropleth", "heatmap", "leaflet"}
	dashboardWords = []string{"dashboard", "chart", "charts", "graph", "graphs", "metrics", "statistics", "stats", "trend", "trends", "kpi", "plot", "timeline"}
)

// Classify picks a template kind from the request text. Map wins when both
// map and dashboard words appear.
func Classify(request string) Kind {
	words := strings.FieldsFunc(strings.ToLower(request), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	has := func(set []string) bool {
		for _, w := range words {
			for _, s := range set {
				if w == s {
					return true
				}
			}
		}
		return false
	}
	switch {
	case has(mapWords):
		return KindMap
	case has(dashboardWords):
		return KindDashboard
	default:
		return KindComprehensive
	}
}
