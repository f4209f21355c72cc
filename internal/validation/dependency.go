package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var families = []struct {
	name    string
	markers []string
}{
	{"leaflet", []string{"leaflet"}},
	{"chart.js", []string{"chart.js", "chart.min.js", "chart.umd"}},
	{"bootstrap", []string{"bootstrap"}},
	{"font-awesome", []string{"font-awesome", "fontawesome"}},
	{"jquery", []string{"jquery"}},
	{"d3", []string{"/d3@", "/d3/", "d3.min.js", "d3.v"}},
}

var (
	idRefs = []*regexp.Regexp{
		regexp.MustCompile(`getElementById\(\s*['"]([^'"]+)['"]\s*\)`),
		regexp.MustCompile(`\bL\.map\(\s*['"]([^'"]+)['"]`),
		regexp.MustCompile(`querySelector(?:All)?\(\s*['"]#([\w-]+)`),
		regexp.MustCompile(`\$\(\s*['"]#([\w-]+)`),
		regexp.MustCompile(`\b(?:createMap|createChart)\(\s*['"]([^'"]+)['"]`),
	}
	scriptIDs = []*regexp.Regexp{
		regexp.MustCompile(`\bid\s*=\s*\\?["']([\w-]+)`),
		regexp.MustCompile(`\.id\s*=\s*['"]([\w-]+)['"]`),
	}
)

type dependency struct{}

// NewDependency checks for libraries imported twice and for scripts that
// look up element ids the markup never defines.
func NewDependency() Detector { return dependency{} }

func (dependency) Name() string { return string(Dependency) }

func (dependency) Detect(doc *Document, _ Context) []Issue {
	var out []Issue
	add := func(loc string, line int, format string, args ...any) {
		out = append(out, Issue{Category: Dependency, Severity: Major, Locator: loc, Line: line, Description: fmt.Sprintf(format, args...)})
	}

	type ref struct {
		url  string
		line int
	}
	var scripts, styles []ref
	for _, s := range doc.Scripts {
		if s.Src != "" {
			scripts = append(scripts, ref{s.Src, s.Line})
		}
	}
	for _, l := range doc.Stylesheets {
		styles = append(styles, ref{l.Href, l.Line})
	}
	for _, group := range []struct {
		what string
		refs []ref
	}{{"script", scripts}, {"stylesheet", styles}} {
		first := map[string]string{}
		for _, r := range group.refs {
			fam := family(r.url)
			if fam == "" {
				continue
			}
			if prev, dup := first[fam]; dup {
				add(r.url, r.line, "%s %s is imported more than once (first from %s)", fam, group.what, prev)
				continue
			}
			first[fam] = r.url
		}
	}

	defined := map[string]bool{}
	for id := range doc.IDs {
		defined[id] = true
	}
	for _, s := range doc.Scripts {
		code := blank(s.Text, false)
		for _, re := range scriptIDs {
			for _, m := range re.FindAllStringSubmatch(code, -1) {
				defined[m[1]] = true
			}
		}
	}
	reported := map[string]bool{}
	for _, s := range doc.Scripts {
		if s.Src != "" {
			continue
		}
		code := blank(s.Text, false)
		for _, re := range idRefs {
			for _, m := range re.FindAllStringSubmatchIndex(code, -1) {
				id := code[m[2]:m[3]]
				if defined[id] || reported[id] {
					continue
				}
				reported[id] = true
				add("#"+id, lineAt(code, m[0], s.TextLine), "script references element #%s which is not in the markup", id)
			}
		}
	}
	return out
}

func family(u string) string {
	lower := strings.ToLower(u)
	for _, f := range families {
		for _, m := range f.markers {
			if strings.Contains(lower, m) {
				return f.name
			}
		}
	}
	return ""
}
