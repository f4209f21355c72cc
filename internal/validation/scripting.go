package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// libraryGlobal is a symbol a CDN library defines. Markers are substrings
// of the script src that load it.
type libraryGlobal struct {
	Symbol  string
	Library string
	Markers []string
}

var libraryGlobals = []libraryGlobal{
	{"L", "Leaflet", []string{"leaflet"}},
	{"Chart", "Chart.js", []string{"chart.js", "chart.min.js", "chart.umd"}},
	{"bootstrap", "Bootstrap", []string{"bootstrap"}},
	{"$", "jQuery", []string{"jquery"}},
	{"jQuery", "jQuery", []string{"jquery"}},
	{"d3", "D3", []string{"d3.", "/d3@", "/d3/"}},
	{"mapboxgl", "Mapbox GL", []string{"mapbox-gl"}},
	{"ol", "OpenLayers", []string{"openlayers", "/ol@", "/ol/", "ol.js"}},
	{"Plotly", "Plotly", []string{"plotly"}},
	{"moment", "Moment", []string{"moment"}},
	{"axios", "Axios", []string{"axios"}},
	{"_", "Lodash", []string{"lodash", "underscore"}},
	{"google", "Google Maps", []string{"maps.googleapis.com"}},
	{"echarts", "ECharts", []string{"echarts"}},
}

// utilityNames are the helper functions the templates provide.
var utilityNames = []string{
	"addMarker", "centerMapOn", "clearMarkers", "createChart", "createMap",
	"hideLoading", "showError", "showLoading", "updateChart", "updateMetric",
}

var (
	fetchCall  = regexp.MustCompile(`\bfetch\s*\(`)
	chartNew   = regexp.MustCompile(`new\s+Chart\s*\(`)
	symbolUses = map[string]*regexp.Regexp{}
)

func init() {
	for _, g := range libraryGlobals {
		symbolUses[g.Symbol] = regexp.MustCompile(`(?:^|[^\w$.])` + regexp.QuoteMeta(g.Symbol) + `\s*[.(]`)
	}
}

type scripting struct{}

// NewScripting checks inline scripts for library globals that are never
// loaded, undefined helper calls, unbalanced delimiters, charts built
// without a canvas context and unguarded fetches.
func NewScripting() Detector { return scripting{} }

func (scripting) Name() string { return string(Scripting) }

func (scripting) Detect(doc *Document, c Context) []Issue {
	var out []Issue
	add := func(sev Severity, loc string, line int, format string, args ...any) {
		out = append(out, Issue{Category: Scripting, Severity: sev, Locator: loc, Line: line, Description: fmt.Sprintf(format, args...)})
	}

	type block struct {
		code string
		line int
	}
	var blocks []block
	var all strings.Builder
	for _, s := range doc.Scripts {
		if s.Src != "" || strings.TrimSpace(s.Text) == "" {
			continue
		}
		code := blank(s.Text, true)
		blocks = append(blocks, block{code, s.TextLine})
		all.WriteString(code)
		all.WriteString("\n")
	}
	code := all.String()
	srcs := strings.ToLower(strings.Join(doc.ScriptSources(), " "))

	for _, b := range blocks {
		if open, close, ok := balanced(b.code); !ok {
			add(Blocking, "script", b.line, "unbalanced %c%c in inline script", open, close)
		}
	}

	reported := map[string]bool{}
	for _, g := range libraryGlobals {
		if reported[g.Library] || loadedBy(srcs, g.Markers) || declares(code, g.Symbol) {
			continue
		}
		for _, b := range blocks {
			if loc := symbolUses[g.Symbol].FindStringIndex(b.code); loc != nil {
				add(Major, g.Symbol, lineAt(b.code, loc[0], b.line), "uses %s (%s) but the library is not loaded", g.Symbol, g.Library)
				reported[g.Library] = true
				break
			}
		}
	}

	names := utilityNames
	if c.Template != nil {
		names = mergeNames(names, c.Template.UtilityNames())
	}
	for _, name := range names {
		if declares(code, name) {
			continue
		}
		call := regexp.MustCompile(`(?:^|[^\w$.])` + regexp.QuoteMeta(name) + `\s*\(`)
		for _, b := range blocks {
			if loc := call.FindStringIndex(b.code); loc != nil {
				add(Major, name, lineAt(b.code, loc[0], b.line), "calls %s() but no such function is defined", name)
				break
			}
		}
	}

	if chartNew.MatchString(code) && !strings.Contains(code, "getContext") {
		add(Minor, "Chart", 0, "charts are created without a canvas getContext call")
	}
	if fetchCall.MatchString(code) && !strings.Contains(code, ".catch") && !regexp.MustCompile(`\btry\s*\{`).MatchString(code) {
		add(Minor, "fetch", 0, "fetch calls have no error handling")
	}
	return out
}

func loadedBy(srcs string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(srcs, m) {
			return true
		}
	}
	return false
}

// declares reports whether code binds name itself.
func declares(code, name string) bool {
	q := regexp.QuoteMeta(name)
	re := regexp.MustCompile(`(?:\b(?:var|let|const|function|class)\s+` + q + `(?:[^\w$]|$))|(?:window\.` + q + `\s*=)`)
	return re.MatchString(code)
}

// balanced checks () [] {} nesting on code with strings and comments blanked.
func balanced(code string) (rune, rune, bool) {
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	closing := map[rune]rune{'(': ')', '[': ']', '{': '}'}
	var stack []rune
	for _, r := range code {
		switch r {
		case '(', '[', '{':
			stack = append(stack, r)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return pairs[r], r, false
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return top, closing[top], false
	}
	return 0, 0, true
}

func mergeNames(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, n := range append(append([]string{}, a...), b...) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
