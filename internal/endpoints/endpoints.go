// Package endpoints finds the data URLs a generated page will call.
package endpoints

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// Endpoint is one referenced URL. Line is 1-based in the scanned text.
type Endpoint struct {
	URL  string `json:"url"`
	Line int    `json:"line"`
	Kind string `json:"kind"`
}

type pattern struct {
	kind string
	re   *regexp.Regexp
}

var patterns = []pattern{
	{"fetch", regexp.MustCompile("(?i)fetch\\s*\\(\\s*['\"]([^'\"]+)['\"]")},
	{"fetch", regexp.MustCompile("(?i)fetch\\s*\\(\\s*`([^`]+)`")},
	{"axios", regexp.MustCompile("(?i)axios(?:\\.(?:get|post|put|delete))?\\s*\\(\\s*['\"`]([^'\"`]+)['\"`]")},
	{"xhr", regexp.MustCompile("(?i)\\.open\\s*\\(\\s*['\"][^'\"]*['\"]\\s*,\\s*['\"`]([^'\"`]+)['\"`]")},
	{"assignment", regexp.MustCompile("(?i)(?:const|let|var)\\s+[A-Za-z_$][\\w$]*\\s*=\\s*['\"`]([^'\"`]*(?:api|search|endpoint|stac|data|service)[^'\"`]*)['\"`]")},
	{"stac", regexp.MustCompile("(?i)['\"`]([^'\"`\\s]*stac[^'\"`\\s]*search[^'\"`\\s]*)['\"`]")},
	{"stac", regexp.MustCompile("(?i)['\"`]([^'\"`\\s]*search[^'\"`\\s]*collections[^'\"`\\s]*)['\"`]")},
}

var indicators = []string{"api", "search", "endpoint", "data", "service", "stac"}

// Extract returns the distinct URLs referenced by fetch/axios/XHR calls,
// URL-like assignments and STAC search literals, ordered by first line.
func Extract(text string) []Endpoint {
	seen := map[string]int{}
	var out []Endpoint
	for _, p := range patterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			raw := strings.TrimSpace(text[m[2]:m[3]])
			if !likelyURL(raw) {
				continue
			}
			line := strings.Count(text[:m[0]], "\n") + 1
			if i, ok := seen[raw]; ok {
				if line < out[i].Line {
					out[i].Line = line
				}
				continue
			}
			seen[raw] = len(out)
			out = append(out, Endpoint{URL: raw, Line: line, Kind: p.kind})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

func likelyURL(s string) bool {
	if len(s) < 4 {
		return false
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") && !strings.HasPrefix(s, "/") {
		return false
	}
	if strings.HasPrefix(s, "//") && !strings.Contains(s, ".") {
		return false
	}
	lower := strings.ToLower(s)
	for _, ind := range indicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

// Normalize drops the query, fragment, template placeholders and trailing
// slash, and lowercases scheme and host.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	for _, cut := range []string{"${", "?", "#"} {
		if i := strings.Index(s, cut); i >= 0 {
			s = s[:i]
		}
	}
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		u.Scheme = strings.ToLower(u.Scheme)
		u.Host = strings.ToLower(u.Host)
		s = u.String()
	}
	return strings.TrimRight(s, "/")
}

// Covered reports whether raw equals, or lies under, one of the probed URLs.
func Covered(raw string, probed []string) bool {
	n := Normalize(raw)
	if n == "" {
		return false
	}
	for _, p := range probed {
		np := Normalize(p)
		if np == "" {
			continue
		}
		if n == np || strings.HasPrefix(n, np+"/") {
			return true
		}
	}
	return false
}
