package research

import (
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/batpad/ll-html/internal/catalog"
	"github.com/batpad/ll-html/internal/search"
)

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "show": true, "create": true,
	"make": true, "build": true, "that": true, "from": true, "this": true, "into": true,
	"all": true, "data": true, "web": true, "page": true, "app": true, "please": true,
}

// Terms splits text into lower-case words of three or more letters, minus
// common filler words. A trailing "s" is dropped so plurals match.
func Terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := map[string]bool{}
	var out []string
	for _, f := range fields {
		if stopwords[f] {
			continue
		}
		if len(f) > 3 && strings.HasSuffix(f, "s") {
			f = strings.TrimSuffix(f, "s")
		}
		if len(f) < 3 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// Relevance is the share of request terms found in text, in [0,1].
func Relevance(request, text string) float64 {
	want := Terms(request)
	if len(want) == 0 {
		return 0
	}
	have := map[string]bool{}
	for _, t := range Terms(text) {
		have[t] = true
	}
	hits := 0
	for _, t := range want {
		if have[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}

// Configured turns catalog sources into descriptors.
func Configured(sources []catalog.DataSource) []SourceDescriptor {
	out := make([]SourceDescriptor, 0, len(sources))
	for i, s := range sources {
		cols := make([]string, 0, len(s.Collections))
		for _, c := range s.Collections {
			cols = append(cols, c.ID)
		}
		pattern := ""
		if len(s.QueryPatterns) > 0 {
			pattern = s.QueryPatterns[0]
		}
		text := strings.Join(s.Keywords(), " ")
		out = append(out, SourceDescriptor{
			ID:            s.ID,
			Name:          s.Name,
			Tier:          TierConfigured,
			URL:           s.Search(),
			QueryPattern:  pattern,
			Collections:   cols,
			LastValidated: s.LastValidated,
			Notes:         s.Context,
			text:          text,
			order:         i,
		})
	}
	return out
}

// External builds a descriptor for a discovered search hit.
func External(r search.Result, order int) SourceDescriptor {
	return SourceDescriptor{
		ID:    externalID(r.URL),
		Name:  r.Title,
		Tier:  TierExternal,
		URL:   r.URL,
		Notes: r.Snippet,
		text:  r.Title + " " + r.Snippet + " " + r.URL,
		order: order,
	}
}

func externalID(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimSuffix(u.Host+u.Path, "/")
}

// Prioritize scores sources against the request and orders them: configured
// before external; configured by relevance, then most recent validation, then
// ID; external by relevance, then discovery order. The input is not modified.
func Prioritize(sources []SourceDescriptor, request string) []SourceDescriptor {
	out := make([]SourceDescriptor, len(sources))
	copy(out, sources)
	for i := range out {
		text := out[i].text
		if text == "" {
			text = out[i].ID + " " + out[i].Name + " " + out[i].QueryPattern + " " + strings.Join(out[i].Collections, " ")
		}
		out[i].Relevance = Relevance(request, text)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Tier != b.Tier {
			return a.Tier == TierConfigured
		}
		if a.Relevance != b.Relevance {
			return a.Relevance > b.Relevance
		}
		if a.Tier == TierConfigured {
			if !a.LastValidated.Equal(b.LastValidated) {
				return a.LastValidated.After(b.LastValidated)
			}
			return a.ID < b.ID
		}
		return a.order < b.order
	})
	return out
}

// bestCollections orders a source's collections by relevance to the request.
func bestCollections(src catalog.DataSource, request string) []string {
	type scored struct {
		id    string
		score float64
		i     int
	}
	list := make([]scored, 0, len(src.Collections))
	for i, c := range src.Collections {
		list = append(list, scored{c.ID, Relevance(request, c.ID+" "+c.Title+" "+strings.Join(c.Keywords, " ")), i})
	}
	sort.SliceStable(list, func(a, b int) bool { return list[a].score > list[b].score })
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.id
	}
	return out
}
