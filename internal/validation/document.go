package validation

import (
	"strings"

	"golang.org/x/net/html"
)

// Script is one <script> element. TextLine is the line its body starts on.
type Script struct {
	Src      string
	Text     string
	Line     int
	TextLine int
}

// Link is one stylesheet reference.
type Link struct {
	Href string
	Line int
}

// TagError is an unclosed element or a stray end tag.
type TagError struct {
	Tag   string
	Line  int
	Stray bool
}

// Document is the tokenised view of an artifact the detectors share.
type Document struct {
	Text                     string
	HasHTML, HasHead, HasBody bool
	// IDs maps element id to the line of its first occurrence.
	IDs         map[string]int
	Classes     map[string]bool
	Scripts     []Script
	Stylesheets []Link
	TagErrors   []TagError
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// Elements whose end tag may be omitted.
var optionalEnd = map[string]bool{
	"p": true, "li": true, "dt": true, "dd": true, "tr": true, "td": true, "th": true,
	"thead": true, "tbody": true, "tfoot": true, "option": true, "html": true, "head": true, "body": true,
}

type open struct {
	tag  string
	line int
}

// Parse tokenises text. It never fails; malformed markup shows up as TagErrors.
func Parse(text string) *Document {
	doc := &Document{Text: text, IDs: map[string]int{}, Classes: map[string]bool{}}
	z := html.NewTokenizer(strings.NewReader(text))
	line := 1
	var stack []open
	var inScript *Script

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := z.Raw()
		at := line
		line += strings.Count(string(raw), "\n")

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			t := z.Token()
			name := t.Data
			doc.noteElement(t, at)
			switch name {
			case "html":
				doc.HasHTML = true
			case "head":
				doc.HasHead = true
			case "body":
				doc.HasBody = true
			case "script":
				s := Script{Src: attr(t, "src"), Line: at}
				doc.Scripts = append(doc.Scripts, s)
				inScript = &doc.Scripts[len(doc.Scripts)-1]
			case "link":
				if strings.Contains(strings.ToLower(attr(t, "rel")), "stylesheet") {
					doc.Stylesheets = append(doc.Stylesheets, Link{Href: attr(t, "href"), Line: at})
				}
			}
			if tt == html.StartTagToken && !voidElements[name] {
				stack = append(stack, open{name, at})
			}
			if tt == html.SelfClosingTagToken && name == "script" {
				inScript = nil
			}
		case html.TextToken:
			if inScript != nil {
				if inScript.Text == "" {
					inScript.TextLine = at
				}
				inScript.Text += string(raw)
			}
		case html.EndTagToken:
			t := z.Token()
			if t.Data == "script" {
				inScript = nil
			}
			stack = doc.close(stack, t.Data, at)
		}
	}
	for _, o := range stack {
		if !optionalEnd[o.tag] {
			doc.TagErrors = append(doc.TagErrors, TagError{Tag: o.tag, Line: o.line})
		}
	}
	return doc
}

func (doc *Document) noteElement(t html.Token, line int) {
	if id := attr(t, "id"); id != "" {
		if _, seen := doc.IDs[id]; !seen {
			doc.IDs[id] = line
		}
	}
	for _, c := range strings.Fields(attr(t, "class")) {
		doc.Classes[c] = true
	}
}

// close pops to the matching start tag. Elements skipped on the way are
// reported as unclosed; an end tag with no open match is stray.
func (doc *Document) close(stack []open, tag string, line int) []open {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].tag != tag {
			continue
		}
		for _, o := range stack[i+1:] {
			if !optionalEnd[o.tag] {
				doc.TagErrors = append(doc.TagErrors, TagError{Tag: o.tag, Line: o.line})
			}
		}
		return stack[:i]
	}
	if !voidElements[tag] {
		doc.TagErrors = append(doc.TagErrors, TagError{Tag: tag, Line: line, Stray: true})
	}
	return stack
}

func attr(t html.Token, key string) string {
	for _, a := range t.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// InlineScript joins the text of every inline script.
func (doc *Document) InlineScript() string {
	var b strings.Builder
	for _, s := range doc.Scripts {
		if s.Src == "" {
			b.WriteString(s.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ScriptSources lists every external script src.
func (doc *Document) ScriptSources() []string {
	var out []string
	for _, s := range doc.Scripts {
		if s.Src != "" {
			out = append(out, s.Src)
		}
	}
	return out
}
