package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// --------------------- api_probe ---------------------

const (
	probeBodyLimit   = 64 << 10
	probeSampleChars = 500
	shapeDepth       = 2
	shapeMaxKeys     = 10
	shapeMaxItems    = 3
)

type apiProbeTool struct{ client *http.Client }

func newAPIProbeTool(c *http.Client) *apiProbeTool { return &apiProbeTool{client: c} }

func (t *apiProbeTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        ToolAPIProbe,
		Description: "Probe an HTTP endpoint with GET or HEAD. Reports status, content type and a summary of the response shape.",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "url": {"type": "string", "pattern": "^https?://"},
    "method": {"type": "string", "enum": ["GET", "HEAD"]}
  },
  "required": ["url"],
  "additionalProperties": false
}`),
	}
}

type apiProbeInput struct {
	URL    string `json:"url"`
	Method string `json:"method"`
}

// ProbeObservation is the api_probe result payload.
type ProbeObservation struct {
	URL             string `json:"url"`
	Method          string `json:"method"`
	StatusCode      int    `json:"status_code"`
	Reachable       bool   `json:"reachable"`
	ContentType     string `json:"content_type,omitempty"`
	IsJSON          bool   `json:"is_json"`
	SampleStructure any    `json:"sample_structure,omitempty"`
	SampleBody      string `json:"sample_body,omitempty"`
	ReadError       string `json:"read_error,omitempty"`
	ElapsedMS       int64  `json:"elapsed_ms"`
}

func (t *apiProbeTool) Call(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var in apiProbeInput
	if err := json.Unmarshal(params, &in); err != nil {
		return nil, err
	}
	u, err := url.Parse(in.URL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("api_probe: invalid url %q", in.URL)
	}
	method := strings.ToUpper(in.Method)
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, in.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "llhtml-probe/1.0")
	req.Header.Set("Accept", "application/json, */*")

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api_probe: %w", err)
	}
	defer resp.Body.Close()
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, probeBodyLimit))

	obs := ProbeObservation{
		URL:         in.URL,
		Method:      method,
		StatusCode:  resp.StatusCode,
		Reachable:   resp.StatusCode < 400,
		ContentType: resp.Header.Get("Content-Type"),
		ElapsedMS:   time.Since(start).Milliseconds(),
	}
	if readErr != nil {
		// a truncated body is not evidence the endpoint works
		obs.Reachable = false
		obs.ReadError = readErr.Error()
	}
	if mt, _, err := mime.ParseMediaType(obs.ContentType); err == nil && strings.Contains(mt, "json") {
		obs.IsJSON = true
	}
	if len(body) > 0 {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err == nil {
			obs.IsJSON = true
			obs.SampleStructure = Shape(decoded, shapeDepth)
		}
		obs.SampleBody = truncate(string(body), probeSampleChars)
	}
	raw, merr := json.Marshal(obs)
	if merr != nil {
		return nil, merr
	}
	if readErr != nil {
		return raw, fmt.Errorf("api_probe: read %s: %w", in.URL, readErr)
	}
	if !obs.Reachable {
		return raw, fmt.Errorf("api_probe: %s returned http %d", in.URL, resp.StatusCode)
	}
	return raw, nil
}

// Shape summarises decoded JSON: objects keep their first keys (sorted),
// arrays report length and a few items, deeper levels collapse to type names.
func Shape(v any, depth int) any {
	if depth <= 0 {
		return typeName(v)
	}
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > shapeMaxKeys {
			keys = keys[:shapeMaxKeys]
		}
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			out[k] = Shape(x[k], depth-1)
		}
		return out
	case []any:
		items := make([]any, 0, shapeMaxItems)
		for i, it := range x {
			if i >= shapeMaxItems {
				break
			}
			items = append(items, Shape(it, depth-1))
		}
		return map[string]any{"type": "array", "length": len(x), "sample_items": items}
	default:
		return typeName(v)
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) && len(s) > 0 {
		s = s[:len(s)-1]
	}
	return s + "…"
}
