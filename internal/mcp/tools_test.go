package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/batpad/ll-html/internal/catalog"
	"github.com/batpad/ll-html/internal/search"
)

type fakeSearch struct {
	results []search.Result
	err     error
	limit   int
}

func (f *fakeSearch) Search(_ context.Context, _ string, limit int) ([]search.Result, error) {
	f.limit = limit
	return f.results, f.err
}

type fakeLookup struct {
	sample catalog.Sample
	err    error
}

func (f fakeLookup) Sources(context.Context) ([]catalog.DataSource, error) { return nil, nil }
func (f fakeLookup) Sample(context.Context, catalog.SampleQuery) (catalog.Sample, error) {
	return f.sample, f.err
}

func newHost(t *testing.T, h Host) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := RegisterDefaultTools(r, h); err != nil {
		t.Fatalf("register: %v", err)
	}
	return r
}

func TestFeatureFlagsGateTools(t *testing.T) {
	r := newHost(t, Host{Search: &fakeSearch{}, Catalog: fakeLookup{}})
	if r.Has(ToolWebSearch) || r.Has(ToolAPIProbe) {
		t.Fatalf("optional tools registered without features")
	}
	if !r.Has(ToolCatalogSampler) || !r.Has(ToolEndpointExtractor) {
		t.Fatalf("core tools missing")
	}
}

func TestWebSearchTool(t *testing.T) {
	fs := &fakeSearch{results: []search.Result{{Title: "GDACS", URL: "https://gdacs.org", Rank: 1}}}
	r := newHost(t, Host{Search: fs, Features: Features{WebSearch: true}})
	inv := r.Invoke(context.Background(), ToolWebSearch, json.RawMessage(`{"query":"flood data"}`), time.Second)
	if !inv.Succeeded() {
		t.Fatalf("web_search failed: %s", inv.Error)
	}
	if fs.limit != 5 {
		t.Fatalf("default limit = %d", fs.limit)
	}
	var obs WebSearchObservation
	if err := json.Unmarshal(inv.Observation, &obs); err != nil || len(obs.Results) != 1 {
		t.Fatalf("observation: %s (%v)", inv.Observation, err)
	}

	fs.results = nil
	if inv := r.Invoke(context.Background(), ToolWebSearch, json.RawMessage(`{"query":"x"}`), time.Second); inv.Succeeded() {
		t.Fatalf("zero results should fail")
	}
	if inv := r.Invoke(context.Background(), ToolWebSearch, json.RawMessage(`{"query":"x","limit":50}`), time.Second); inv.Succeeded() {
		t.Fatalf("limit above maximum should fail validation")
	}
}

func TestAPIProbeTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.Error(w, "nope", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[{"id":"a"},{"id":"b"}],"type":"FeatureCollection"}`))
	}))
	defer srv.Close()

	r := newHost(t, Host{HTTP: srv.Client(), Features: Features{APIValidation: true}})
	inv := r.Invoke(context.Background(), ToolAPIProbe, json.RawMessage(`{"url":"`+srv.URL+`/items"}`), time.Second)
	if !inv.Succeeded() {
		t.Fatalf("probe failed: %s", inv.Error)
	}
	var obs ProbeObservation
	_ = json.Unmarshal(inv.Observation, &obs)
	if obs.StatusCode != 200 || !obs.IsJSON || !obs.Reachable {
		t.Fatalf("observation: %+v", obs)
	}
	shape, ok := obs.SampleStructure.(map[string]any)
	if !ok || shape["type"] != "string" {
		t.Fatalf("shape: %#v", obs.SampleStructure)
	}
	if got := ProbedURLs(inv); len(got) != 1 || got[0] != srv.URL+"/items" {
		t.Fatalf("probed urls: %v", got)
	}

	inv = r.Invoke(context.Background(), ToolAPIProbe, json.RawMessage(`{"url":"`+srv.URL+`/missing"}`), time.Second)
	if inv.Succeeded() {
		t.Fatalf("404 should fail")
	}
	if err := json.Unmarshal(inv.Observation, &obs); err != nil || obs.StatusCode != 404 {
		t.Fatalf("kept observation: %s", inv.Observation)
	}
	if ProbedURLs(inv) != nil {
		t.Fatalf("failed probe must not count as probed")
	}
}

func TestAPIProbeTruncatedBodyFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", "4096")
		_, _ = w.Write([]byte(`{"features":[{"id":"a"}`))
	}))
	defer srv.Close()

	r := newHost(t, Host{HTTP: srv.Client(), Features: Features{APIValidation: true}})
	inv := r.Invoke(context.Background(), ToolAPIProbe, json.RawMessage(`{"url":"`+srv.URL+`/items"}`), time.Second)
	if inv.Succeeded() {
		t.Fatalf("truncated body should fail the probe")
	}
	var obs ProbeObservation
	if err := json.Unmarshal(inv.Observation, &obs); err != nil {
		t.Fatalf("kept observation: %s", inv.Observation)
	}
	if obs.Reachable || obs.ReadError == "" || obs.StatusCode != 200 {
		t.Fatalf("observation: %+v", obs)
	}
	if ProbedURLs(inv) != nil {
		t.Fatalf("truncated probe must not count as probed")
	}
}

func TestCatalogSamplerTool(t *testing.T) {
	sample := catalog.Sample{SourceID: "montandon", Collection: "gdacs-events", SearchURL: "https://stac.example/search", TotalFound: 3}
	r := newHost(t, Host{Catalog: fakeLookup{sample: sample}})
	inv := r.Invoke(context.Background(), ToolCatalogSampler, json.RawMessage(`{"collection":"gdacs-events","limit":3}`), time.Second)
	if !inv.Succeeded() {
		t.Fatalf("sampler failed: %s", inv.Error)
	}
	if got := ProbedURLs(inv); len(got) != 1 || got[0] != sample.SearchURL {
		t.Fatalf("probed urls: %v", got)
	}

	r = newHost(t, Host{Catalog: fakeLookup{err: errors.New("unknown collection")}})
	if inv := r.Invoke(context.Background(), ToolCatalogSampler, json.RawMessage(`{"collection":"x"}`), time.Second); inv.Succeeded() {
		t.Fatalf("expected failure")
	}
}

func TestEndpointExtractorTool(t *testing.T) {
	r := newHost(t, Host{})
	text := `fetch("https://api.example.org/v1/events.json").then(r => r.json())`
	inv := r.Invoke(context.Background(), ToolEndpointExtractor, json.RawMessage(`{"text":`+quote(text)+`}`), time.Second)
	if !inv.Succeeded() {
		t.Fatalf("extract failed: %s", inv.Error)
	}
	var obs ExtractObservation
	_ = json.Unmarshal(inv.Observation, &obs)
	if obs.Count != 1 || obs.URLs[0].URL != "https://api.example.org/v1/events.json" {
		t.Fatalf("observation: %+v", obs)
	}
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
