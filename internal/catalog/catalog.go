// Package catalog is the catalog-lookup service: the configured data sources
// and a STAC sampler over them.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Kind of a data source.
type Kind string

const (
	KindSTAC Kind = "stac"
	KindREST Kind = "rest"
)

// Collection is one sampleable collection of a source.
type Collection struct {
	ID       string   `json:"id"`
	Title    string   `json:"title,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// DataSource is a configured, trusted data source.
type DataSource struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	Category      string       `json:"category,omitempty"`
	Kind          Kind         `json:"kind"`
	BaseURL       string       `json:"base_url"`
	SearchURL     string       `json:"search_url,omitempty"`
	Collections   []Collection `json:"collections,omitempty"`
	QueryPatterns []string     `json:"query_patterns,omitempty"`
	Context       string       `json:"context,omitempty"`
	Active        bool         `json:"active"`
	LastValidated time.Time    `json:"last_validated,omitempty"`
}

// Search returns the STAC item search endpoint.
func (d DataSource) Search() string {
	if d.SearchURL != "" {
		return d.SearchURL
	}
	return strings.TrimRight(d.BaseURL, "/") + "/search"
}

// HasCollection reports whether id is one of the source's collections.
func (d DataSource) HasCollection(id string) bool {
	for _, c := range d.Collections {
		if strings.EqualFold(c.ID, id) {
			return true
		}
	}
	return false
}

// Keywords gathers the words a request can match against.
func (d DataSource) Keywords() []string {
	out := []string{d.ID, d.Name, d.Description, d.Category, d.Context}
	for _, c := range d.Collections {
		out = append(out, c.ID, c.Title)
		out = append(out, c.Keywords...)
	}
	out = append(out, d.QueryPatterns...)
	return out
}

// SampleQuery asks for a few records of one collection.
type SampleQuery struct {
	SourceID   string    `json:"source,omitempty"`
	Collection string    `json:"collection"`
	BBox       []float64 `json:"bbox,omitempty"`
	Limit      int       `json:"limit,omitempty"`
}

// Record is a trimmed feature.
type Record struct {
	ID           string         `json:"id"`
	GeometryType string         `json:"geometry_type,omitempty"`
	Properties   map[string]any `json:"properties,omitempty"`
}

// Sample is the catalog's answer: records, schema and the query used.
type Sample struct {
	SourceID     string   `json:"source"`
	Collection   string   `json:"collection"`
	SearchURL    string   `json:"search_url"`
	RequestURL   string   `json:"request_url"`
	QueryPattern string   `json:"query_pattern,omitempty"`
	TotalFound   int      `json:"total_found"`
	Records      []Record `json:"sample_records"`
	Schema       []string `json:"schema"`
}

// Lookup is the interface the orchestrator queries.
type Lookup interface {
	Sources(ctx context.Context) ([]DataSource, error)
	Sample(ctx context.Context, q SampleQuery) (Sample, error)
}

// Service resolves sources from a Registry and samples them over STAC.
type Service struct {
	Registry *Registry
	Sampler  *STACSampler
}

func NewService(reg *Registry, sampler *STACSampler) *Service {
	if sampler == nil {
		sampler = NewSTACSampler(nil)
	}
	return &Service{Registry: reg, Sampler: sampler}
}

func (s *Service) Sources(ctx context.Context) ([]DataSource, error) {
	return s.Registry.Sources(ctx)
}

func (s *Service) Sample(ctx context.Context, q SampleQuery) (Sample, error) {
	var (
		src DataSource
		ok  bool
	)
	if q.SourceID != "" {
		src, ok = s.Registry.Get(q.SourceID)
	} else {
		src, ok = s.Registry.ByCollection(q.Collection)
	}
	if !ok {
		return Sample{}, fmt.Errorf("catalog: no configured source for source=%q collection=%q", q.SourceID, q.Collection)
	}
	if src.Kind != KindSTAC {
		return Sample{}, fmt.Errorf("catalog: source %s is not a STAC catalog", src.ID)
	}
	if q.Collection == "" && len(src.Collections) > 0 {
		q.Collection = src.Collections[0].ID
	}
	return s.Sampler.Sample(ctx, src, q)
}
