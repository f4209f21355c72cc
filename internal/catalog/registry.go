package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Registry is an in-memory, read-only set of data sources.
type Registry struct {
	sources []DataSource
}

func NewRegistry(sources ...DataSource) *Registry {
	cp := make([]DataSource, len(sources))
	copy(cp, sources)
	return &Registry{sources: cp}
}

type fileFormat struct {
	Sources []fileSource `koanf:"sources"`
}

type fileSource struct {
	ID            string           `koanf:"id"`
	Name          string           `koanf:"name"`
	Description   string           `koanf:"description"`
	Category      string           `koanf:"category"`
	Kind          string           `koanf:"kind"`
	BaseURL       string           `koanf:"base_url"`
	SearchURL     string           `koanf:"search_url"`
	Collections   []fileCollection `koanf:"collections"`
	QueryPatterns []string         `koanf:"query_patterns"`
	Context       string           `koanf:"context"`
	Active        *bool            `koanf:"active"`
	LastValidated string           `koanf:"last_validated"`
}

type fileCollection struct {
	ID       string   `koanf:"id"`
	Title    string   `koanf:"title"`
	Keywords []string `koanf:"keywords"`
}

// LoadFile reads a YAML sources file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML of the form `sources: [{id, name, kind, base_url, ...}]`.
func Parse(data []byte) (*Registry, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("catalog: parse sources: %w", err)
	}
	var f fileFormat
	if err := k.Unmarshal("", &f); err != nil {
		return nil, fmt.Errorf("catalog: decode sources: %w", err)
	}
	seen := map[string]bool{}
	out := make([]DataSource, 0, len(f.Sources))
	for i, s := range f.Sources {
		if strings.TrimSpace(s.ID) == "" {
			return nil, fmt.Errorf("catalog: source %d has no id", i)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("catalog: duplicate source id %q", s.ID)
		}
		seen[s.ID] = true
		kind := Kind(strings.ToLower(s.Kind))
		if kind == "" {
			kind = KindSTAC
		}
		if kind != KindSTAC && kind != KindREST {
			return nil, fmt.Errorf("catalog: source %q has unknown kind %q", s.ID, s.Kind)
		}
		if s.BaseURL == "" {
			return nil, fmt.Errorf("catalog: source %q has no base_url", s.ID)
		}
		ds := DataSource{
			ID:            s.ID,
			Name:          firstNonEmpty(s.Name, s.ID),
			Description:   s.Description,
			Category:      s.Category,
			Kind:          kind,
			BaseURL:       s.BaseURL,
			SearchURL:     s.SearchURL,
			QueryPatterns: s.QueryPatterns,
			Context:       s.Context,
			Active:        s.Active == nil || *s.Active,
		}
		for _, c := range s.Collections {
			ds.Collections = append(ds.Collections, Collection{ID: c.ID, Title: c.Title, Keywords: c.Keywords})
		}
		if s.LastValidated != "" {
			t, err := time.Parse(time.RFC3339, s.LastValidated)
			if err != nil {
				return nil, fmt.Errorf("catalog: source %q last_validated: %w", s.ID, err)
			}
			ds.LastValidated = t
		}
		out = append(out, ds)
	}
	return &Registry{sources: out}, nil
}

// Sources returns the active sources in file order.
func (r *Registry) Sources(context.Context) ([]DataSource, error) {
	out := make([]DataSource, 0, len(r.sources))
	for _, s := range r.sources {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

// All returns every source, inactive ones included.
func (r *Registry) All() []DataSource {
	out := make([]DataSource, len(r.sources))
	copy(out, r.sources)
	return out
}

func (r *Registry) Get(id string) (DataSource, bool) {
	for _, s := range r.sources {
		if s.Active && s.ID == id {
			return s, true
		}
	}
	return DataSource{}, false
}

// ByCollection finds the first active source that serves collection.
func (r *Registry) ByCollection(collection string) (DataSource, bool) {
	for _, s := range r.sources {
		if s.Active && s.HasCollection(collection) {
			return s, true
		}
	}
	return DataSource{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
