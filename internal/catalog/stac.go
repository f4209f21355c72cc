package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultSampleLimit = 5
	maxSampleLimit     = 20
	maxSampleRecords   = 3
	maxRecordProps     = 5
)

// STACSampler fetches a few items from a STAC item search endpoint.
type STACSampler struct {
	client *http.Client
}

func NewSTACSampler(client *http.Client) *STACSampler {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &STACSampler{client: client}
}

type featureCollection struct {
	Features []struct {
		ID       string `json:"id"`
		Geometry *struct {
			Type string `json:"type"`
		} `json:"geometry"`
		Properties map[string]any `json:"properties"`
	} `json:"features"`
	NumberMatched *int `json:"numberMatched"`
	Context       *struct {
		Matched *int `json:"matched"`
	} `json:"context"`
}

// Sample runs GET {search}?collections=&limit=&bbox= against src.
func (s *STACSampler) Sample(ctx context.Context, src DataSource, q SampleQuery) (Sample, error) {
	if q.Collection == "" {
		return Sample{}, fmt.Errorf("stac: collection is required")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSampleLimit
	}
	if limit > maxSampleLimit {
		limit = maxSampleLimit
	}
	if len(q.BBox) != 0 && len(q.BBox) != 4 {
		return Sample{}, fmt.Errorf("stac: bbox needs 4 numbers, got %d", len(q.BBox))
	}

	search := src.Search()
	params := url.Values{}
	params.Set("collections", q.Collection)
	params.Set("limit", strconv.Itoa(limit))
	if len(q.BBox) == 4 {
		parts := make([]string, 4)
		for i, v := range q.BBox {
			parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		params.Set("bbox", strings.Join(parts, ","))
	}
	reqURL := search + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Sample{}, err
	}
	req.Header.Set("Accept", "application/geo+json, application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return Sample{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Sample{}, fmt.Errorf("stac: %s returned http %d", search, resp.StatusCode)
	}
	var fc featureCollection
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&fc); err != nil {
		return Sample{}, fmt.Errorf("stac: decode response: %w", err)
	}

	out := Sample{
		SourceID:   src.ID,
		Collection: q.Collection,
		SearchURL:  search,
		RequestURL: reqURL,
		TotalFound: len(fc.Features),
	}
	switch {
	case fc.NumberMatched != nil:
		out.TotalFound = *fc.NumberMatched
	case fc.Context != nil && fc.Context.Matched != nil:
		out.TotalFound = *fc.Context.Matched
	}
	if len(src.QueryPatterns) > 0 {
		out.QueryPattern = src.QueryPatterns[0]
	}

	schema := map[string]bool{}
	for i, f := range fc.Features {
		keys := make([]string, 0, len(f.Properties))
		for k := range f.Properties {
			keys = append(keys, k)
			schema[k] = true
		}
		if i >= maxSampleRecords {
			continue
		}
		sort.Strings(keys)
		rec := Record{ID: f.ID, Properties: map[string]any{}}
		if f.Geometry != nil {
			rec.GeometryType = f.Geometry.Type
		}
		for j, k := range keys {
			if j >= maxRecordProps {
				break
			}
			rec.Properties[k] = f.Properties[k]
		}
		out.Records = append(out.Records, rec)
	}
	for k := range schema {
		out.Schema = append(out.Schema, k)
	}
	sort.Strings(out.Schema)
	return out, nil
}
