package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/batpad/ll-html/internal/catalog"
)

// --------------------- catalog_sampler ---------------------

type catalogSamplerTool struct{ lookup catalog.Lookup }

func newCatalogSamplerTool(l catalog.Lookup) *catalogSamplerTool {
	return &catalogSamplerTool{lookup: l}
}

func (t *catalogSamplerTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        ToolCatalogSampler,
		Description: "Fetch sample records, the property schema and the query pattern of a configured STAC catalog collection.",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "source": {"type": "string"},
    "collection": {"type": "string"},
    "bbox": {"type": "array", "items": {"type": "number"}, "minItems": 4, "maxItems": 4},
    "limit": {"type": "integer", "minimum": 1, "maximum": 20}
  },
  "anyOf": [{"required": ["collection"]}, {"required": ["source"]}],
  "additionalProperties": false
}`),
	}
}

func (t *catalogSamplerTool) Call(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	if t.lookup == nil {
		return nil, errors.New("catalog_sampler: no catalog configured")
	}
	var q catalog.SampleQuery
	if err := json.Unmarshal(params, &q); err != nil {
		return nil, err
	}
	s, err := t.lookup.Sample(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("catalog_sampler: %w", err)
	}
	return json.Marshal(s)
}
