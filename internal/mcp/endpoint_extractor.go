package mcp

import (
	"context"
	"encoding/json"

	"github.com/batpad/ll-html/internal/endpoints"
)

// --------------------- endpoint_extractor ---------------------

type endpointExtractorTool struct{}

func newEndpointExtractorTool() *endpointExtractorTool { return &endpointExtractorTool{} }

func (t *endpointExtractorTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        ToolEndpointExtractor,
		Description: "List the data URLs referenced by HTML or JavaScript text (fetch, axios, XHR, URL constants, STAC searches).",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {"text": {"type": "string"}},
  "required": ["text"],
  "additionalProperties": false
}`),
	}
}

// ExtractObservation is the endpoint_extractor result payload.
type ExtractObservation struct {
	Count int                  `json:"count"`
	URLs  []endpoints.Endpoint `json:"urls"`
}

func (t *endpointExtractorTool) Call(_ context.Context, params json.RawMessage) (json.RawMessage, error) {
	var in struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return nil, err
	}
	urls := endpoints.Extract(in.Text)
	if urls == nil {
		urls = []endpoints.Endpoint{}
	}
	return json.Marshal(ExtractObservation{Count: len(urls), URLs: urls})
}
