package mcp

import (
	"net/http"
	"time"

	"github.com/batpad/ll-html/internal/catalog"
	"github.com/batpad/ll-html/internal/search"
)

// Stable tool identifiers.
const (
	ToolWebSearch         = "web_search"
	ToolAPIProbe          = "api_probe"
	ToolCatalogSampler    = "catalog_sampler"
	ToolEndpointExtractor = "endpoint_extractor"
)

// Features toggles optional tools.
type Features struct {
	WebSearch     bool
	APIValidation bool
}

// Host wires the external back-ends used by tools.
type Host struct {
	Search   search.Provider
	Catalog  catalog.Lookup
	HTTP     *http.Client
	Features Features
}

// RegisterDefaultTools installs the tool set allowed by h.Features. The
// catalog sampler and the endpoint extractor are always available.
func RegisterDefaultTools(r *Registry, h Host) error {
	client := h.HTTP
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	tools := []Tool{
		newCatalogSamplerTool(h.Catalog),
		newEndpointExtractorTool(),
	}
	if h.Features.WebSearch && h.Search != nil {
		tools = append(tools, newWebSearchTool(h.Search))
	}
	if h.Features.APIValidation {
		tools = append(tools, newAPIProbeTool(client))
	}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}
