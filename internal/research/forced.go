package research

import (
	"encoding/json"

	"github.com/batpad/ll-html/internal/llmtool"
	"github.com/batpad/ll-html/internal/mcp"
)

// forced picks the next tool call without the model. The order is fixed:
// an unsampled configured collection, then an unprobed candidate URL, then a
// web search, then the top candidate again.
func (o *Orchestrator) forced(r *run, why string) llmtool.ActionEnvelope {
	o.log.Info().Str("why", why).Int("iteration", r.rc.Iterations).Msg("forcing research action")
	req := r.rc.Request
	tool := func(name string, params map[string]any) llmtool.ActionEnvelope {
		b, _ := json.Marshal(params)
		return llmtool.ActionEnvelope{Action: llmtool.ActionTool, Tool: name, Params: b, Reasoning: "forced: " + why}
	}

	sampler := o.tools.Has(mcp.ToolCatalogSampler)
	if sampler {
		for _, d := range r.rc.Sources {
			src, ok := r.configured[d.ID]
			if d.Tier != TierConfigured || !ok {
				continue
			}
			for _, col := range bestCollections(src, req) {
				if !r.attempted["sample:"+col] {
					return tool(mcp.ToolCatalogSampler, map[string]any{"source": src.ID, "collection": col, "limit": 5})
				}
			}
		}
	}
	if o.tools.Has(mcp.ToolAPIProbe) {
		for _, d := range r.rc.Sources {
			if d.URL != "" && !r.attempted["probe:"+d.URL] {
				return tool(mcp.ToolAPIProbe, map[string]any{"url": d.URL, "method": "GET"})
			}
		}
	}
	if o.tools.Has(mcp.ToolWebSearch) {
		for _, q := range []string{req, req + " open data API", req + " GeoJSON API"} {
			if !r.attempted["search:"+q] {
				return tool(mcp.ToolWebSearch, map[string]any{"query": q})
			}
		}
	}
	if sampler {
		for _, d := range r.rc.Sources {
			if src, ok := r.configured[d.ID]; ok {
				params := map[string]any{"source": src.ID}
				if cols := bestCollections(src, req); len(cols) > 0 {
					params["collection"] = cols[0]
				}
				return tool(mcp.ToolCatalogSampler, params)
			}
		}
	}
	if specs := o.tools.Specs(); len(specs) > 0 {
		return tool(specs[0].Name, map[string]any{})
	}
	return tool(mcp.ToolCatalogSampler, map[string]any{})
}
