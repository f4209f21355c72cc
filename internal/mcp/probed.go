package mcp

import "encoding/json"

// ProbedURLs returns the URLs a successful invocation actually exercised:
// the probed URL for api_probe, and the search endpoint for catalog_sampler.
func ProbedURLs(inv Invocation) []string {
	if !inv.Succeeded() || len(inv.Observation) == 0 {
		return nil
	}
	switch inv.Tool {
	case ToolAPIProbe:
		var o ProbeObservation
		if json.Unmarshal(inv.Observation, &o) == nil && o.URL != "" {
			return []string{o.URL}
		}
	case ToolCatalogSampler:
		var o struct {
			SearchURL  string `json:"search_url"`
			RequestURL string `json:"request_url"`
		}
		if json.Unmarshal(inv.Observation, &o) == nil {
			var out []string
			for _, u := range []string{o.SearchURL, o.RequestURL} {
				if u != "" {
					out = append(out, u)
				}
			}
			return out
		}
	}
	return nil
}
