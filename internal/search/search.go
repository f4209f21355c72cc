// Package search holds the web-search back-ends used by the web_search tool.
package search

import (
	"context"
	"errors"
)

// Result is one ranked hit. Rank starts at 1.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Rank    int    `json:"rank"`
}

// Provider runs a query and returns at most limit results.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// ErrRateLimited is returned when the back-end refuses the query for rate reasons.
var ErrRateLimited = errors.New("search: rate limited")

func rank(results []Result, limit int) []Result {
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}
