package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/batpad/ll-html/internal/catalog"
	"github.com/batpad/ll-html/internal/config"
	"github.com/batpad/ll-html/internal/llm/provider"
	"github.com/batpad/ll-html/internal/mcp"
	"github.com/batpad/ll-html/internal/metrics"
	"github.com/batpad/ll-html/internal/search"
	"github.com/batpad/ll-html/internal/store"
)

// FromConfig wires the provider, catalog, search back-end, tool registry
// and store named by cfg. The returned close function releases them.
func FromConfig(ctx context.Context, cfg config.Config, log zerolog.Logger, rec *metrics.Recorder) (Deps, func(), error) {
	model, err := provider.New(ctx, cfg.Model, log)
	if err != nil {
		return Deps{}, nil, err
	}

	reg, err := loadSources(cfg.Catalog.SourcesFile, log)
	if err != nil {
		model.Close()
		return Deps{}, nil, err
	}
	httpClient := &http.Client{Timeout: cfg.Limits.ToolTimeout + 5*time.Second}
	lookup := catalog.NewService(reg, catalog.NewSTACSampler(httpClient))

	var searcher search.Provider
	switch cfg.Search.Provider {
	case "tavily":
		searcher = search.NewTavily(cfg.Search.TavilyKey, httpClient)
	default:
		searcher = search.NewDuckDuckGo(httpClient)
	}

	tools := mcp.NewRegistry(mcp.WithLogger(log))
	err = mcp.RegisterDefaultTools(tools, mcp.Host{
		Search:  searcher,
		Catalog: lookup,
		HTTP:    httpClient,
		Features: mcp.Features{
			WebSearch:     cfg.Features.WebSearch,
			APIValidation: cfg.Features.APIValidation,
		},
	})
	if err != nil {
		model.Close()
		return Deps{}, nil, fmt.Errorf("pipeline: register tools: %w", err)
	}

	st, closeStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		model.Close()
		return Deps{}, nil, err
	}

	deps := Deps{
		Model:   model,
		Tools:   tools,
		Lookup:  lookup,
		Store:   st,
		Logger:  log,
		Metrics: rec,
	}
	closeAll := func() {
		closeStore()
		if err := model.Close(); err != nil {
			log.Warn().Err(err).Msg("closing model client")
		}
	}
	return deps, closeAll, nil
}

// loadSources reads the data-source file. A missing file means no
// configured sources; research then relies on discovery.
func loadSources(path string, log zerolog.Logger) (*catalog.Registry, error) {
	if path == "" {
		return catalog.NewRegistry(), nil
	}
	reg, err := catalog.LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("file", path).Msg("data source file not found, no configured sources")
		return catalog.NewRegistry(), nil
	}
	return reg, err
}
