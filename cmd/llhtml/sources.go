package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/batpad/ll-html/internal/catalog"
	"github.com/batpad/ll-html/internal/config"
)

var sourcesFile string

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured data sources",
	Long: `List the data sources and collections research consults first.

Examples:
  llhtml sources
  llhtml sources --file configs/sources.yaml`,
	Args: cobra.NoArgs,
	RunE: runSources,
}

func init() {
	sourcesCmd.Flags().StringVarP(&sourcesFile, "file", "f", "", "sources file (default CATALOG_SOURCES_FILE)")
}

func runSources(cmd *cobra.Command, _ []string) error {
	path := sourcesFile
	if path == "" {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		path = cfg.Catalog.SourcesFile
	}
	reg, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tACTIVE\tCOLLECTIONS\tSEARCH")
	for _, src := range reg.All() {
		ids := make([]string, 0, len(src.Collections))
		for _, c := range src.Collections {
			ids = append(ids, c.ID)
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", src.ID, src.Kind, src.Active, strings.Join(ids, ","), src.Search())
	}
	return w.Flush()
}
