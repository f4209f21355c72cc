// Package main implements the llhtml CLI: generate a validated HTML page
// from a natural-language request, validate an existing page, or list the
// configured data sources.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// envFile is an optional dotenv file loaded before the environment
	envFile string
	version = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "llhtml",
	Short: "Research data sources and generate validated HTML pages",
	Long: `llhtml turns a request such as "earthquake map" into a single HTML page.
It researches the configured data catalogs, generates the page from a template
and repairs it until validation passes or the repair rounds run out.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "dotenv file to load (default .env when present)")
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(sourcesCmd)
}
