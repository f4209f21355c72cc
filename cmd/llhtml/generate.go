package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/batpad/ll-html/internal/budget"
	"github.com/batpad/ll-html/internal/config"
	"github.com/batpad/ll-html/internal/logging"
	"github.com/batpad/ll-html/internal/metrics"
	"github.com/batpad/ll-html/internal/pipeline"
	"github.com/batpad/ll-html/internal/session"
	"github.com/batpad/ll-html/internal/telemetry"
	"github.com/batpad/ll-html/internal/validation"
)

var (
	outFile     string
	metricsFile string
)

var generateCmd = &cobra.Command{
	Use:   "generate <request>",
	Short: "Generate an HTML page for a request",
	Long: `Generate researches data sources for the request, generates one page and
repairs it. The summary is printed as JSON; the page is written to --out.

Examples:
  # Generate a map and save it
  llhtml generate "earthquake map" --out quakes.html

  # Use a specific dotenv file
  llhtml generate --env ./dev.env "flood dashboard"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&outFile, "out", "o", "", "write the final page to this file")
	generateCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
}

type summary struct {
	Session  string             `json:"session_id"`
	Status   pipeline.Status    `json:"status"`
	Reason   string             `json:"reason,omitempty"`
	Template string             `json:"template,omitempty"`
	Score    *int               `json:"score,omitempty"`
	Issues   []validation.Issue `json:"issues,omitempty"`
	Tools    []string           `json:"tools_used,omitempty"`
	Probed   []string           `json:"probed_endpoints,omitempty"`
	Versions int                `json:"versions,omitempty"`
	Budget   budget.Snapshot    `json:"budget"`
	Error    string             `json:"error,omitempty"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown")
		}
	}()

	rec := metrics.New()
	if metricsFile != "" {
		defer func() {
			if err := prometheus.WriteToTextfile(metricsFile, rec.Registry); err != nil {
				log.Warn().Err(err).Msg("writing metrics")
			}
		}()
	}

	deps, closeDeps, err := pipeline.FromConfig(ctx, cfg, log, rec)
	if err != nil {
		return err
	}
	defer closeDeps()

	sess, err := session.New(strings.Join(args, " "), cfg)
	if err != nil {
		return err
	}
	out := pipeline.NewRunner(deps).Run(ctx, sess)

	if out.Artifact != nil && outFile != "" {
		if err := os.WriteFile(outFile, []byte(out.Artifact.Text), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outFile, err)
		}
		log.Info().Str("file", outFile).Msg("page written")
	}

	if err := printJSON(cmd, summarize(out)); err != nil {
		return err
	}
	switch out.Status {
	case pipeline.StatusBlocked, pipeline.StatusGenerationFailed, pipeline.StatusCancelled:
		return errors.New(string(out.Status) + ": " + out.Reason)
	}
	return nil
}

func summarize(out pipeline.Outcome) summary {
	s := summary{Session: out.SessionID, Status: out.Status, Reason: out.Reason, Budget: out.Budget}
	if out.Err != nil {
		s.Error = out.Err.Error()
	}
	if out.Research != nil {
		s.Tools = out.Research.ToolsUsed()
		s.Probed = out.Research.ProbedEndpoints
	}
	if out.Artifact != nil {
		s.Template = string(out.Artifact.Template)
	}
	if out.Report != nil {
		score := out.Report.Score
		s.Score = &score
		s.Issues = out.Report.Issues
	}
	if out.Repair != nil {
		s.Versions = len(out.Repair.Versions)
	}
	return s
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
