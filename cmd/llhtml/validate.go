package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/batpad/ll-html/internal/templates"
	"github.com/batpad/ll-html/internal/validation"
)

var (
	templateName string
	probed       []string
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate an existing HTML page",
	Long: `Validate runs the structural, scripting, dependency and endpoint checks
against a page and prints the issues and the weighted score as JSON.

Examples:
  # Check a page against the map template
  llhtml validate quakes.html --template map

  # Treat an endpoint as already verified
  llhtml validate page.html --probed https://example.org/stac/search`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&templateName, "template", "t", "", "template the page was built from (map, dashboard, comprehensive)")
	validateCmd.Flags().StringSliceVar(&probed, "probed", nil, "endpoints that count as verified")
}

func runValidate(cmd *cobra.Command, args []string) error {
	text, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", args[0], err)
	}
	vc := validation.Context{ProbedEndpoints: probed}
	if templateName != "" {
		kind, err := templates.ParseKind(templateName)
		if err != nil {
			return err
		}
		tpl, ok := templates.Default().Get(kind)
		if !ok {
			return fmt.Errorf("unknown template %q", templateName)
		}
		vc.Template = &tpl
	}

	report := validation.NewEngine().Validate(cmd.Context(), string(text), vc)
	if err := printJSON(cmd, report); err != nil {
		return err
	}
	if report.Count(validation.Blocking) > 0 {
		return fmt.Errorf("%d blocking issues", report.Count(validation.Blocking))
	}
	return nil
}
