package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ripple/internal/diff"
	"ripple/internal/report"
)

var (
	diffFormat string
	diffOutput string
)

var diffCmd = &cobra.Command{
	Use:   "diff <old-spec> <new-spec>",
	Short: "Detect breaking changes between two API descriptions",
	Long: `Compare two OpenAPI documents and classify every observable contract
change by severity.

Detects:
- Removed endpoints and response status codes
- Removed, newly required, or retyped parameters
- Removed, newly required, or retyped request body fields
- Removed or retyped response fields
- Tightened enums and changed formats

Examples:
  ripple diff api-v1.yaml api-v2.yaml
  ripple diff api-v1.yaml api-v2.yaml --format=json
  ripple diff api-v1.yaml api-v2.yaml --format=sarif --output=changes.sarif`,
	Args: cobra.ExactArgs(2),
	Run:  runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&diffFormat, "format", "human", "Output format (human, json, sarif, markdown)")
	diffCmd.Flags().StringVar(&diffOutput, "output", "", "Write report to file instead of stdout (.zst compresses)")

	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) {
	start := time.Now()
	cfg := loadEffectiveConfig()
	logger := newLogger(diffFormat, cfg)

	oldModel, err := buildModel(args[0], cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading old spec: %v\n", err)
		os.Exit(2)
	}
	newModel, err := buildModel(args[1], cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading new spec: %v\n", err)
		os.Exit(2)
	}

	changes := diff.NewEngine(logger).Compare(oldModel, newModel)

	r := report.New(args[0], args[1])
	r.Changes = changes
	r.Summary = diff.Summarize(changes)
	r.Truncated = oldModel.Truncated() || newModel.Truncated()

	output, err := renderReport(r, diffFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(2)
	}
	if err := report.Write(output, diffOutput); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(2)
	}

	logger.Debug("Diff completed", map[string]interface{}{
		"changes":  len(changes),
		"duration": time.Since(start).Milliseconds(),
	})

	// Exit with code 1 if breaking changes found (for CI)
	if r.Summary.HasBreakingChanges() {
		os.Exit(1)
	}
}
