package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ripple/internal/diff"
	"ripple/internal/report"
	"ripple/internal/risk"
)

var (
	analyzeFormat    string
	analyzeOutput    string
	analyzeSrc       string
	analyzeMapping   string
	analyzeThreshold int
	analyzeJobs      int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <old-spec> <new-spec>",
	Short: "Full pipeline: diff, caller exposure, risk score",
	Long: `Run the complete analysis: diff the two API descriptions, build the
caller index from the declarative mapping and/or a heuristic source scan,
score every change by severity and exposure, and gate on the aggregate risk.

The score is in [0, 100]. The command exits 1 when the score reaches the
threshold, which makes it usable directly as a CI gate.

Examples:
  ripple analyze api-v1.yaml api-v2.yaml --src=./frontend
  ripple analyze api-v1.yaml api-v2.yaml --mapping=callers.yaml --threshold=30
  ripple analyze api-v1.yaml api-v2.yaml --src=. --format=json --output=report.json.zst
  ripple analyze api-v1.yaml api-v2.yaml --src=. --format=markdown   # PR comment body`,
	Args: cobra.ExactArgs(2),
	Run:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "human", "Output format (human, json, sarif, markdown)")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "", "Write report to file instead of stdout (.zst compresses)")
	analyzeCmd.Flags().StringVar(&analyzeSrc, "src", "", "Source tree root for the heuristic caller scan")
	analyzeCmd.Flags().StringVar(&analyzeMapping, "mapping", "", "Declarative caller mapping file (YAML)")
	analyzeCmd.Flags().IntVar(&analyzeThreshold, "threshold", 50, "Risk score gate: exit 1 when score >= threshold")
	analyzeCmd.Flags().IntVar(&analyzeJobs, "jobs", 0, "Scanner concurrency (default: config value)")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	start := time.Now()
	cfg := loadEffectiveConfig()
	logger := newLogger(analyzeFormat, cfg)

	if analyzeThreshold < 0 || analyzeThreshold > 100 {
		fmt.Fprintf(os.Stderr, "Error: threshold must be in [0, 100], got %d\n", analyzeThreshold)
		os.Exit(2)
	}

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

	// Exposure is judged against the old surface: callers were written
	// against the contract that is changing.
	index, err := buildCallerIndex(context.Background(), oldModel, analyzeSrc, analyzeMapping, analyzeJobs, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building caller index: %v\n", err)
		os.Exit(2)
	}

	score := risk.NewEngine(risk.WeightsFromConfig(cfg.Scoring), logger).Score(changes, index)

	r := report.New(args[0], args[1])
	r.Changes = changes
	r.Summary = diff.Summarize(changes)
	r.Truncated = oldModel.Truncated() || newModel.Truncated()
	r.Callers = index
	r.Score = score
	r.Threshold = analyzeThreshold

	output, err := renderReport(r, analyzeFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(2)
	}
	if err := report.Write(output, analyzeOutput); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(2)
	}

	logger.Debug("Analysis completed", map[string]interface{}{
		"changes":  len(changes),
		"callers":  index.TotalSites(),
		"score":    score.Score,
		"duration": time.Since(start).Milliseconds(),
	})

	if score.Score >= analyzeThreshold {
		os.Exit(1)
	}
}
