package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	callersSpec    string
	callersSrc     string
	callersMapping string
	callersFormat  string
	callersJobs    int
)

var callersCmd = &cobra.Command{
	Use:   "callers",
	Short: "Build and print the caller index for an API description",
	Long: `Build the caller index for one API description without diffing.

Useful for checking what the heuristic scan actually finds before relying on
it in a gate, and for auditing a declarative mapping file.

Examples:
  ripple callers --spec=api.yaml --src=./frontend
  ripple callers --spec=api.yaml --mapping=callers.yaml --format=json`,
	Run: runCallers,
}

func init() {
	callersCmd.Flags().StringVar(&callersSpec, "spec", "", "API description to index against (required)")
	callersCmd.Flags().StringVar(&callersSrc, "src", "", "Source tree root for the heuristic caller scan")
	callersCmd.Flags().StringVar(&callersMapping, "mapping", "", "Declarative caller mapping file (YAML)")
	callersCmd.Flags().StringVar(&callersFormat, "format", "human", "Output format (human, json)")
	callersCmd.Flags().IntVar(&callersJobs, "jobs", 0, "Scanner concurrency (default: config value)")
	_ = callersCmd.MarkFlagRequired("spec")

	rootCmd.AddCommand(callersCmd)
}

func runCallers(cmd *cobra.Command, args []string) {
	cfg := loadEffectiveConfig()
	logger := newLogger(callersFormat, cfg)

	if callersSrc == "" && callersMapping == "" {
		fmt.Fprintln(os.Stderr, "Error: at least one of --src or --mapping is required")
		os.Exit(2)
	}

	model, err := buildModel(callersSpec, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading spec: %v\n", err)
		os.Exit(2)
	}

	index, err := buildCallerIndex(context.Background(), model, callersSrc, callersMapping, callersJobs, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building caller index: %v\n", err)
		os.Exit(2)
	}

	switch callersFormat {
	case "json":
		data, err := json.MarshalIndent(index, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
			os.Exit(2)
		}
		fmt.Println(string(data))
	case "human":
		if index.TotalSites() == 0 {
			fmt.Println("No call sites found.")
			return
		}
		fmt.Printf("Call sites (%d endpoint(s), %d site(s)):\n", len(index.Keys()), index.TotalSites())
		for _, key := range index.Keys() {
			fmt.Printf("\n%s\n%s\n", key, strings.Repeat("-", len(key)))
			for _, site := range index.Sites(key) {
				loc := site.File
				if site.Line > 0 {
					loc = fmt.Sprintf("%s:%d", site.File, site.Line)
				}
				fmt.Printf("  %-52s [%s]\n", loc, site.Confidence)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: unsupported format: %s\n", callersFormat)
		os.Exit(2)
	}
}
