package main

import (
	"context"
	"fmt"

	"ripple/internal/callers"
	"ripple/internal/config"
	"ripple/internal/logging"
	"ripple/internal/report"
	"ripple/internal/spec"
)

// buildModel loads one OpenAPI document and builds its immutable spec model.
func buildModel(path string, cfg *config.Config, logger *logging.Logger) (*spec.SpecModel, error) {
	doc, err := spec.LoadDocument(path)
	if err != nil {
		return nil, err
	}

	builder := spec.NewBuilder(
		spec.Limits{MaxEndpoints: cfg.Limits.MaxEndpoints},
		cfg.IgnoredEndpoints,
		logger,
	)
	model, err := builder.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return model, nil
}

// buildCallerIndex unions the declarative mapping (high confidence) with the
// heuristic source scan (medium confidence). Either source may be absent;
// overlapping sites are kept from both on purpose so confidence stays visible.
func buildCallerIndex(ctx context.Context, model *spec.SpecModel, srcRoot, mappingPath string, jobs int, cfg *config.Config, logger *logging.Logger) (*callers.Index, error) {
	index := callers.NewIndex()

	if mappingPath != "" {
		mapped, err := callers.LoadMapping(mappingPath, logger)
		if err != nil {
			return nil, err
		}
		index.Merge(mapped)
	}

	if srcRoot != "" {
		scanCfg := cfg.Scan
		if jobs > 0 {
			scanCfg.Concurrency = jobs
		}
		identities := make([]spec.EndpointIdentity, 0, model.Len())
		for _, ep := range model.Endpoints() {
			identities = append(identities, ep.Identity)
		}
		scanned, err := callers.NewScanner(scanCfg, logger).Scan(ctx, srcRoot, identities)
		if err != nil {
			return nil, err
		}
		index.Merge(scanned)
	}

	index.Finalize()
	return index, nil
}

// renderReport dispatches to the emitter for the requested format.
func renderReport(r *report.Report, format string) (string, error) {
	switch format {
	case "human":
		return report.FormatText(r), nil
	case "json":
		return report.FormatJSON(r)
	case "sarif":
		return report.FormatSARIF(r)
	case "markdown":
		return report.FormatMarkdown(r), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}
