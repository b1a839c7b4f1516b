package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"ripple/internal/diff"
)

// SARIF 2.1.0 schema types
// See: https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-v2.1.0.html

// SARIFReport is the top-level SARIF document.
type SARIFReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []SARIFRun `json:"runs"`
}

// SARIFRun represents a single analysis run.
type SARIFRun struct {
	Tool        SARIFTool         `json:"tool"`
	Results     []SARIFResult     `json:"results"`
	Invocations []SARIFInvocation `json:"invocations,omitempty"`
}

// SARIFTool describes the analysis tool.
type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

// SARIFDriver describes the primary analysis component.
type SARIFDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []SARIFRule `json:"rules,omitempty"`
}

// SARIFRule describes a rule that detected an issue.
type SARIFRule struct {
	ID                   string                  `json:"id"`
	Name                 string                  `json:"name,omitempty"`
	ShortDescription     *SARIFMessage           `json:"shortDescription,omitempty"`
	DefaultConfiguration *SARIFRuleConfiguration `json:"defaultConfiguration,omitempty"`
}

// SARIFRuleConfiguration describes the default configuration for a rule.
type SARIFRuleConfiguration struct {
	Level string `json:"level,omitempty"` // error, warning, note, none
}

// SARIFResult represents a single finding.
type SARIFResult struct {
	RuleID              string                 `json:"ruleId"`
	RuleIndex           int                    `json:"ruleIndex"`
	Level               string                 `json:"level,omitempty"`
	Message             SARIFMessage           `json:"message"`
	Locations           []SARIFLocation        `json:"locations,omitempty"`
	PartialFingerprints map[string]string      `json:"partialFingerprints,omitempty"`
	Properties          map[string]interface{} `json:"properties,omitempty"`
}

// SARIFMessage contains text in various formats.
type SARIFMessage struct {
	Text string `json:"text,omitempty"`
}

// SARIFLocation describes where a result was found.
type SARIFLocation struct {
	PhysicalLocation *SARIFPhysicalLocation `json:"physicalLocation,omitempty"`
}

// SARIFPhysicalLocation identifies a file and region.
type SARIFPhysicalLocation struct {
	ArtifactLocation *SARIFArtifactLocation `json:"artifactLocation,omitempty"`
	Region           *SARIFRegion           `json:"region,omitempty"`
}

// SARIFArtifactLocation identifies a file.
type SARIFArtifactLocation struct {
	URI string `json:"uri,omitempty"`
}

// SARIFRegion identifies a region within a file.
type SARIFRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

// SARIFInvocation describes a single invocation of the tool.
type SARIFInvocation struct {
	ExecutionSuccessful bool `json:"executionSuccessful"`
}

// FormatSARIF renders the report as a SARIF 2.1.0 document for GitHub Code
// Scanning. One rule per change kind; one result per change, located at its
// caller sites when any are known and at the spec file otherwise.
func FormatSARIF(r *Report) (string, error) {
	ruleIDs := make(map[string]bool)
	for _, c := range r.Changes {
		ruleIDs[ruleID(c.Kind)] = true
	}

	sorted := make([]string, 0, len(ruleIDs))
	for id := range ruleIDs {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	ruleIndex := make(map[string]int, len(sorted))
	rules := make([]SARIFRule, 0, len(sorted))
	for i, id := range sorted {
		ruleIndex[id] = i
		rules = append(rules, SARIFRule{
			ID:               id,
			Name:             ruleName(id),
			ShortDescription: &SARIFMessage{Text: "API consumer affected by " + ruleName(id)},
		})
	}

	results := make([]SARIFResult, 0, len(r.Changes))
	for _, c := range r.Changes {
		id := ruleID(c.Kind)
		result := SARIFResult{
			RuleID:    id,
			RuleIndex: ruleIndex[id],
			Level:     sarifLevel(c.Severity),
			Message:   SARIFMessage{Text: c.Description},
			PartialFingerprints: map[string]string{
				"rippleChange/v1": fingerprint(c),
			},
			Properties: map[string]interface{}{
				"endpoint": c.Identity.String(),
				"severity": string(c.Severity),
			},
		}
		if c.Locator != "" {
			result.Properties["locator"] = c.Locator
		}

		if r.Callers != nil {
			for _, site := range r.Callers.Sites(c.Identity.Key()) {
				loc := SARIFLocation{
					PhysicalLocation: &SARIFPhysicalLocation{
						ArtifactLocation: &SARIFArtifactLocation{URI: site.File},
					},
				}
				if site.Line > 0 {
					loc.PhysicalLocation.Region = &SARIFRegion{StartLine: site.Line}
				}
				result.Locations = append(result.Locations, loc)
			}
		}
		if len(result.Locations) == 0 {
			result.Locations = []SARIFLocation{{
				PhysicalLocation: &SARIFPhysicalLocation{
					ArtifactLocation: &SARIFArtifactLocation{URI: r.NewSpec},
				},
			}}
		}

		results = append(results, result)
	}

	doc := SARIFReport{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []SARIFRun{{
			Tool: SARIFTool{
				Driver: SARIFDriver{
					Name:    "ripple",
					Version: r.Version,
					Rules:   rules,
				},
			},
			Results:     results,
			Invocations: []SARIFInvocation{{ExecutionSuccessful: true}},
		}},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal SARIF: %w", err)
	}
	return string(data), nil
}

func ruleID(kind diff.ChangeKind) string {
	return "ripple/" + strings.ToLower(string(kind))
}

func ruleName(id string) string {
	name := strings.TrimPrefix(id, "ripple/")
	return strings.ReplaceAll(name, "_", " ")
}

func sarifLevel(severity diff.Severity) string {
	switch severity {
	case diff.SeverityBreaking:
		return "error"
	case diff.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

// fingerprint stably identifies one change across runs so code-scanning
// can track it through re-analysis.
func fingerprint(c diff.Change) string {
	h := sha256.Sum256([]byte(c.Identity.Key() + "|" + string(c.Kind) + "|" + c.Locator))
	return hex.EncodeToString(h[:16])
}
