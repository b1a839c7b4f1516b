// Package report renders the structured outputs of an analysis run into
// presentation formats: human text, JSON, SARIF 2.1.0, and GitHub-flavored
// markdown. The analysis payload is deterministic; only the envelope fields
// (run ID, timestamp) vary between runs on identical inputs.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ripple/internal/callers"
	"ripple/internal/diff"
	"ripple/internal/risk"
	"ripple/internal/version"
)

// Report is the complete result envelope handed to the emitters.
type Report struct {
	RunID       string    `json:"runId"`
	Tool        string    `json:"tool"`
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generatedAt"`

	OldSpec string `json:"oldSpec"`
	NewSpec string `json:"newSpec"`

	Threshold int  `json:"threshold,omitempty"`
	Truncated bool `json:"truncated,omitempty"`

	Changes []diff.Change     `json:"changes"`
	Summary *diff.Summary     `json:"summary"`
	Callers *callers.Index    `json:"callers,omitempty"`
	Score   *risk.ScoreResult `json:"score,omitempty"`
}

// New creates a report envelope for one analysis run.
func New(oldSpec, newSpec string) *Report {
	return &Report{
		RunID:       uuid.New().String(),
		Tool:        "ripple",
		Version:     version.Version,
		GeneratedAt: time.Now().UTC(),
		OldSpec:     oldSpec,
		NewSpec:     newSpec,
	}
}

// FormatJSON renders the report as indented JSON for CI consumption.
func FormatJSON(r *Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data), nil
}
