package report

import (
	"fmt"
	"strings"

	"ripple/internal/diff"
)

// FormatText renders a human-readable terminal report.
func FormatText(r *Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Ripple v%s - API Change Report\n", r.Version))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Old: %s\n", r.OldSpec))
	b.WriteString(fmt.Sprintf("New: %s\n\n", r.NewSpec))

	if len(r.Changes) == 0 {
		b.WriteString("No API changes detected.\n")
		return b.String()
	}

	b.WriteString("Changes:\n")
	b.WriteString(fmt.Sprintf("  %-9s %-24s %-28s %s\n", "SEVERITY", "KIND", "ENDPOINT", "DETAIL"))
	b.WriteString("  " + strings.Repeat("-", 90) + "\n")
	for _, c := range r.Changes {
		b.WriteString(fmt.Sprintf("  %-9s %-24s %-28s %s\n",
			strings.ToUpper(string(c.Severity)), c.Kind, c.Identity.String(), c.Description))
	}

	if r.Summary != nil {
		b.WriteString(fmt.Sprintf("\n  %d change(s): %d breaking, %d warning, %d info\n",
			r.Summary.TotalChanges, r.Summary.BreakingChanges, r.Summary.Warnings, r.Summary.Additions))
	}
	if r.Truncated {
		b.WriteString("  (analysis truncated to the endpoint limit)\n")
	}

	if r.Callers != nil && r.Callers.TotalSites() > 0 {
		b.WriteString(fmt.Sprintf("\nAffected call sites (%d):\n", r.Callers.TotalSites()))
		for _, key := range r.Callers.Keys() {
			for _, site := range r.Callers.Sites(key) {
				loc := site.File
				if site.Line > 0 {
					loc = fmt.Sprintf("%s:%d", site.File, site.Line)
				}
				b.WriteString(fmt.Sprintf("  %-52s <- %s [%s]\n", loc, key, site.Confidence))
			}
		}
	}

	if r.Score != nil {
		b.WriteString("\n")
		if len(r.Score.DeadRisk) > 0 {
			b.WriteString(fmt.Sprintf("Dead risk (%d breaking/warning change(s) with no known callers):\n",
				len(r.Score.DeadRisk)))
			for _, c := range r.Score.DeadRisk {
				b.WriteString(fmt.Sprintf("  %s %s (%s)\n",
					c.Change.Identity.String(), c.Change.Kind, c.Change.Severity))
			}
			b.WriteString("\n")
		}

		verdict := "PASS"
		if r.Threshold > 0 && r.Score.Score >= r.Threshold {
			verdict = "FAIL"
		}
		if r.Threshold > 0 {
			b.WriteString(fmt.Sprintf("Risk Score: %d/100 (threshold: %d) - %s\n",
				r.Score.Score, r.Threshold, verdict))
		} else {
			b.WriteString(fmt.Sprintf("Risk Score: %d/100\n", r.Score.Score))
		}
	}

	return b.String()
}

// severityMarker maps a severity to a short marker for compact listings.
func severityMarker(s diff.Severity) string {
	switch s {
	case diff.SeverityBreaking:
		return "!"
	case diff.SeverityWarning:
		return "~"
	default:
		return "+"
	}
}
