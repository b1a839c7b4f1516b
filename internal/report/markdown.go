package report

import (
	"fmt"
	"strings"
)

// FormatMarkdown renders a GitHub PR comment body.
func FormatMarkdown(r *Report) string {
	var b strings.Builder

	switch {
	case len(r.Changes) == 0:
		b.WriteString("## Ripple: no API changes detected\n")
		return b.String()
	case r.Summary.HasBreakingChanges():
		b.WriteString("## Ripple: breaking API changes detected\n\n")
	default:
		b.WriteString("## Ripple: API changes detected\n\n")
	}

	if r.Score != nil {
		verdict := ""
		if r.Threshold > 0 {
			if r.Score.Score >= r.Threshold {
				verdict = fmt.Sprintf(" - **exceeds threshold %d**", r.Threshold)
			} else {
				verdict = fmt.Sprintf(" (threshold %d)", r.Threshold)
			}
		}
		b.WriteString(fmt.Sprintf("**Risk score: %d/100**%s\n\n", r.Score.Score, verdict))
	}

	b.WriteString("| | Severity | Endpoint | Change |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, c := range r.Changes {
		b.WriteString(fmt.Sprintf("| %s | %s | `%s` | %s |\n",
			severityMarker(c.Severity), c.Severity, c.Identity.String(), c.Description))
	}

	b.WriteString(fmt.Sprintf("\n%d change(s), %d breaking.\n",
		r.Summary.TotalChanges, r.Summary.BreakingChanges))

	if r.Callers != nil && r.Callers.TotalSites() > 0 {
		b.WriteString("\n<details>\n<summary>Affected call sites</summary>\n\n")
		for _, key := range r.Callers.Keys() {
			for _, site := range r.Callers.Sites(key) {
				loc := site.File
				if site.Line > 0 {
					loc = fmt.Sprintf("%s:%d", site.File, site.Line)
				}
				b.WriteString(fmt.Sprintf("- `%s` ← `%s` (%s confidence)\n", loc, key, site.Confidence))
			}
		}
		b.WriteString("\n</details>\n")
	}

	if r.Score != nil && len(r.Score.DeadRisk) > 0 {
		b.WriteString(fmt.Sprintf("\n%d breaking/warning change(s) have no known callers (dead risk, scored reduced).\n",
			len(r.Score.DeadRisk)))
	}

	if r.Truncated {
		b.WriteString("\n> Analysis truncated to the configured endpoint limit.\n")
	}

	return b.String()
}
