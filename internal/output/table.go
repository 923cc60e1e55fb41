package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/qxxt/pkgup/internal/store"
	"github.com/qxxt/pkgup/internal/upgrade"
)

// RenderCandidateTable renders the upgradable packages with their installed
// and available versions. Rows keep the candidate set's order, since that
// order is what the selection surface numbers.
func RenderCandidateTable(candidates upgrade.CandidateSet) string {
	if len(candidates) == 0 {
		return "Everything is up to date.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-24s %-14s %-14s %s\n",
		"Package", "Installed", "Available", "Kind"))
	sb.WriteString(strings.Repeat("─", 60))
	sb.WriteString("\n")

	for _, c := range candidates {
		available := "—"
		if c.Available != nil {
			available = c.Available.Version.String()
		}
		sb.WriteString(fmt.Sprintf("%-24s %-14s %-14s %s\n",
			truncate(c.Installed.Name, 24),
			c.Installed.Version,
			available,
			c.Installed.Kind))
	}

	return sb.String()
}

// RenderRunTable renders past upgrade runs, newest first, the order
// ListRuns returns them in.
func RenderRunTable(runs []*store.Run) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-21s %-11s %-11s %s\n",
		"Started", "Trigger", "Outcome", "Packages"))
	sb.WriteString(strings.Repeat("─", 72))
	sb.WriteString("\n")

	for _, run := range runs {
		sb.WriteString(fmt.Sprintf("%-21s %-11s %-11s %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Trigger,
			run.Outcome,
			formatEvents(run.Events)))
	}

	return sb.String()
}

// formatEvents compresses a run's events into a short inline summary:
// "alpha, beta, gamma(failed)".
func formatEvents(events []store.RunEvent) string {
	if len(events) == 0 {
		return "—"
	}
	parts := make([]string, 0, len(events))
	for _, ev := range events {
		if ev.Status == store.StatusFailed {
			parts = append(parts, ev.Package+"(failed)")
			continue
		}
		parts = append(parts, ev.Package)
	}
	return truncate(strings.Join(parts, ", "), 40)
}

// RenderLastRefresh renders a one-line index freshness summary.
func RenderLastRefresh(t time.Time) string {
	return fmt.Sprintf("Index last refreshed %s.\n", formatRelativeTime(t))
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		weeks := int(diff.Hours() / 24 / 7)
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	}
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
