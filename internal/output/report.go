package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/qxxt/pkgup/internal/upgrade"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	failMark = color.New(color.FgRed).Sprint("✗")
)

// RenderReport renders the outcome of an upgrade run for the terminal.
func RenderReport(r *upgrade.Report) string {
	switch {
	case r.UpToDate:
		return "Everything is up to date.\n"
	case r.Cancelled:
		return "Cancelled, nothing upgraded.\n"
	}

	var sb strings.Builder

	failed := make(map[string]*upgrade.UpgradeError, len(r.Failures))
	for _, f := range r.Failures {
		failed[f.Package] = f
	}

	for _, name := range r.Upgraded {
		if f, ok := failed[name]; ok {
			// Upgraded but the old version is still around.
			sb.WriteString(fmt.Sprintf("%s %s upgraded, old version not removed: %v\n",
				okMark, name, f.Err))
			delete(failed, name)
			continue
		}
		sb.WriteString(fmt.Sprintf("%s %s upgraded\n", okMark, name))
	}
	for _, f := range r.Failures {
		if _, ok := failed[f.Package]; !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s %s failed (%s): %v\n",
			failMark, f.Package, f.Stage, f.Err))
	}

	sb.WriteString("\n")
	sb.WriteString(renderSummaryLine(r))
	sb.WriteString("\n")
	return sb.String()
}

// renderSummaryLine builds the closing one-liner, e.g. "2 upgraded, 1 failed".
func renderSummaryLine(r *upgrade.Report) string {
	parts := []string{fmt.Sprintf("%d upgraded", len(r.Upgraded))}
	if n := len(r.Failures); n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}
	return strings.Join(parts, ", ")
}
