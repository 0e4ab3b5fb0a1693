package aggregate

import (
	"fmt"
	"strings"

	"pipegate/internal/result"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// Render returns the human-readable pipeline report.
func (s Summary) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%sPipeline Summary%s\n", colorBold, colorReset)
	b.WriteString("──────────────────────────────\n")

	width := 0
	for _, row := range s.Rows {
		if len(row.Name) > width {
			width = len(row.Name)
		}
	}

	for _, row := range s.Rows {
		tag := "required"
		if !row.Required {
			tag = "informational"
		}
		fmt.Fprintf(&b, "%s %-*s  %s %s(%s)%s\n",
			resultIcon(row.Result), width, row.Name,
			colorizeResult(row.Result), colorDim, tag, colorReset)
	}

	b.WriteString("──────────────────────────────\n")
	if s.OverallOK {
		fmt.Fprintf(&b, "%s✓ all required jobs succeeded%s\n", colorGreen, colorReset)
	} else {
		fmt.Fprintf(&b, "%s✗ required jobs did not succeed: %s%s\n",
			colorRed, strings.Join(s.RequiredFailures(), ", "), colorReset)
	}

	return b.String()
}

// Markdown returns the report as a Markdown table, suitable for CI step
// summaries.
func (s Summary) Markdown() string {
	var b strings.Builder

	b.WriteString("## Pipeline Summary\n\n")
	b.WriteString("| Job | Result | Gating |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, row := range s.Rows {
		gating := "required"
		if !row.Required {
			gating = "informational"
		}
		fmt.Fprintf(&b, "| %s | %s %s | %s |\n", row.Name, markdownIcon(row.Result), row.Result, gating)
	}

	b.WriteString("\n")
	if s.OverallOK {
		b.WriteString("**Overall: pass** — all required jobs succeeded.\n")
	} else {
		fmt.Fprintf(&b, "**Overall: fail** — required jobs did not succeed: %s.\n",
			strings.Join(s.RequiredFailures(), ", "))
	}

	return b.String()
}

func resultIcon(r result.Result) string {
	switch r {
	case result.Success:
		return colorGreen + "✓" + colorReset
	case result.Failure:
		return colorRed + "✗" + colorReset
	case result.Cancelled:
		return colorYellow + "⊘" + colorReset
	case result.Skipped:
		return colorCyan + "◌" + colorReset
	default:
		return "•"
	}
}

func colorizeResult(r result.Result) string {
	switch r {
	case result.Success:
		return colorGreen + string(r) + colorReset
	case result.Failure:
		return colorRed + string(r) + colorReset
	case result.Cancelled:
		return colorYellow + string(r) + colorReset
	case result.Skipped:
		return colorCyan + string(r) + colorReset
	default:
		return string(r)
	}
}

func markdownIcon(r result.Result) string {
	switch r {
	case result.Success:
		return "✅"
	case result.Failure:
		return "❌"
	case result.Cancelled:
		return "🚫"
	case result.Skipped:
		return "⏭️"
	default:
		return ""
	}
}
