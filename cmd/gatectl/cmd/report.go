package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pipegate/internal/result"
	"pipegate/pkg/api"
)

var reportCmd = &cobra.Command{
	Use:   "report [run_id]",
	Short: "Show the gate report for a stored run",
	Long: `Fetch a stored run from the controller and print its gate report:
the per-job result rows, exit codes and errors where recorded, and the
overall verdict.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID := args[0]

		token := viper.GetString("token")
		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the PIPEGATE_TOKEN environment variable")
			return nil
		}

		client := NewRunClient(viper.GetString("url"), token)
		run, err := client.GetRun(runID)
		if err != nil {
			return err
		}

		printRun(cmd, run)
		return nil
	},
}

func printRun(cmd *cobra.Command, run *api.RunResponse) {
	cmd.Printf("%sRun Report%s\n", colorBold, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sID:%s        %s\n", colorDim, colorReset, run.ID)
	cmd.Printf("%sPipeline:%s  %s\n", colorDim, colorReset, run.Pipeline)
	cmd.Printf("%sSource:%s    %s\n", colorDim, colorReset, run.Source)
	cmd.Printf("%sCreated:%s   %s\n", colorDim, colorReset, formatTimeWithRelative(&run.CreatedAt))
	cmd.Println()

	for _, job := range run.Jobs {
		printJobRow(cmd, job)
	}

	cmd.Println()
	if run.OverallOK {
		cmd.Printf("%s✓ gate passed%s\n", colorGreen, colorReset)
	} else {
		cmd.Printf("%s✗ gate failed%s\n", colorRed, colorReset)
	}
}

func printJobRow(cmd *cobra.Command, job api.JobRowResponse) {
	marker := ""
	if !job.Required {
		marker = colorDim + " (informational)" + colorReset
	}

	res, err := result.Parse(job.Result)
	line := fmt.Sprintf("%-20s %s%s", job.Name, colorizeResult(res), marker)
	if err != nil {
		line = fmt.Sprintf("%-20s %s%s%s%s", job.Name, colorRed, job.Result, colorReset, marker)
	}

	var extras []string
	if job.ExitCode != nil && *job.ExitCode != 0 {
		extras = append(extras, fmt.Sprintf("exit code %d", *job.ExitCode))
	}
	if job.StartedAt != nil && job.CompletedAt != nil {
		extras = append(extras, formatDuration(job.CompletedAt.Sub(*job.StartedAt)))
	}
	if len(extras) > 0 {
		line += fmt.Sprintf(" %s(%s)%s", colorCyan, strings.Join(extras, ", "), colorReset)
	}
	cmd.Println(line)

	if job.Error != nil && *job.Error != "" {
		cmd.Printf("    %s%s%s\n", colorRed, *job.Error, colorReset)
	}
	if job.LogTail != nil && *job.LogTail != "" && res == result.Failure {
		for _, l := range strings.Split(strings.TrimRight(*job.LogTail, "\n"), "\n") {
			cmd.Printf("    %s│ %s%s\n", colorDim, l, colorReset)
		}
	}
}

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
	icon := resultIcon(r)
	switch r {
	case result.Success:
		return icon + " " + colorGreen + r.String() + colorReset
	case result.Failure:
		return icon + " " + colorRed + r.String() + colorReset
	case result.Cancelled:
		return icon + " " + colorYellow + r.String() + colorReset
	case result.Skipped:
		return icon + " " + colorCyan + r.String() + colorReset
	default:
		return r.String()
	}
}

func formatTimeWithRelative(t *time.Time) string {
	if t == nil {
		return "-"
	}
	relative := relativeTime(*t)
	return fmt.Sprintf("%s %s(%s ago)%s", t.Format("Mon, 02 Jan 2006 15:04:05 MST"), colorDim, relative, colorReset)
}

func relativeTime(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	} else if duration < time.Hour {
		return fmt.Sprintf("%dm", int(duration.Minutes()))
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%dh", int(duration.Hours()))
	} else {
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
