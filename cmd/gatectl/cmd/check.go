package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pipegate/internal/aggregate"
	"pipegate/internal/result"
	"pipegate/pkg/api"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Aggregate job results and gate on the required subset",
	Long: `Fold a mapping of job name to terminal result into a single gate decision.

The results mapping is read from --results (or stdin when the flag is
omitted) and accepts two JSON shapes:

  Plain mapping:
    {"build": "success", "test": "failure"}

  GitHub Actions' toJson(needs) output:
    {"build": {"result": "success"}, "test": {"result": "failure"}}

The gate passes only when every job named by --required is present and
succeeded. Jobs not named are reported but never gate. A required job
missing from the results is a configuration error, not a failure.`,
	Example: `  gatectl check --results results.json --required build --required test
  echo '{"build":"success"}' | gatectl check --required build
  gatectl check --results results.json --required build --format markdown`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resultsFile, _ := cmd.Flags().GetString("results")
		required, _ := cmd.Flags().GetStringArray("required")
		format, _ := cmd.Flags().GetString("format")
		push, _ := cmd.Flags().GetBool("push")
		pipelineName, _ := cmd.Flags().GetString("pipeline")

		data, err := readResults(resultsFile, cmd.InOrStdin())
		if err != nil {
			return err
		}

		results, err := parseResults(data)
		if err != nil {
			return err
		}

		summary, err := aggregate.Aggregate(results, required)
		if err != nil {
			return err
		}

		switch format {
		case "text":
			cmd.Print(summary.Render())
		case "markdown":
			cmd.Print(summary.Markdown())
		default:
			return fmt.Errorf("unknown format %q (want text or markdown)", format)
		}

		if push {
			if pipelineName == "" {
				return fmt.Errorf("--pipeline is required with --push")
			}

			client := NewRunClient(viper.GetString("url"), viper.GetString("token"))
			req := api.IngestRunRequest{
				Pipeline: pipelineName,
				Results:  make(api.ResultsMap, len(results)),
				Required: required,
			}
			for name, res := range results {
				req.Results[name] = res.String()
			}

			resp, err := client.IngestRun(req)
			if err != nil {
				return fmt.Errorf("failed to record run: %w", err)
			}
			cmd.Printf("Recorded run %s\n", resp.RunID)
		}

		if !summary.OverallOK {
			return fmt.Errorf("%w: %s", ErrGateFailed, strings.Join(summary.RequiredFailures(), ", "))
		}
		return nil
	},
}

// readResults loads the results document from a file, or from stdin when
// no file is given.
func readResults(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read results from stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}
	return data, nil
}

// parseResults decodes the results mapping. api.ResultsMap handles both
// the plain {"job": "success"} shape and GitHub Actions' toJson(needs)
// shape {"job": {"result": "success"}}. Every value then goes through
// result.Parse so misspellings are rejected rather than silently treated
// as failures.
func parseResults(data []byte) (map[string]result.Result, error) {
	var raw api.ResultsMap
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("results document is not a JSON object of job results: %w", err)
	}
	return parseResultMap(raw)
}

func parseResultMap(raw api.ResultsMap) (map[string]result.Result, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("results document contains no jobs")
	}

	results := make(map[string]result.Result, len(raw))
	for name, value := range raw {
		res, err := result.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", name, err)
		}
		results[name] = res
	}
	return results, nil
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("results", "f", "", "JSON file with job results (default: stdin)")
	checkCmd.Flags().StringArrayP("required", "r", nil, "Required job name (repeatable)")
	checkCmd.Flags().String("format", "text", "Report format: text or markdown")
	checkCmd.Flags().Bool("push", false, "Record the run on the controller")
	checkCmd.Flags().String("pipeline", "", "Pipeline name to record with --push")
}
