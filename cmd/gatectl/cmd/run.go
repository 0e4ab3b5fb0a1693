package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pipegate/internal/aggregate"
	"pipegate/internal/logger"
	"pipegate/internal/pipeline"
	"pipegate/internal/runner"
	"pipegate/internal/runner/runtime"
	"pipegate/internal/store"
	"pipegate/pkg/api"
)

var runCmd = &cobra.Command{
	Use:   "run [pipeline.yaml]",
	Short: "Run a pipeline locally and gate on its required jobs",
	Long: `Execute every job of a pipeline file on this machine, respecting the
declared needs ordering, then aggregate the terminal results into a gate
decision over the pipeline's required jobs.

Shell jobs run through /bin/sh in a scratch working directory. Jobs that
declare an image run in Docker containers and need a reachable Docker
daemon. Jobs whose needs did not succeed are skipped; a required skipped
job fails the gate like any other non-success.`,
	Example: `  gatectl run pipeline.yaml
  gatectl run pipeline.yaml --concurrency 4
  gatectl run pipeline.yaml --push`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		defaultTimeout, _ := cmd.Flags().GetDuration("default-timeout")
		workDir, _ := cmd.Flags().GetString("workdir")
		format, _ := cmd.Flags().GetString("format")
		push, _ := cmd.Flags().GetBool("push")

		p, err := pipeline.Load(args[0])
		if err != nil {
			return err
		}

		shell := runtime.NewExecRuntime(workDir)

		var containers runtime.Runtime
		for _, j := range p.Jobs {
			if j.Image != "" {
				docker, err := runtime.NewDockerRuntime()
				if err != nil {
					return fmt.Errorf("pipeline declares container jobs but docker is unavailable: %w", err)
				}
				containers = docker
				break
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r := runner.New(shell, containers, runner.Config{
			Concurrency:    concurrency,
			DefaultTimeout: defaultTimeout,
		}, logger.New())

		rec, err := r.Run(ctx, p)
		if err != nil {
			return err
		}

		summary, err := aggregate.Aggregate(rec.Results(), p.RequiredNames())
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
			client := NewRunClient(viper.GetString("url"), viper.GetString("token"))
			req := api.IngestRunRequest{
				Pipeline: p.Name,
				Source:   store.RunSourceRunner,
				Results:  make(api.ResultsMap, len(rec.Jobs)),
				Required: p.RequiredNames(),
			}
			for _, j := range rec.Jobs {
				req.Results[j.Name] = j.Result.String()
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

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntP("concurrency", "c", 2, "Maximum jobs running at once")
	runCmd.Flags().Duration("default-timeout", 30*time.Minute, "Per-job timeout for jobs that declare none")
	runCmd.Flags().String("workdir", "", "Base directory for job working directories")
	runCmd.Flags().String("format", "text", "Report format: text or markdown")
	runCmd.Flags().Bool("push", false, "Record the run on the controller")
}
