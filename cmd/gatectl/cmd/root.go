package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pipegate/internal/aggregate"
	"pipegate/internal/result"
)

var cfgFile string

// ErrGateFailed marks a run in which at least one required job did not
// succeed. It is distinct from configuration errors (unknown job names,
// unparseable results) so the process exit code can tell them apart.
var ErrGateFailed = errors.New("one or more required jobs did not succeed")

var rootCmd = &cobra.Command{
	Use:   "gatectl",
	Short: "Gatectl aggregates CI job results into a single gate decision",
	Long: `gatectl is the command-line interface for pipegate.

Pipegate folds the terminal results of a set of CI jobs (success, failure,
cancelled, skipped) into one overall pass/fail decision over a declared
required subset. Jobs outside the required subset are informational and
never gate.

Common workflows:

  Gate on job results collected by an external CI runner:
    gatectl check --results results.json --required build --required test

  Run a pipeline locally and gate on its required jobs:
    gatectl run pipeline.yaml

  Run a pipeline and record the outcome on the controller:
    gatectl run pipeline.yaml --push

  Inspect a stored run:
    gatectl report <run-id>

  List recent runs:
    gatectl runs

Exit codes:
  0  every required job succeeded
  1  the gate failed (or an unexpected error occurred)
  2  configuration error: unknown required job or unparseable result

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    PIPEGATE_URL      Controller endpoint (default: http://localhost:7070)
    PIPEGATE_TOKEN    API token for authentication`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an Execute error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, aggregate.ErrUnknownJob), errors.Is(err, result.ErrUnknownResult):
		return 2
	default:
		return 1
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".gatectl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".gatectl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "PIPEGATE_VARNAME"
	viper.SetEnvPrefix("PIPEGATE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gatectl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:7070", "Pipegate Controller URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "API Token for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}
