package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs recorded on the controller",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewRunClient(viper.GetString("url"), viper.GetString("token"))

		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		resp, err := client.ListRuns(limit, offset)
		if err != nil {
			return err
		}

		if len(resp.Runs) == 0 {
			if offset > 0 {
				cmd.Println("No more runs found.")
			} else {
				cmd.Println("No runs found.")
			}
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "RUN ID\tPIPELINE\tGATE\tSOURCE\tCREATED")
		for _, run := range resp.Runs {
			gate := colorGreen + "passed" + colorReset
			if !run.OverallOK {
				gate = colorRed + "failed" + colorReset
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				run.ID,
				run.Pipeline,
				gate,
				run.Source,
				run.CreatedAt.Format(time.RFC3339),
			)
		}
		w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().IntP("limit", "l", 20, "Number of runs to list")
	runsCmd.Flags().IntP("offset", "o", 0, "Offset for pagination")
}
