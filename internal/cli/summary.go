package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/wattsense/internal/scheduler"
	"github.com/ogulcanaydogan/wattsense/internal/server"
	"github.com/ogulcanaydogan/wattsense/pkg/summary"
	"github.com/ogulcanaydogan/wattsense/pkg/units"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Monthly usage summaries",
}

var summarySendCmd = &cobra.Command{
	Use:   "send",
	Short: "Email every user the previous month's summary",
	RunE:  runSummarySend,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.AddCommand(summarySendCmd)

	summarySendCmd.Flags().String("as-of", "", "Reference date (YYYY-MM-DD); the month before it is summarised")
	summarySendCmd.Flags().StringP("output", "o", outputTable, "Output format (table, json, yaml)")
}

func runSummarySend(cmd *cobra.Command, _ []string) error {
	asOf, _ := cmd.Flags().GetString("as-of")
	format, _ := cmd.Flags().GetString("output")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		var ref time.Time
		if asOf != "" {
			t, err := time.ParseInLocation(time.DateOnly, asOf, a.loc)
			if err != nil {
				return fmt.Errorf("invalid --as-of date: %w", err)
			}
			ref = t
		}

		var report *summary.Report
		err := scheduler.New(a.loc, a.metrics, a.logger).Execute(ctx, scheduler.Job{
			Name: server.JobMonthlySummary,
			Run: func(ctx context.Context, now time.Time) (err error) {
				if !ref.IsZero() {
					now = ref
				}
				report, err = a.summary.Run(ctx, now)
				return err
			},
		})
		if err != nil {
			return err
		}
		if done, err := writeStructured(os.Stdout, format, report); done {
			return err
		}

		fmt.Printf("Month:        %s\n", report.Month)
		fmt.Printf("Total cost:   %s\n", units.FormatIDR(report.TotalCost))
		fmt.Printf("Total energy: %s\n", units.FormatKWh(report.TotalEnergy))
		fmt.Printf("Sent:         %d of %d users (%d without email)\n", report.Sent, report.Processed, report.Skipped)
		for _, f := range report.Failures {
			fmt.Fprintf(os.Stderr, "failed: %s: %s\n", f.Email, f.Error)
		}
		return nil
	})
}
