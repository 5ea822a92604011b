package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/wattsense/internal/scheduler"
	"github.com/ogulcanaydogan/wattsense/internal/server"
	"github.com/ogulcanaydogan/wattsense/pkg/budget"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Check every budget once and send due alerts",
	RunE:  runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().StringP("output", "o", outputTable, "Output format (table, json, yaml)")
}

func runSweep(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("output")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		var report *budget.Report
		err := scheduler.New(a.loc, a.metrics, a.logger).Execute(ctx, scheduler.Job{
			Name: server.JobBudgetAlerts,
			Run: func(ctx context.Context, now time.Time) (err error) {
				report, err = a.sweep.Run(ctx, now)
				return err
			},
		})
		if err != nil {
			return err
		}
		if done, err := writeStructured(os.Stdout, format, report); done {
			return err
		}

		fmt.Printf("Budgets checked:  %d\n", report.Processed)
		fmt.Printf("Alerts sent:      %d\n", report.Alerted)
		fmt.Printf("Throttled:        %d\n", report.Throttled)
		fmt.Printf("No recipient:     %d\n", report.Skipped)
		for _, f := range report.Failures {
			fmt.Fprintf(os.Stderr, "failed: budget %s (user %s): %s\n", f.BudgetID, f.UserID, f.Error)
		}
		return nil
	})
}
