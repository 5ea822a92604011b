package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/wattsense/pkg/budget"
	"github.com/ogulcanaydogan/wattsense/pkg/units"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage energy budgets",
}

var budgetSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or replace a user's budget",
	RunE:  runBudgetSet,
}

var budgetShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a user's budget and current expenses",
	RunE:  runBudgetShow,
}

var budgetStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show percent used and last alert time",
	RunE:  runBudgetStatus,
}

func init() {
	rootCmd.AddCommand(budgetCmd)
	budgetCmd.AddCommand(budgetSetCmd)
	budgetCmd.AddCommand(budgetShowCmd)
	budgetCmd.AddCommand(budgetStatusCmd)

	budgetCmd.PersistentFlags().StringP("user", "u", "", "User external ID")
	_ = budgetCmd.MarkPersistentFlagRequired("user")

	budgetSetCmd.Flags().StringP("value", "v", "", "Budget amount")
	budgetSetCmd.Flags().String("unit", "idr", "Unit of the amount (idr, kwh)")
	budgetSetCmd.Flags().String("start", "", "Window start date (YYYY-MM-DD)")
	budgetSetCmd.Flags().String("end", "", "Window end date, inclusive (YYYY-MM-DD)")
	_ = budgetSetCmd.MarkFlagRequired("value")

	for _, c := range []*cobra.Command{budgetShowCmd, budgetStatusCmd} {
		c.Flags().StringP("output", "o", outputTable, "Output format (table, json, yaml)")
	}
}

func runBudgetSet(cmd *cobra.Command, _ []string) error {
	user, _ := cmd.Flags().GetString("user")
	value, _ := cmd.Flags().GetString("value")
	unit, _ := cmd.Flags().GetString("unit")
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		res, err := a.budgets.Write(ctx, user, budget.Input{
			Value: value,
			Unit:  budget.Unit(unit),
			Start: start,
			End:   end,
		})
		if res == nil {
			return fmt.Errorf("set budget: %w", err)
		}

		b := res.Budget
		fmt.Printf("Budget set:\n")
		fmt.Printf("  User:      %s\n", user)
		fmt.Printf("  Amount:    %s\n", units.Label(b.AmountIDR()))
		fmt.Printf("  Window:    %s\n", formatWindow(b.StartDate, b.EndDate))
		fmt.Printf("  Used:      %s (%.1f%%)\n", units.FormatIDR(res.Evaluation.Usage), res.Evaluation.PercentUsed)
		fmt.Printf("  Alert:     %s\n", res.Alert)

		if errors.Is(err, budget.ErrNotificationFailed) {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			return nil
		}
		return err
	})
}

func runBudgetShow(cmd *cobra.Command, _ []string) error {
	user, _ := cmd.Flags().GetString("user")
	format, _ := cmd.Flags().GetString("output")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		view, err := a.budgets.Read(ctx, user)
		if err != nil {
			return fmt.Errorf("read budget: %w", err)
		}
		if done, err := writeStructured(os.Stdout, format, view); done {
			return err
		}

		if view.Budget == nil {
			fmt.Println("No budget configured. Use 'wattsense budget set' to create one.")
			return nil
		}

		b := view.Budget
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "BUDGET\tWINDOW\tSPENT\tREMAINING\tUSAGE\tLAST ALERT\n")
		remaining := b.AmountIDR() - view.CurrentExpenses
		if remaining < 0 {
			remaining = 0
		}
		lastAlert := "-"
		if b.LastAlertSent != nil {
			lastAlert = b.LastAlertSent.In(a.loc).Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f%%%s\t%s\n",
			units.Label(b.AmountIDR()),
			formatWindow(b.StartDate, b.EndDate),
			units.FormatIDR(view.CurrentExpenses),
			units.FormatIDR(remaining),
			view.PercentUsed, levelTag(view.Level),
			lastAlert,
		)
		return w.Flush()
	})
}

func runBudgetStatus(cmd *cobra.Command, _ []string) error {
	user, _ := cmd.Flags().GetString("user")
	format, _ := cmd.Flags().GetString("output")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		status := a.budgets.Status(ctx, user)
		if done, err := writeStructured(os.Stdout, format, status); done {
			return err
		}

		fmt.Printf("Used:        %.1f%%\n", status.PercentUsed)
		if status.LastAlertSent != nil {
			fmt.Printf("Last alert:  %s\n", status.LastAlertSent.In(a.loc).Format("2006-01-02 15:04"))
		} else {
			fmt.Printf("Last alert:  never\n")
		}
		return nil
	})
}

func levelTag(l budget.Level) string {
	switch l {
	case budget.LevelExceeded:
		return " [EXCEEDED]"
	case budget.LevelCritical:
		return " [CRITICAL]"
	case budget.LevelWarning:
		return " [WARNING]"
	default:
		return ""
	}
}
