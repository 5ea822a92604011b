package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/wattsense/pkg/ingest"
	"github.com/ogulcanaydogan/wattsense/pkg/model"
	"github.com/ogulcanaydogan/wattsense/pkg/units"
)

var readingsCmd = &cobra.Command{
	Use:   "readings",
	Short: "Import and inspect sensor readings",
}

var readingsImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import readings for one sensor series from CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runReadingsImport,
}

var readingsLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent readings",
	RunE:  runReadingsLatest,
}

func init() {
	rootCmd.AddCommand(readingsCmd)
	readingsCmd.AddCommand(readingsImportCmd)
	readingsCmd.AddCommand(readingsLatestCmd)

	readingsCmd.PersistentFlags().StringP("series", "s", string(model.SeriesA), "Sensor series (a, b)")

	readingsLatestCmd.Flags().IntP("limit", "n", 10, "Number of readings")
	readingsLatestCmd.Flags().StringP("output", "o", outputTable, "Output format (table, json, yaml)")
}

func seriesFlag(cmd *cobra.Command) (model.Series, error) {
	raw, _ := cmd.Flags().GetString("series")
	for _, s := range model.AllSeries {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown series %q (want a or b)", raw)
}

func runReadingsImport(cmd *cobra.Command, args []string) error {
	series, err := seriesFlag(cmd)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		readings, err := ingest.ParseCSV(f, a.loc)
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		var total float64
		for i := range readings {
			if err := a.store.InsertReading(ctx, series, &readings[i]); err != nil {
				return fmt.Errorf("after %d readings: %w", i, err)
			}
			total += readings[i].Price
		}

		fmt.Printf("Imported %d readings into %s (%s)\n", len(readings), series.Label(), units.FormatIDR(total))
		return nil
	})
}

func runReadingsLatest(cmd *cobra.Command, _ []string) error {
	series, err := seriesFlag(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("output")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		readings, err := a.store.LatestReadings(ctx, series, limit)
		if err != nil {
			return err
		}
		if done, err := writeStructured(os.Stdout, format, readings); done {
			return err
		}

		if len(readings) == 0 {
			fmt.Printf("No readings for %s.\n", series.Label())
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "TIME\tVOLTAGE\tAMPERE\tPOWER\tENERGY\tPF\tPRICE\n")
		for _, r := range readings {
			fmt.Fprintf(w, "%s\t%.1f V\t%.2f A\t%.0f W\t%s\t%.2f\t%s\n",
				r.Timestamp.In(a.loc).Format("2006-01-02 15:04:05"),
				r.Voltage, r.Ampere, r.Power,
				units.FormatKWh(r.Energy), r.PowerFactor,
				units.FormatIDR(r.Price),
			)
		}
		return w.Flush()
	})
}
