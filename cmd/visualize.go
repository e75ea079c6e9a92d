package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/insight-cli/internal/dashboard"
	"github.com/sells-group/insight-cli/internal/filter"
	"github.com/sells-group/insight-cli/internal/model"
)

var (
	vizChart    string
	vizJSON     bool
	vizEquals   []string
	vizRanges   []string
	vizSearch   string
	vizShowKPIs bool
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize",
	Short: "Aggregate the cached dataset into a chart",
	Long:  "Reloads the most recently loaded dataset, applies any filters, selects a chart archetype (auto picks from the mapped fields), and prints the aggregation.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("visualize"); err != nil {
			return err
		}

		env, err := initDashboard(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if _, err := env.Dashboard.RestoreLast(ctx); err != nil {
			return eris.Wrap(err, "restore dataset (run load first)")
		}

		if err := applyFilterFlags(env.Dashboard); err != nil {
			return err
		}

		result, err := env.Dashboard.Visualize(model.ChartType(vizChart))
		if err != nil {
			return eris.Wrap(err, "visualize")
		}

		if vizJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printResult(result)
		if vizShowKPIs {
			k := env.Dashboard.KPIs()
			fmt.Printf("\n%d records  spend %.2f  payments %.2f  %d%% with PO\n",
				k.Records, k.TotalSpend, k.TotalPayments, k.PercentWithPO)
		}
		return nil
	},
}

// applyFilterFlags installs the --equals/--range/--search predicates.
func applyFilterFlags(d *dashboard.Dashboard) error {
	for _, arg := range vizEquals {
		field, value, ok := strings.Cut(arg, "=")
		if !ok {
			return eris.Errorf("--equals wants field=value, got %q", arg)
		}
		d.SetFilter(filter.Equals(model.Field(field), value))
	}
	for _, arg := range vizRanges {
		field, bounds, ok := strings.Cut(arg, "=")
		if !ok {
			return eris.Errorf("--range wants field=min:max, got %q", arg)
		}
		lo, hi, ok := strings.Cut(bounds, ":")
		if !ok {
			return eris.Errorf("--range wants field=min:max, got %q", arg)
		}
		min, err := parseBound(lo)
		if err != nil {
			return err
		}
		max, err := parseBound(hi)
		if err != nil {
			return err
		}
		d.SetFilter(filter.Range(model.Field(field), min, max))
	}
	if vizSearch != "" {
		d.SetFilter(filter.TextContains(vizSearch))
	}
	return nil
}

// parseBound parses one side of a min:max range; empty means unbounded.
func parseBound(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "range bound %q", s)
	}
	return &v, nil
}

func printResult(result *model.AggregationResult) {
	fmt.Printf("chart: %s\n", result.Spec.Type)

	switch {
	case result.Series != nil:
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LABEL\tVALUE")
		for _, p := range result.Series {
			fmt.Fprintf(w, "%s\t%.2f\n", p.Label, p.Value)
		}
		_ = w.Flush()
	case result.Points != nil:
		fmt.Printf("%d points (x=%s y=%s)\n", len(result.Points), result.Spec.X, result.Spec.Y)
	case result.Matrix != nil:
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		header := make([]string, 0, len(result.Matrix.Fields)+1)
		header = append(header, "")
		for _, f := range result.Matrix.Fields {
			header = append(header, string(f))
		}
		fmt.Fprintln(w, strings.Join(header, "\t"))
		for i, f := range result.Matrix.Fields {
			row := []string{string(f)}
			for _, v := range result.Matrix.Values[i] {
				row = append(row, fmt.Sprintf("%.2f", v))
			}
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		_ = w.Flush()
	default:
		fmt.Println("table view: render the filtered records directly")
	}
}

func init() {
	visualizeCmd.Flags().StringVar(&vizChart, "chart", "auto", "chart type (auto, bar, pie, line, scatter, bubble, histogram, heatmap, treemap, table)")
	visualizeCmd.Flags().BoolVar(&vizJSON, "json", false, "print the aggregation as JSON")
	visualizeCmd.Flags().StringArrayVar(&vizEquals, "equals", nil, "category filter, field=value (repeatable)")
	visualizeCmd.Flags().StringArrayVar(&vizRanges, "range", nil, "numeric filter, field=min:max (repeatable, empty bound is open)")
	visualizeCmd.Flags().StringVar(&vizSearch, "search", "", "free-text filter across all fields")
	visualizeCmd.Flags().BoolVar(&vizShowKPIs, "kpis", false, "print KPI totals under the chart")
	rootCmd.AddCommand(visualizeCmd)
}
