package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/model"
)

var loadGeocodeFlag bool

var loadCmd = &cobra.Command{
	Use:   "load <source>",
	Short: "Load a dataset from a file, URL, or FTP source",
	Long:  "Parses the source, infers column roles and the field mapping, normalizes records, and caches the dataset for later visualize/export/insight runs.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		source := args[0]

		if err := cfg.Validate("load"); err != nil {
			return err
		}

		env, err := initDashboard(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		rc, err := env.Opener.Open(ctx, source)
		if err != nil {
			return eris.Wrap(err, "open source")
		}
		defer rc.Close()

		bundle, err := env.Dashboard.Load(ctx, rc, ingestOptions(source))
		if err != nil {
			return eris.Wrap(err, "load dataset")
		}

		if loadGeocodeFlag {
			filled, err := env.Dashboard.GeocodeBackfill(ctx)
			if err != nil {
				zap.L().Warn("geocode backfill failed", zap.Error(err))
			} else if filled > 0 {
				fmt.Printf("geocoded %d records\n", filled)
			}
		}

		printProfiles(bundle.Profiles, bundle.Mapping)

		k := env.Dashboard.KPIs()
		fmt.Printf("\n%d records  spend %.2f  payments %.2f  invoices %.0f  %d%% with PO\n",
			k.Records, k.TotalSpend, k.TotalPayments, k.TotalInvoices, k.PercentWithPO)
		return nil
	},
}

func printProfiles(profiles []model.ColumnProfile, mapping model.FieldMapping) {
	bySource := make(map[string]model.Field, len(mapping))
	for f, col := range mapping {
		bySource[col] = f
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tROLE\tCONFIDENCE\tFIELD")
	for _, p := range profiles {
		field := string(bySource[p.Name])
		if field == "" {
			field = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", p.Name, p.Role, p.Confidence, field)
	}
	_ = w.Flush()
}

func init() {
	loadCmd.Flags().BoolVar(&loadGeocodeFlag, "geocode", false, "backfill coordinates for records with a city but no lat/lon")
	rootCmd.AddCommand(loadCmd)
}
