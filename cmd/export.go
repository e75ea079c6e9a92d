package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the cached dataset's filtered records",
	Long:  "Writes the most recently loaded dataset as CSV, XLSX, or a point shapefile of its geolocated records.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}

		env, err := initDashboard(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		bundle, err := env.Dashboard.RestoreLast(ctx)
		if err != nil {
			return eris.Wrap(err, "restore dataset (run load first)")
		}

		out := exportOut
		if out == "" {
			out = filepath.Join(cfg.Export.Dir, exportName(bundle.Name, exportFormat))
		}

		records := env.Dashboard.FilteredRecords()

		switch exportFormat {
		case "csv":
			f, err := os.Create(out)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer f.Close()
			if err := export.WriteCSV(f, records, bundle.Mapping); err != nil {
				return err
			}
		case "xlsx":
			f, err := os.Create(out)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer f.Close()
			if err := export.WriteXLSX(f, bundle.Name, records, bundle.Mapping); err != nil {
				return err
			}
		case "shp":
			written, err := export.WriteShapefile(out, records)
			if err != nil {
				return err
			}
			zap.L().Info("shapefile written", zap.Int("points", written))
		default:
			return eris.Errorf("unknown export format %q (want csv, xlsx, or shp)", exportFormat)
		}

		fmt.Printf("exported %d records to %s\n", len(records), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "output format (csv, xlsx, shp)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default <export.dir>/<dataset>.<format>)")
	rootCmd.AddCommand(exportCmd)
}
