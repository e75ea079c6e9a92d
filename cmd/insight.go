package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/insight-cli/internal/dashboard"
	"github.com/sells-group/insight-cli/internal/model"
	"github.com/sells-group/insight-cli/pkg/insight"
)

var insightCmd = &cobra.Command{
	Use:   "insight",
	Short: "Summarize the cached dataset with Claude",
	Long:  "Builds a numeric digest of the cached dataset (KPIs, top categories, monthly totals) and asks the Anthropic API for a short prose summary. Raw rows never leave the machine.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("insight"); err != nil {
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

		sum := buildSummary(env.Dashboard, bundle)

		gen := insight.NewGenerator(insight.Config{
			APIKey:    cfg.Anthropic.Key,
			Model:     cfg.Anthropic.Model,
			MaxTokens: int64(cfg.Anthropic.MaxTokens),
		})

		text, err := gen.Generate(ctx, sum)
		if err != nil {
			return eris.Wrap(err, "generate insight")
		}

		fmt.Println(text)
		return nil
	},
}

// buildSummary digests the dataset into aggregates for the prompt.
func buildSummary(d *dashboard.Dashboard, bundle *dashboard.Bundle) insight.Summary {
	k := d.KPIs()

	var mapped []string
	for _, f := range model.Fields {
		if bundle.Mapping.Has(f) {
			mapped = append(mapped, string(f))
		}
	}

	sum := insight.Summary{
		DatasetName:   bundle.Name,
		RecordCount:   k.Records,
		MappedFields:  mapped,
		TotalSpend:    k.TotalSpend,
		TotalPayments: k.TotalPayments,
		PercentWithPO: k.PercentWithPO,
	}

	if result, err := d.Visualize(model.ChartBar); err == nil {
		for _, p := range result.Series {
			sum.TopCategories = append(sum.TopCategories, insight.CategoryShare{
				Label: p.Label,
				Value: p.Value,
			})
		}
	}
	if result, err := d.Visualize(model.ChartLine); err == nil {
		for _, p := range result.Series {
			sum.MonthlySpend = append(sum.MonthlySpend, insight.MonthTotal{
				Month: p.Label,
				Value: p.Value,
			})
		}
	}

	return sum
}

func init() {
	rootCmd.AddCommand(insightCmd)
}
