// Package insight generates a short natural-language summary of the
// loaded dataset (notable categories, trends, outliers) using the
// Anthropic API.
package insight

import (
	"context"
	"fmt"
	"strings"
)

// Generator produces a dataset summary.
type Generator interface {
	Generate(ctx context.Context, sum Summary) (string, error)
}

// Summary is the numeric digest the prompt is built from. It carries
// aggregates only, never raw rows, so record-level values stay local.
type Summary struct {
	DatasetName   string
	RecordCount   int
	MappedFields  []string
	TotalSpend    float64
	TotalPayments float64
	PercentWithPO int
	TopCategories []CategoryShare
	MonthlySpend  []MonthTotal
}

// CategoryShare is one category bucket's share of the total.
type CategoryShare struct {
	Label string
	Value float64
}

// MonthTotal is one month's metric total.
type MonthTotal struct {
	Month string
	Value float64
}

const systemPrompt = "You are a data analyst. Given a numeric digest of a tabular dataset, " +
	"write a concise summary (3-5 sentences) of the most notable patterns: dominant categories, " +
	"trends over time, and anything unusual. Plain prose, no headers or bullet points."

// BuildPrompt renders the digest the model sees. Kept deterministic so
// the same dataset always produces the same prompt.
func BuildPrompt(sum Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dataset: %s\n", sum.DatasetName)
	fmt.Fprintf(&b, "Records: %d\n", sum.RecordCount)
	if len(sum.MappedFields) > 0 {
		fmt.Fprintf(&b, "Mapped fields: %s\n", strings.Join(sum.MappedFields, ", "))
	}
	fmt.Fprintf(&b, "Total spend: %.2f\n", sum.TotalSpend)
	if sum.TotalPayments != 0 {
		fmt.Fprintf(&b, "Total payments: %.2f\n", sum.TotalPayments)
	}
	fmt.Fprintf(&b, "Records with purchase order: %d%%\n", sum.PercentWithPO)

	if len(sum.TopCategories) > 0 {
		b.WriteString("Top categories by spend:\n")
		for _, c := range sum.TopCategories {
			fmt.Fprintf(&b, "  %s: %.2f\n", c.Label, c.Value)
		}
	}
	if len(sum.MonthlySpend) > 0 {
		b.WriteString("Monthly totals:\n")
		for _, m := range sum.MonthlySpend {
			fmt.Fprintf(&b, "  %s: %.2f\n", m.Month, m.Value)
		}
	}

	return b.String()
}
