package aggregate

import (
	"math"

	"github.com/sells-group/insight-cli/internal/model"
)

// KPIs are the headline numbers shown above the charts.
type KPIs struct {
	Records       int     `json:"records"`
	TotalSpend    float64 `json:"totalSpend"`
	TotalPayments float64 `json:"totalPayments"`
	TotalInvoices float64 `json:"totalInvoices"`
	PercentWithPO int     `json:"percentWithPO"`
}

// ComputeKPIs sums the headline metrics over the filtered record set.
func ComputeKPIs(records []model.Record) KPIs {
	k := KPIs{Records: len(records)}
	var withPO int
	for _, rec := range records {
		k.TotalSpend += rec.NumericValue(model.FieldSpend)
		k.TotalPayments += rec.NumericValue(model.FieldPayments)
		k.TotalInvoices += rec.NumericValue(model.FieldInvoiceCount)
		if rec.HasPO {
			withPO++
		}
	}
	if len(records) > 0 {
		k.PercentWithPO = int(math.Round(float64(withPO) / float64(len(records)) * 100))
	}
	return k
}
