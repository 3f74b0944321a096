// internal/core/domain/summary.go
package domain

import (
	"github.com/shopspring/decimal"
)

// LedgerSummary aggregates stock across all items
type LedgerSummary struct {
	ItemCount   int             `json:"item_count"`
	Available   int             `json:"available"`
	Borrowed    int             `json:"borrowed"`
	Owned       int             `json:"owned"`
	Utilization decimal.Decimal `json:"utilization"`
}

// Summarize totals the counters. Utilization is borrowed over owned,
// rounded to four places, and zero for an empty ledger.
func Summarize(items []Item) LedgerSummary {
	s := LedgerSummary{ItemCount: len(items), Utilization: decimal.Zero}
	for _, item := range items {
		s.Available += item.Quantity
		s.Borrowed += item.BorrowedQuantity
	}
	s.Owned = s.Available + s.Borrowed

	if s.Owned > 0 {
		s.Utilization = decimal.NewFromInt(int64(s.Borrowed)).
			Div(decimal.NewFromInt(int64(s.Owned))).
			Round(4)
	}
	return s
}
