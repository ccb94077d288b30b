package accounting

import (
	"stock-tracker-backend/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Slice is one holding's share of the portfolio, valued at cost.
type Slice struct {
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	AverageCost decimal.Decimal `json:"averageCost"`
	Value       decimal.Decimal `json:"value"`
	Percentage  decimal.Decimal `json:"percentage"`
}

// Allocation breaks the open holdings down by cost basis.
type Allocation struct {
	Slices        []Slice         `json:"slices"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	OpenShares    decimal.Decimal `json:"openShares"`
	HoldingsCount int             `json:"holdingsCount"`
}

// Allocate values each holding at quantity × average cost and computes its
// percentage of the total. Slices keep the order of holdings.
func Allocate(holdings []domain.Holding) Allocation {
	out := Allocation{
		Slices:        make([]Slice, 0, len(holdings)),
		TotalValue:    decimal.Zero,
		OpenShares:    decimal.Zero,
		HoldingsCount: len(holdings),
	}
	for _, h := range holdings {
		value := h.CostBasis()
		out.TotalValue = out.TotalValue.Add(value)
		out.OpenShares = out.OpenShares.Add(h.Quantity)
		out.Slices = append(out.Slices, Slice{
			Symbol:      h.Symbol,
			Quantity:    h.Quantity,
			AverageCost: h.AverageCost,
			Value:       value,
			Percentage:  decimal.Zero,
		})
	}
	if out.TotalValue.IsPositive() {
		for i := range out.Slices {
			out.Slices[i].Percentage = Round2(out.Slices[i].Value.Div(out.TotalValue).Mul(hundred))
		}
	}
	return out
}
