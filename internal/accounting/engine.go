// Package accounting implements weighted-average cost merging, sale splitting
// and realized profit totals. Functions are pure: callers own persistence.
package accounting

import (
	"strings"

	"stock-tracker-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Purchase is an incoming buy of Quantity shares at AverageCost each.
type Purchase struct {
	Symbol       string
	Quantity     decimal.Decimal
	AverageCost  decimal.Decimal
	PurchaseDate string
}

// SaleRequest asks to sell Quantity shares at SalePrice.
type SaleRequest struct {
	Quantity  decimal.Decimal
	SalePrice decimal.Decimal
	SaleDate  string
}

// SaleOutcome is the result of ExecuteSale. Holding is nil when the sale
// exhausted the position and the caller must delete it.
type SaleOutcome struct {
	Holding *domain.Holding
	Sale    domain.Sale
}

// Limits of the numeric(18,4) share and price columns and the numeric(18,2)
// money columns. Inputs beyond them would be rounded or rejected by Postgres.
const (
	AmountScale = 4
	MoneyScale  = 2
)

var (
	maxAmount = decimal.New(1, 18-AmountScale)
	maxMoney  = decimal.New(1, 18-MoneyScale)
)

// checkAmount rejects values the share and price columns cannot hold exactly.
func checkAmount(field string, v decimal.Decimal) error {
	if !v.Truncate(AmountScale).Equal(v) {
		return invalid(field, "must have at most 4 decimal places")
	}
	if v.Abs().GreaterThanOrEqual(maxAmount) {
		return invalid(field, "is too large")
	}
	return nil
}

// NormalizeSymbol trims and uppercases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MergePurchase folds a purchase into the existing holding for its symbol,
// or builds a new holding when existing is nil. The id of existing is kept.
func MergePurchase(existing *domain.Holding, in Purchase) (domain.Holding, error) {
	symbol := NormalizeSymbol(in.Symbol)
	purchaseDate := strings.TrimSpace(in.PurchaseDate)
	switch {
	case symbol == "":
		return domain.Holding{}, invalid("symbol", "is required")
	case !in.Quantity.IsPositive():
		return domain.Holding{}, invalid("quantity", "must be greater than zero")
	case !in.AverageCost.IsPositive():
		return domain.Holding{}, invalid("averageCost", "must be greater than zero")
	case purchaseDate == "":
		return domain.Holding{}, invalid("purchaseDate", "is required")
	}
	if err := checkAmount("quantity", in.Quantity); err != nil {
		return domain.Holding{}, err
	}
	if err := checkAmount("averageCost", in.AverageCost); err != nil {
		return domain.Holding{}, err
	}

	if existing == nil {
		return domain.Holding{
			Symbol:       symbol,
			Quantity:     in.Quantity,
			AverageCost:  in.AverageCost,
			PurchaseDate: purchaseDate,
		}, nil
	}
	if NormalizeSymbol(existing.Symbol) != symbol {
		return domain.Holding{}, invalid("symbol", "does not match the existing holding")
	}

	totalQuantity := existing.Quantity.Add(in.Quantity)
	if totalQuantity.GreaterThanOrEqual(maxAmount) {
		return domain.Holding{}, invalid("quantity", "would make the holding too large")
	}
	totalCost := existing.AverageCost.Mul(existing.Quantity).Add(in.AverageCost.Mul(in.Quantity))

	merged := *existing
	merged.Quantity = totalQuantity
	merged.AverageCost = decimal.Zero
	if !totalQuantity.IsZero() {
		merged.AverageCost = Round2(totalCost.Div(totalQuantity))
	}
	merged.PurchaseDate = earliestDate(existing.PurchaseDate, purchaseDate)
	return merged, nil
}

// earliestDate compares ISO dates lexicographically; an empty side loses.
func earliestDate(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if b < a {
		return b
	}
	return a
}

// ExecuteSale cuts a sale from h. Requests above the held quantity are capped
// to it; a request that resolves to zero shares fails with ErrInvalidQuantity.
// Quantity and price must fit the share and price columns.
func ExecuteSale(h domain.Holding, req SaleRequest) (SaleOutcome, error) {
	if err := checkAmount("quantity", req.Quantity); err != nil {
		return SaleOutcome{}, err
	}
	if err := checkAmount("salePrice", req.SalePrice); err != nil {
		return SaleOutcome{}, err
	}
	quantityToSell := decimal.Max(decimal.Zero, decimal.Min(req.Quantity, h.Quantity))
	if !quantityToSell.IsPositive() {
		return SaleOutcome{}, ErrInvalidQuantity
	}
	saleDate := strings.TrimSpace(req.SaleDate)
	if !req.SalePrice.IsPositive() {
		return SaleOutcome{}, invalid("salePrice", "must be greater than zero")
	}
	if saleDate == "" {
		return SaleOutcome{}, invalid("saleDate", "is required")
	}

	proceeds := Round2(quantityToSell.Mul(req.SalePrice))
	costBasis := quantityToSell.Mul(h.AverageCost)
	profit := Round2(proceeds.Sub(costBasis))
	if proceeds.Abs().GreaterThanOrEqual(maxMoney) || profit.Abs().GreaterThanOrEqual(maxMoney) {
		return SaleOutcome{}, invalid("salePrice", "gives proceeds that are too large")
	}
	remaining := h.Quantity.Sub(quantityToSell)

	out := SaleOutcome{
		Sale: domain.Sale{
			Symbol:       h.Symbol,
			Quantity:     quantityToSell,
			SalePrice:    req.SalePrice,
			Proceeds:     proceeds,
			Profit:       profit,
			PurchaseDate: h.PurchaseDate,
			SaleDate:     saleDate,
		},
	}
	if remaining.IsPositive() {
		updated := h
		updated.Quantity = remaining
		holdingID := h.ID
		out.Holding = &updated
		out.Sale.HoldingID = &holdingID
	}
	return out, nil
}

// TotalRealizedProfit sums Profit over sales. Zero for an empty slice.
func TotalRealizedProfit(sales []domain.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sales {
		total = total.Add(s.Profit)
	}
	return total
}
