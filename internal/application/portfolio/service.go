package portfolio

import (
	"context"
	"encoding/json"
	"errors"

	"stock-tracker-backend/internal/accounting"
	"stock-tracker-backend/internal/domain"
	"stock-tracker-backend/internal/pkg/currency"
	"stock-tracker-backend/internal/pkg/keylock"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultEventLimit = 50
	MaxEventLimit     = 200
)

// Service runs purchases and sales through the accounting engine and
// persists the result. Mutations of one symbol are serialized.
type Service struct {
	Store    Store
	Currency string

	locks keylock.Locker
}

// View is the aggregate portfolio returned by reads and after each sale.
type View struct {
	Holdings    []domain.Holding `json:"holdings"`
	Sales       []domain.Sale    `json:"sales"`
	TotalProfit decimal.Decimal  `json:"totalProfit"`
}

// SaleResult is the contract of SellHolding: the new sale plus the refreshed portfolio.
type SaleResult struct {
	Sale      domain.Sale `json:"sale"`
	Portfolio *View       `json:"portfolio"`
}

// Portfolio returns holdings by symbol, sales newest first and the realized profit total.
func (s *Service) Portfolio(ctx context.Context) (*View, error) {
	holdings, err := s.Store.ListHoldings(ctx)
	if err != nil {
		return nil, persistence("list holdings", err)
	}
	sales, err := s.Store.ListSales(ctx)
	if err != nil {
		return nil, persistence("list sales", err)
	}
	total, err := s.Store.SumSaleProfit(ctx)
	if err != nil {
		return nil, persistence("sum profit", err)
	}
	return &View{Holdings: holdings, Sales: sales, TotalProfit: total}, nil
}

// AddPurchase merges the purchase into the holding for its symbol, creating
// the holding when none is open. merged reports which of the two happened.
// If another process creates the same symbol first, the purchase is retried
// once as a merge.
func (s *Service) AddPurchase(ctx context.Context, p accounting.Purchase) (*domain.Holding, bool, error) {
	symbol := accounting.NormalizeSymbol(p.Symbol)
	unlock := s.locks.Lock(symbol)
	defer unlock()

	holding, merged, err := s.addPurchase(ctx, symbol, p)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		log.Debug().Str("symbol", symbol).Msg("Holding created concurrently, merging instead")
		holding, merged, err = s.addPurchase(ctx, symbol, p)
	}
	if err != nil {
		return nil, false, classify("add purchase", err)
	}
	log.Debug().Str("symbol", holding.Symbol).Uint("holding_id", holding.ID).Bool("merged", merged).Msg("Purchase recorded")
	return holding, merged, nil
}

func (s *Service) addPurchase(ctx context.Context, symbol string, p accounting.Purchase) (holding *domain.Holding, merged bool, err error) {
	err = s.Store.Transaction(ctx, func(tx Store) error {
		existing, err := tx.FindHoldingBySymbol(ctx, symbol)
		if err != nil {
			return persistence("find holding", err)
		}
		next, err := accounting.MergePurchase(existing, p)
		if err != nil {
			return err
		}

		eventType := domain.EventPurchaseCreated
		if existing != nil {
			merged = true
			eventType = domain.EventPurchaseMerged
			if err := tx.UpdateHolding(ctx, &next); err != nil {
				return persistence("update holding", err)
			}
		} else if err := tx.CreateHolding(ctx, &next); err != nil {
			return persistence("create holding", err)
		}

		if err := s.journal(ctx, tx, eventType, next.Symbol, &next.ID, map[string]interface{}{
			"quantity":     p.Quantity,
			"averageCost":  p.AverageCost,
			"purchaseDate": p.PurchaseDate,
			"holding":      next,
		}); err != nil {
			return err
		}
		holding = &next
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return holding, merged, nil
}

// SellHolding sells from the holding with holdingID and returns the sale
// together with the refreshed portfolio.
func (s *Service) SellHolding(ctx context.Context, holdingID uint, req accounting.SaleRequest) (*SaleResult, error) {
	sale, err := s.sell(ctx, holdingID, req)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("symbol", sale.Symbol).Uint("sale_id", sale.ID).Str("profit", sale.Profit.StringFixed(2)).Msg("Sale recorded")

	view, err := s.Portfolio(ctx)
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale, Portfolio: view}, nil
}

func (s *Service) sell(ctx context.Context, holdingID uint, req accounting.SaleRequest) (domain.Sale, error) {
	current, err := s.Store.FindHoldingByID(ctx, holdingID)
	if err != nil {
		return domain.Sale{}, persistence("find holding", err)
	}
	if current == nil {
		return domain.Sale{}, ErrHoldingNotFound
	}
	unlock := s.locks.Lock(accounting.NormalizeSymbol(current.Symbol))
	defer unlock()

	var sale domain.Sale
	err = s.Store.Transaction(ctx, func(tx Store) error {
		// re-read under lock: a concurrent sale may have shrunk or closed it
		h, err := tx.FindHoldingByID(ctx, holdingID)
		if err != nil {
			return persistence("find holding", err)
		}
		if h == nil {
			return ErrHoldingNotFound
		}
		out, err := accounting.ExecuteSale(*h, req)
		if err != nil {
			return err
		}

		if out.Holding != nil {
			if err := tx.UpdateHolding(ctx, out.Holding); err != nil {
				return persistence("update holding", err)
			}
		} else if err := tx.DeleteHolding(ctx, h.ID); err != nil {
			return persistence("delete holding", err)
		}

		sale = out.Sale
		if err := tx.CreateSale(ctx, &sale); err != nil {
			return persistence("create sale", err)
		}
		if err := s.journal(ctx, tx, domain.EventSaleExecuted, sale.Symbol, sale.HoldingID, map[string]interface{}{
			"saleId":            sale.ID,
			"requestedQuantity": req.Quantity,
			"quantity":          sale.Quantity,
			"salePrice":         sale.SalePrice,
			"proceeds":          sale.Proceeds,
			"profit":            sale.Profit,
			"averageCost":       h.AverageCost,
		}); err != nil {
			return err
		}
		if out.Holding == nil {
			return s.journal(ctx, tx, domain.EventHoldingClosed, h.Symbol, nil, map[string]interface{}{
				"holdingId":    h.ID,
				"purchaseDate": h.PurchaseDate,
				"saleDate":     sale.SaleDate,
			})
		}
		return nil
	})
	if err != nil {
		return domain.Sale{}, classify("sell holding", err)
	}
	return sale, nil
}

// Reset deletes every holding, sale and journal entry.
func (s *Service) Reset(ctx context.Context) error {
	return persistence("reset portfolio", s.Store.Reset(ctx))
}

// Events returns journal entries newest first. A non-positive limit selects
// DefaultEventLimit; larger limits are capped at MaxEventLimit.
func (s *Service) Events(ctx context.Context, limit int) ([]domain.PortfolioEvent, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	if limit > MaxEventLimit {
		limit = MaxEventLimit
	}
	events, err := s.Store.ListEvents(ctx, limit)
	if err != nil {
		return nil, persistence("list events", err)
	}
	return events, nil
}

// AllocationSlice is an accounting.Slice with its value formatted for display.
type AllocationSlice struct {
	accounting.Slice
	ValueFormatted string `json:"valueFormatted"`
}

// Overview is the data behind the summary card and the allocation chart.
type Overview struct {
	Currency             string            `json:"currency"`
	HoldingsCount        int               `json:"holdingsCount"`
	OpenShares           decimal.Decimal   `json:"openShares"`
	TotalValue           decimal.Decimal   `json:"totalValue"`
	TotalValueFormatted  string            `json:"totalValueFormatted"`
	TotalProfit          decimal.Decimal   `json:"totalProfit"`
	TotalProfitFormatted string            `json:"totalProfitFormatted"`
	Allocation           []AllocationSlice `json:"allocation"`
}

// Overview values open holdings at cost and totals realized profit.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	holdings, err := s.Store.ListHoldings(ctx)
	if err != nil {
		return nil, persistence("list holdings", err)
	}
	sales, err := s.Store.ListSales(ctx)
	if err != nil {
		return nil, persistence("list sales", err)
	}

	code := s.Currency
	if code == "" {
		code = currency.DefaultCode
	}
	alloc := accounting.Allocate(holdings)
	profit := accounting.TotalRealizedProfit(sales)
	out := &Overview{
		Currency:             code,
		HoldingsCount:        alloc.HoldingsCount,
		OpenShares:           alloc.OpenShares,
		TotalValue:           alloc.TotalValue,
		TotalValueFormatted:  currency.Format(alloc.TotalValue, code),
		TotalProfit:          profit,
		TotalProfitFormatted: currency.Format(profit, code),
		Allocation:           make([]AllocationSlice, 0, len(alloc.Slices)),
	}
	for _, slice := range alloc.Slices {
		out.Allocation = append(out.Allocation, AllocationSlice{
			Slice:          slice,
			ValueFormatted: currency.Format(slice.Value, code),
		})
	}
	return out, nil
}

func (s *Service) journal(ctx context.Context, tx Store, eventType, symbol string, holdingID *uint, data map[string]interface{}) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if holdingID != nil && *holdingID == 0 {
		holdingID = nil
	}
	if err := tx.CreateEvent(ctx, &domain.PortfolioEvent{
		EventType: eventType,
		Symbol:    symbol,
		HoldingID: holdingID,
		EventData: datatypes.JSON(b),
	}); err != nil {
		return persistence("create event", err)
	}
	return nil
}

// IsUserError reports whether err is caused by the request rather than the system.
func IsUserError(err error) bool {
	return errors.Is(err, accounting.ErrValidation) ||
		errors.Is(err, accounting.ErrInvalidQuantity) ||
		errors.Is(err, ErrHoldingNotFound)
}

// classify keeps request errors as they are and wraps everything else,
// including commit failures, in a PersistenceError.
func classify(op string, err error) error {
	if IsUserError(err) {
		return err
	}
	return persistence(op, err)
}
