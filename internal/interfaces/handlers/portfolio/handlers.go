package portfolio

import (
	"encoding/json"
	"errors"
	"strconv"

	"stock-tracker-backend/internal/accounting"
	portfoliosvc "stock-tracker-backend/internal/application/portfolio"
	"stock-tracker-backend/internal/middleware"
	"stock-tracker-backend/internal/pkg/response"
	"stock-tracker-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Handlers bundles portfolio handlers.
type Handlers struct {
	Service *portfoliosvc.Service
}

// GetPortfolio GET /api/v1/portfolio
func (h *Handlers) GetPortfolio(c *fiber.Ctx) error {
	view, err := h.Service.Portfolio(c.Context())
	if err != nil {
		return h.fail(c, err, "Failed to fetch portfolio")
	}
	return response.Success(c, "Portfolio fetched successfully", view, nil)
}

// Numbers may arrive as JSON numbers or numeric strings; nil means absent.
type purchaseRequest struct {
	Symbol       string           `json:"symbol"`
	Quantity     *decimal.Decimal `json:"quantity"`
	AverageCost  *decimal.Decimal `json:"averageCost"`
	PurchaseDate string           `json:"purchaseDate"`
}

// AddPurchase POST /api/v1/portfolio/purchases
func (h *Handlers) AddPurchase(c *fiber.Ctx) error {
	var req purchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	if missing := missingFields(map[string]bool{
		"symbol":       req.Symbol == "",
		"quantity":     isZero(req.Quantity),
		"averageCost":  isZero(req.AverageCost),
		"purchaseDate": req.PurchaseDate == "",
	}); len(missing) > 0 {
		return response.BadRequest(c, "Missing required fields", fiber.Map{"fields": missing})
	}
	if !validation.IsValidSymbol(req.Symbol) {
		return response.BadRequest(c, "Invalid symbol", fiber.Map{"field": "symbol"})
	}
	if !validation.IsISODate(req.PurchaseDate) {
		return response.BadRequest(c, "Invalid date format (expected YYYY-MM-DD)", fiber.Map{"field": "purchaseDate"})
	}

	holding, merged, err := h.Service.AddPurchase(c.Context(), accounting.Purchase{
		Symbol:       req.Symbol,
		Quantity:     *req.Quantity,
		AverageCost:  *req.AverageCost,
		PurchaseDate: req.PurchaseDate,
	})
	if err != nil {
		return h.fail(c, err, "Failed to add purchase")
	}
	msg := "Holding created successfully"
	if merged {
		msg = "Purchase merged into existing holding"
	}
	return response.SuccessCreated(c, msg, holding, fiber.Map{"merged": merged})
}

type saleRequest struct {
	HoldingID json.Number      `json:"holdingId"`
	Quantity  *decimal.Decimal `json:"quantity"`
	SalePrice *decimal.Decimal `json:"salePrice"`
	SaleDate  string           `json:"saleDate"`
}

// SellHolding POST /api/v1/portfolio/sales
func (h *Handlers) SellHolding(c *fiber.Ctx) error {
	var req saleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	if missing := missingFields(map[string]bool{
		"holdingId": req.HoldingID == "",
		"quantity":  isZero(req.Quantity),
		"salePrice": isZero(req.SalePrice),
		"saleDate":  req.SaleDate == "",
	}); len(missing) > 0 {
		return response.BadRequest(c, "Missing required fields", fiber.Map{"fields": missing})
	}
	holdingID, err := strconv.ParseUint(req.HoldingID.String(), 10, 64)
	if err != nil || holdingID == 0 {
		return response.BadRequest(c, "Invalid holdingId", fiber.Map{"field": "holdingId"})
	}
	if !validation.IsISODate(req.SaleDate) {
		return response.BadRequest(c, "Invalid date format (expected YYYY-MM-DD)", fiber.Map{"field": "saleDate"})
	}

	result, err := h.Service.SellHolding(c.Context(), uint(holdingID), accounting.SaleRequest{
		Quantity:  *req.Quantity,
		SalePrice: *req.SalePrice,
		SaleDate:  req.SaleDate,
	})
	if err != nil {
		return h.fail(c, err, "Failed to sell holding")
	}
	return response.SuccessCreated(c, "Sale recorded successfully", result, nil)
}

// ResetPortfolio DELETE /api/v1/portfolio/reset
func (h *Handlers) ResetPortfolio(c *fiber.Ctx) error {
	if err := h.Service.Reset(c.Context()); err != nil {
		return h.fail(c, err, "Failed to reset portfolio")
	}
	return response.Success(c, "Portfolio reset successfully", nil, nil)
}

// GetOverview GET /api/v1/portfolio/overview
func (h *Handlers) GetOverview(c *fiber.Ctx) error {
	overview, err := h.Service.Overview(c.Context())
	if err != nil {
		return h.fail(c, err, "Failed to build portfolio overview")
	}
	return response.Success(c, "Portfolio overview fetched successfully", overview, nil)
}

// GetEvents GET /api/v1/portfolio/events?limit=n
func (h *Handlers) GetEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", portfoliosvc.DefaultEventLimit)
	events, err := h.Service.Events(c.Context(), limit)
	if err != nil {
		return h.fail(c, err, "Failed to fetch portfolio events")
	}
	return response.Success(c, "Portfolio events fetched successfully", events, fiber.Map{"count": len(events)})
}

// fail maps service errors to responses. Only unexpected errors are logged.
func (h *Handlers) fail(c *fiber.Ctx, err error, fallback string) error {
	var ve *accounting.ValidationError
	switch {
	case errors.As(err, &ve):
		return response.BadRequest(c, "Invalid "+ve.Field, fiber.Map{"field": ve.Field, "reason": ve.Message})
	case errors.Is(err, accounting.ErrInvalidQuantity):
		return response.BadRequest(c, err.Error(), nil)
	case errors.Is(err, portfoliosvc.ErrHoldingNotFound):
		return response.NotFound(c, err.Error())
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg(fallback)
	return response.Error(c, fallback, fiber.StatusInternalServerError, nil)
}

// isZero treats an absent number like the zero value, as form posts send 0 for empty inputs.
func isZero(d *decimal.Decimal) bool {
	return d == nil || d.IsZero()
}

func missingFields(checks map[string]bool) []string {
	order := []string{"symbol", "holdingId", "quantity", "averageCost", "salePrice", "purchaseDate", "saleDate"}
	missing := []string{}
	for _, name := range order {
		if checks[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
