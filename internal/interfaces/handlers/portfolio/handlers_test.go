package portfolio

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	portfoliosvc "stock-tracker-backend/internal/application/portfolio"
	"stock-tracker-backend/internal/infrastructure/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupPortfolioTest(t *testing.T) (*fiber.App, *gorm.DB) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	h := &Handlers{Service: &portfoliosvc.Service{Store: portfoliosvc.NewGormStore(db), Currency: "USD"}}

	app := fiber.New()
	g := app.Group("/api/v1/portfolio")
	g.Get("/", h.GetPortfolio)
	g.Get("/overview", h.GetOverview)
	g.Get("/events", h.GetEvents)
	g.Post("/purchases", h.AddPurchase)
	g.Post("/sales", h.SellHolding)
	g.Delete("/reset", h.ResetPortfolio)
	return app, db
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var req = httptest.NewRequest(method, path, nil)
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "data is not an object: %v", body["data"])
	return d
}

func errorMessage(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	msg, _ := e["message"].(string)
	return msg
}

func TestAddPurchase_MissingFields(t *testing.T) {
	app, _ := setupPortfolioTest(t)
	code, body := do(t, app, "POST", "/api/v1/portfolio/purchases", map[string]interface{}{
		"symbol": "AAPL", "quantity": 0,
	})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Missing required fields", errorMessage(body))
	details := body["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, []interface{}{"quantity", "averageCost", "purchaseDate"}, details["fields"])
}

func TestAddPurchase_InvalidDate(t *testing.T) {
	app, _ := setupPortfolioTest(t)
	code, _ := do(t, app, "POST", "/api/v1/portfolio/purchases", map[string]interface{}{
		"symbol": "AAPL", "quantity": 1, "averageCost": 10, "purchaseDate": "01/02/2024",
	})
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestAddPurchase_NegativeCostIsValidationError(t *testing.T) {
	app, _ := setupPortfolioTest(t)
	code, body := do(t, app, "POST", "/api/v1/portfolio/purchases", map[string]interface{}{
		"symbol": "AAPL", "quantity": 1, "averageCost": -10, "purchaseDate": "2024-01-01",
	})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Invalid averageCost", errorMessage(body))
}

func TestAddPurchase_CreateAndMerge(t *testing.T) {
	app, _ := setupPortfolioTest(t)
	code, body := do(t, app, "POST", "/api/v1/portfolio/purchases", map[string]interface{}{
		"symbol": "aapl", "quantity": 10, "averageCost": "100", "purchaseDate": "2024-01-01",
	})
	require.Equal(t, fiber.StatusCreated, code)
	created := data(t, body)
	assert.Equal(t, "AAPL", created["symbol"])
	assert.Equal(t, false, body["metadata"].(map[string]interface{})["merged"])

	code, body = do(t, app, "POST", "/api/v1/portfolio/purchases", map[string]interface{}{
		"symbol": "AAPL", "quantity": 10, "averageCost": 200, "purchaseDate": "2024-02-01",
	})
	require.Equal(t, fiber.StatusCreated, code)
	merged := data(t, body)
	assert.Equal(t, created["id"], merged["id"])
	assert.Equal(t, "20", merged["quantity"])
	assert.Equal(t, "150", merged["averageCost"])
	assert.Equal(t, "2024-01-01", merged["purchaseDate"])
	assert.Equal(t, true, body["metadata"].(map[string]interface{})["merged"])
}

func TestSellHolding_Flow(t *testing.T) {
	app, _ := setupPortfolioTest(t)
	_, body := do(t, app, "POST", "/api/v1/portfolio/purchases", map[string]interface{}{
		"symbol": "AAPL", "quantity": 20, "averageCost": 150, "purchaseDate": "2024-01-01",
	})
	holdingID := data(t, body)["id"]

	code, body := do(t, app, "POST", "/api/v1/portfolio/sales", map[string]interface{}{
		"holdingId": holdingID, "quantity": 25, "salePrice": 180, "saleDate": "2024-03-01",
	})
	require.Equal(t, fiber.StatusCreated, code)
	result := data(t, body)
	sale := result["sale"].(map[string]interface{})
	assert.Equal(t, "20", sale["quantity"])
	assert.Equal(t, "3600", sale["proceeds"])
	assert.Equal(t, "600", sale["profit"])
	assert.Nil(t, sale["holdingId"])

	portfolio := result["portfolio"].(map[string]interface{})
	assert.Empty(t, portfolio["holdings"])
	assert.Len(t, portfolio["sales"], 1)
	assert.Equal(t, "600", portfolio["totalProfit"])

	code, body = do(t, app, "GET", "/api/v1/portfolio", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "600", data(t, body)["totalProfit"])
}

func TestSellHolding_StringHoldingID(t *testing.T) {
	app, _ := setupPortfolioTest(t)
	do(t, app, "POST", "/api/v1/portfolio/purchases", map[string]interface{}{
		"symbol": "MSFT", "quantity": 5, "averageCost": 10, "purchaseDate": "2024-01-01",
	})
	code, body := do(t, app, "POST", "/api/v1/portfolio/sales", map[string]interface{}{
		"holdingId": "1", "quantity": "2", "salePrice": "12.5", "saleDate": "2024-03-01",
	})
	require.Equal(t, fiber.StatusCreated, code)
	sale := data(t, body)["sale"].(map[string]interface{})
	assert.Equal(t, float64(1), sale["holdingId"])
	assert.Equal(t, "5", sale["profit"])
}

func TestSellHolding_NotFound(t *testing.T) {
	app, _ := setupPortfolioTest(t)
	code, body := do(t, app, "POST", "/api/v1/portfolio/sales", map[string]interface{}{
		"holdingId": 99, "quantity": 1, "salePrice": 1, "saleDate": "2024-03-01",
	})
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "Holding not found", errorMessage(body))
}

func TestSellHolding_ZeroResultingQuantity(t *testing.T) {
	app, _ := setupPortfolioTest(t)
	do(t, app, "POST", "/api/v1/portfolio/purchases", map[string]interface{}{
		"symbol": "MSFT", "quantity": 5, "averageCost": 10, "purchaseDate": "2024-01-01",
	})
	code, body := do(t, app, "POST", "/api/v1/portfolio/sales", map[string]interface{}{
		"holdingId": 1, "quantity": -3, "salePrice": 1, "saleDate": "2024-03-01",
	})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Invalid quantity to sell", errorMessage(body))
}

func TestSellHolding_MissingFields(t *testing.T) {
	app, _ := setupPortfolioTest(t)
	code, body := do(t, app, "POST", "/api/v1/portfolio/sales", map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Missing required fields", errorMessage(body))
}

func TestSellHolding_StoreFailureIs500(t *testing.T) {
	app, db := setupPortfolioTest(t)
	do(t, app, "POST", "/api/v1/portfolio/purchases", map[string]interface{}{
		"symbol": "MSFT", "quantity": 5, "averageCost": 10, "purchaseDate": "2024-01-01",
	})
	require.NoError(t, db.Exec("DROP TABLE sales").Error)

	code, body := do(t, app, "POST", "/api/v1/portfolio/sales", map[string]interface{}{
		"holdingId": 1, "quantity": 1, "salePrice": 11, "saleDate": "2024-03-01",
	})
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "Failed to sell holding", errorMessage(body))
}

func TestResetAndOverview(t *testing.T) {
	app, _ := setupPortfolioTest(t)
	do(t, app, "POST", "/api/v1/portfolio/purchases", map[string]interface{}{
		"symbol": "AAPL", "quantity": 10, "averageCost": 150, "purchaseDate": "2024-01-01",
	})
	do(t, app, "POST", "/api/v1/portfolio/purchases", map[string]interface{}{
		"symbol": "JKH", "quantity": 50, "averageCost": 10, "purchaseDate": "2024-01-01",
	})

	code, body := do(t, app, "GET", "/api/v1/portfolio/overview", nil)
	require.Equal(t, fiber.StatusOK, code)
	overview := data(t, body)
	assert.Equal(t, float64(2), overview["holdingsCount"])
	assert.Equal(t, "2000", overview["totalValue"])
	assert.Equal(t, "$2,000.00", overview["totalValueFormatted"])
	assert.Len(t, overview["allocation"], 2)

	code, body = do(t, app, "GET", "/api/v1/portfolio/events?limit=1", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["data"], 1)

	code, _ = do(t, app, "DELETE", "/api/v1/portfolio/reset", nil)
	require.Equal(t, fiber.StatusOK, code)

	_, body = do(t, app, "GET", "/api/v1/portfolio", nil)
	view := data(t, body)
	assert.Empty(t, view["holdings"])
	assert.Empty(t, view["sales"])
	assert.Equal(t, "0", view["totalProfit"])
}

func TestAddPurchase_RejectsMoreThanFourDecimals(t *testing.T) {
	app, db := setupPortfolioTest(t)
	code, body := do(t, app, "POST", "/api/v1/portfolio/purchases", map[string]interface{}{
		"symbol": "AAPL", "quantity": "1.23456", "averageCost": 10, "purchaseDate": "2024-01-01",
	})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Invalid quantity", errorMessage(body))

	var count int64
	require.NoError(t, db.Table("holdings").Count(&count).Error)
	assert.Zero(t, count)
}

func TestAddPurchase_RejectsOutOfRangeCost(t *testing.T) {
	app, _ := setupPortfolioTest(t)
	code, body := do(t, app, "POST", "/api/v1/portfolio/purchases", map[string]interface{}{
		"symbol": "AAPL", "quantity": 1, "averageCost": "100000000000000", "purchaseDate": "2024-01-01",
	})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Invalid averageCost", errorMessage(body))
}

func TestSellHolding_RejectsMoreThanFourDecimals(t *testing.T) {
	app, _ := setupPortfolioTest(t)
	do(t, app, "POST", "/api/v1/portfolio/purchases", map[string]interface{}{
		"symbol": "AAPL", "quantity": "1.2346", "averageCost": 10, "purchaseDate": "2024-01-01",
	})
	code, body := do(t, app, "POST", "/api/v1/portfolio/sales", map[string]interface{}{
		"holdingId": 1, "quantity": "1.23456", "salePrice": 11, "saleDate": "2024-03-01",
	})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Invalid quantity", errorMessage(body))

	_, body = do(t, app, "GET", "/api/v1/portfolio", nil)
	holdings := data(t, body)["holdings"].([]interface{})
	require.Len(t, holdings, 1)
	assert.Equal(t, "1.2346", holdings[0].(map[string]interface{})["quantity"])
}
