package router

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"stock-tracker-backend/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:                 "test",
		DatabaseURL:         "sqlite:" + filepath.Join(t.TempDir(), "portfolio.db"),
		FrontendURLEndsWith: ".example.com",
		HealthAdminKey:      "admin",
		Currency:            "USD",
		LogLevel:            "error",
	}
}

func TestCreateApp_PortfolioRoundTrip(t *testing.T) {
	app, db, rdb, err := CreateApp(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Nil(t, rdb)

	body, _ := json.Marshal(map[string]interface{}{
		"symbol": "JKH", "quantity": 100, "averageCost": 195.5, "purchaseDate": "2024-05-02",
	})
	req := httptest.NewRequest("POST", "/api/v1/portfolio/purchases", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-Id"))

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/portfolio", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out struct {
		Status string `json:"status"`
		Data   struct {
			Holdings []map[string]interface{} `json:"holdings"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "success", out.Status)
	require.Len(t, out.Data.Holdings, 1)
	assert.Equal(t, "JKH", out.Data.Holdings[0]["symbol"])
}

func TestCreateApp_HealthAndNotFound(t *testing.T) {
	app, _, _, err := CreateApp(testConfig(t))
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreateApp_CORSRejectsForeignOrigin(t *testing.T) {
	app, _, _, err := CreateApp(testConfig(t))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/portfolio", nil)
	req.Header.Set("Origin", "https://evil.io")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCreateApp_BadDatabaseURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseURL = "mysql://nope"
	_, _, _, err := CreateApp(cfg)
	assert.Error(t, err)
}

func TestCreateApp_UnknownCurrencyFallsBack(t *testing.T) {
	cfg := testConfig(t)
	cfg.Currency = "XYZ"
	_, _, _, err := CreateApp(cfg)
	require.NoError(t, err)
	assert.Equal(t, "LKR", cfg.Currency)
}
