package health

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type okPinger struct{}

func (okPinger) Ping() error { return nil }

type badPinger struct{}

func (badPinger) Ping() error { return errors.New("connection refused") }

func healthApp(h *Handlers) *fiber.App {
	app := fiber.New()
	app.Get("/health/json", h.JSON)
	return app
}

func TestHealthJSON_AllConnected(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := healthApp(&Handlers{Rdb: rdb, DB: okPinger{}})

	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "teamhub-api", body["service"])
	assert.Equal(t, "ok", body["status"])

	deps := body["dependencies"].(map[string]interface{})
	db := deps["database"].(map[string]interface{})
	assert.Equal(t, "connected", db["status"])
}

func TestHealthJSON_DatabaseDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := healthApp(&Handlers{Rdb: rdb, DB: badPinger{}})

	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil), -1)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "issue", body["status"])

	deps := body["dependencies"].(map[string]interface{})
	db := deps["database"].(map[string]interface{})
	assert.Equal(t, "error", db["status"])
}

func TestHealthJSON_NoDatabaseConfigured(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := healthApp(&Handlers{Rdb: rdb})

	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil), -1)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	deps := body["dependencies"].(map[string]interface{})
	db := deps["database"].(map[string]interface{})
	assert.Equal(t, "disconnected", db["status"])
}
