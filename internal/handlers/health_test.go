package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/lending-be/internal/handlers"
	"github.com/ammerola/lending-be/internal/pkg/config"
	"github.com/ammerola/lending-be/test/helpers"
)

func TestHealthHandler_MemoryDriver(t *testing.T) {
	h := handlers.NewHealthHandler(helpers.LoadTestConfig(), helpers.TestLogger())

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var status handlers.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "memory", status.Services["storage"].Details["driver"])
	assert.NotContains(t, status.Services, "redis")
}

func TestHealthHandler_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	h := handlers.NewHealthHandler(helpers.LoadTestConfig(), helpers.TestLogger(), handlers.WithRedis(client))

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"ready"`)

	mr.Close()

	w = httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var status handlers.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "unhealthy", status.Services["redis"].Status)
}

type failingPinger struct{ err error }

func (p failingPinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler_SQLiteDown(t *testing.T) {
	cfg := helpers.LoadTestConfig()
	cfg.Storage.Driver = config.DriverSQLite
	h := handlers.NewHealthHandler(cfg, helpers.TestLogger(), handlers.WithSQLite(failingPinger{errors.New("database is locked")}))

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"storage":"not ready"`)

	w = httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var status handlers.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "database is locked", status.Services["storage"].Message)
	assert.Equal(t, "sqlite", status.Services["storage"].Details["driver"])
}
