// internal/handlers/health.go
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/lending-be/internal/adapters/db"
	"github.com/ammerola/lending-be/internal/pkg/config"
)

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// dependency checks one backing service. Readiness only consults the ones marked ready.
type dependency struct {
	name  string
	ready bool
	check func(ctx context.Context) (map[string]interface{}, error)
}

// HealthHandler serves /health and /ready. Every dependency is optional;
// the memory driver runs with none of them.
type HealthHandler struct {
	postgres  *db.Database
	sqlite    Pinger
	redis     *redis.Client
	inspector *asynq.Inspector
	config    *config.Config
	logger    *slog.Logger
	startTime time.Time
}

type HealthOption func(*HealthHandler)

func WithPostgres(database *db.Database) HealthOption {
	return func(h *HealthHandler) { h.postgres = database }
}

func WithSQLite(p Pinger) HealthOption {
	return func(h *HealthHandler) { h.sqlite = p }
}

func WithRedis(client *redis.Client) HealthOption {
	return func(h *HealthHandler) { h.redis = client }
}

func WithAsynq(inspector *asynq.Inspector) HealthOption {
	return func(h *HealthHandler) { h.inspector = inspector }
}

func NewHealthHandler(cfg *config.Config, logger *slog.Logger, opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{
		config:    cfg,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
	System      SystemInfo             `json:"system"`
}

type ServiceInfo struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

// Health reports every configured dependency and answers 503 when any is down
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := HealthStatus{
		Status:      "healthy",
		Version:     h.config.App.Version,
		Environment: h.config.App.Environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now().UTC(),
		Services:    make(map[string]ServiceInfo),
		System:      systemInfo(),
	}

	for _, p := range h.dependencies() {
		start := time.Now()
		details, err := p.check(ctx)
		info := ServiceInfo{Status: "healthy", Details: details, ResponseTime: time.Since(start).String()}
		if err != nil {
			info.Status = "unhealthy"
			info.Message = err.Error()
			status.Status = "degraded"
			h.logger.ErrorContext(ctx, "health check failed",
				slog.String("service", p.name),
				slog.String("error", err.Error()))
		}
		status.Services[p.name] = info
	}

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	h.write(ctx, w, code, status)
}

// Readiness answers 200 once storage and redis respond
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := make(map[string]string)
	for _, p := range h.dependencies() {
		if !p.ready {
			continue
		}
		if _, err := p.check(ctx); err != nil {
			ready = false
			details[p.name] = "not ready"
			continue
		}
		details[p.name] = "ready"
	}

	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	h.write(ctx, w, code, map[string]interface{}{"ready": ready, "details": details})
}

func (h *HealthHandler) write(ctx context.Context, w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode health response", slog.String("error", err.Error()))
	}
}

func (h *HealthHandler) dependencies() []dependency {
	deps := []dependency{{name: "storage", ready: true, check: h.checkStorage}}
	if h.redis != nil {
		deps = append(deps, dependency{name: "redis", ready: true, check: h.checkRedis})
	}
	if h.inspector != nil {
		deps = append(deps, dependency{name: "asynq", check: h.checkAsynq})
	}
	return deps
}

func (h *HealthHandler) checkStorage(ctx context.Context) (map[string]interface{}, error) {
	details := map[string]interface{}{"driver": h.config.Storage.Driver}
	switch {
	case h.postgres != nil:
		if err := h.postgres.Ping(ctx); err != nil {
			return details, err
		}
		for k, v := range h.postgres.Health(ctx) {
			details[k] = v
		}
	case h.sqlite != nil:
		if err := h.sqlite.PingContext(ctx); err != nil {
			return details, err
		}
	}
	return details, nil
}

func (h *HealthHandler) checkRedis(ctx context.Context) (map[string]interface{}, error) {
	if err := h.redis.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	stats := h.redis.PoolStats()
	return map[string]interface{}{
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}, nil
}

func (h *HealthHandler) checkAsynq(_ context.Context) (map[string]interface{}, error) {
	queues, err := h.inspector.Queues()
	if err != nil {
		return nil, err
	}

	stats := make(map[string]interface{}, len(queues))
	for _, q := range queues {
		info, err := h.inspector.GetQueueInfo(q)
		if err != nil {
			continue
		}
		stats[q] = map[string]int{
			"pending":  info.Pending,
			"active":   info.Active,
			"retry":    info.Retry,
			"archived": info.Archived,
		}
	}

	details := map[string]interface{}{"queues": stats}
	if servers, err := h.inspector.Servers(); err == nil {
		details["servers"] = len(servers)
	}
	return details, nil
}

func systemInfo() SystemInfo {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		MemoryAllocMB: mem.Alloc / 1024 / 1024,
		NumGC:         mem.NumGC,
	}
}
