package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandler reports liveness and dependency status
type HealthHandler struct {
	BaseHandler
	environment string
	version     string
	startedAt   time.Time
	checks      map[string]HealthCheck
	now         func() time.Time
}

// NewHealthHandler creates a new health handler.
// "checks" are keyed by dependency name, "database" is reported in the basic response.
func NewHealthHandler(environment, version string, checks map[string]HealthCheck, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		environment: environment,
		version:     version,
		startedAt:   time.Now(),
		checks:      checks,
		now:         time.Now,
	}
}

// RegisterRoutes registers health routes
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.Health)
		r.Get("/detailed", h.Detailed)
	})
}

// HealthStatus is the basic health response
type HealthStatus struct {
	Status      string       `json:"status"`
	Timestamp   time.Time    `json:"timestamp"`
	Uptime      float64      `json:"uptime"`
	Environment string       `json:"environment"`
	Database    string       `json:"database"`
	Memory      MemoryStatus `json:"memory"`
}

// MemoryStatus reports heap usage in megabytes
type MemoryStatus struct {
	Used  uint64 `json:"used"`
	Total uint64 `json:"total"`
}

// DetailedHealthStatus adds per-dependency and runtime details
type DetailedHealthStatus struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Uptime       float64           `json:"uptime"`
	Environment  string            `json:"environment"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
	Goroutines   int               `json:"goroutines"`
	Memory       runtimeMemory     `json:"memory"`
	GoVersion    string            `json:"goVersion"`
	Platform     string            `json:"platform"`
}

type runtimeMemory struct {
	HeapAlloc  uint64 `json:"heapAlloc"`
	HeapSys    uint64 `json:"heapSys"`
	Sys        uint64 `json:"sys"`
	NumGC      uint32 `json:"numGC"`
	TotalAlloc uint64 `json:"totalAlloc"`
}

// Health handles GET /health
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthStatus
// @Failure 503 {object} HealthStatus
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	dbStatus := "not configured"
	if check, ok := h.checks["database"]; ok {
		dbStatus = h.probe(r.Context(), "database", check)
	}

	status := HealthStatus{
		Status:      "OK",
		Timestamp:   h.now().UTC(),
		Uptime:      h.now().Sub(h.startedAt).Seconds(),
		Environment: h.environment,
		Database:    dbStatus,
		Memory: MemoryStatus{
			Used:  mem.HeapAlloc / 1024 / 1024,
			Total: mem.HeapSys / 1024 / 1024,
		},
	}

	code := http.StatusOK
	if dbStatus == "disconnected" {
		status.Status = "ERROR"
		code = http.StatusServiceUnavailable
	}
	h.RespondJSON(w, code, status)
}

// Detailed handles GET /health/detailed
// @Summary Detailed health check
// @Tags health
// @Produce json
// @Success 200 {object} DetailedHealthStatus
// @Failure 503 {object} DetailedHealthStatus
// @Router /health/detailed [get]
func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	status := DetailedHealthStatus{
		Status:       "OK",
		Timestamp:    h.now().UTC(),
		Uptime:       h.now().Sub(h.startedAt).Seconds(),
		Environment:  h.environment,
		Version:      h.version,
		Dependencies: make(map[string]string, len(h.checks)),
		Goroutines:   runtime.NumGoroutine(),
		Memory: runtimeMemory{
			HeapAlloc:  mem.HeapAlloc,
			HeapSys:    mem.HeapSys,
			Sys:        mem.Sys,
			NumGC:      mem.NumGC,
			TotalAlloc: mem.TotalAlloc,
		},
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	code := http.StatusOK
	for name, check := range h.checks {
		result := h.probe(r.Context(), name, check)
		status.Dependencies[name] = result
		if result == "disconnected" {
			status.Status = "ERROR"
			code = http.StatusServiceUnavailable
		}
	}
	h.RespondJSON(w, code, status)
}

func (h *HealthHandler) probe(ctx context.Context, name string, check HealthCheck) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := check(ctx); err != nil {
		h.Logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
		return "disconnected"
	}
	return "connected"
}
