package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/Dhoini/payform/pkg/logger"
	"github.com/gin-gonic/gin"
)

// HealthCheckFunc проверка одной зависимости
type HealthCheckFunc func(ctx context.Context) error

// HealthHandler обработчик для проверки работоспособности сервиса
type HealthHandler struct {
	checks  map[string]HealthCheckFunc
	timeout time.Duration
	log     *logger.Logger
}

// NewHealthHandler создает обработчик. checks может быть пустым.
func NewHealthHandler(checks map[string]HealthCheckFunc, log *logger.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second, log: log}
}

// HealthCheck отвечает 200, если все зависимости доступны, иначе 503
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	code := http.StatusOK
	overall := "OK"
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.log.Warnw("Health check failed", "dependency", name, "error", err)
			results[name] = err.Error()
			code = http.StatusServiceUnavailable
			overall = "DEGRADED"
			continue
		}
		results[name] = "OK"
	}

	c.JSON(code, gin.H{
		"status": overall,
		"time":   time.Now().Format(time.RFC3339),
		"checks": results,
	})
}
