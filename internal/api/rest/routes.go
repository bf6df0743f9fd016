package rest

import (
	"fmt"

	"github.com/Dhoini/payform/internal/api/rest/handlers"
	"github.com/Dhoini/payform/internal/api/rest/middleware"
	"github.com/Dhoini/payform/internal/card"
	"github.com/Dhoini/payform/internal/form"
	"github.com/Dhoini/payform/internal/metrics"
	"github.com/Dhoini/payform/internal/status"
	"github.com/Dhoini/payform/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps зависимости HTTP-слоя
type RouterDeps struct {
	Log            *logger.Logger
	Registry       *prometheus.Registry
	Metrics        metrics.PaymentMetrics
	Payer          form.Payer
	Validator      *card.Validator
	SubmitObserver form.SubmitObserver
	Watcher        *status.Watcher
	HealthChecks   map[string]handlers.HealthCheckFunc
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(deps RouterDeps) (*gin.Engine, error) {
	r := gin.New()

	tmpl, err := LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	// Подключение middleware
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware(deps.Log))
	r.Use(gin.Recovery())

	healthHandler := handlers.NewHealthHandler(deps.HealthChecks, deps.Log)
	formHandler := handlers.NewFormHandler(deps.Payer, deps.Validator, deps.SubmitObserver, deps.Metrics, deps.Log)
	statusHandler := handlers.NewStatusHandler(deps.Watcher, deps.Metrics, deps.Log)

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", healthHandler.HealthCheck)

	// Prometheus метрики
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	// Форма оплаты
	r.GET("/", formHandler.ShowForm)
	r.POST("/", formHandler.SubmitForm)
	r.POST("/form/format", formHandler.Format)

	// Статус платежа
	r.GET("/status", statusHandler.MissingPID)
	r.GET("/status/", statusHandler.MissingPID)
	r.GET("/status/:pid", statusHandler.ShowStatus)
	r.GET("/status/:pid/events", statusHandler.StreamStatus)

	return r, nil
}
