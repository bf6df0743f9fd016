package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/payform/internal/api/rest"
	"github.com/Dhoini/payform/internal/api/rest/handlers"
	"github.com/Dhoini/payform/internal/backend"
	"github.com/Dhoini/payform/internal/card"
	"github.com/Dhoini/payform/internal/config"
	"github.com/Dhoini/payform/internal/form"
	"github.com/Dhoini/payform/internal/kafka"
	"github.com/Dhoini/payform/internal/kafka/producer"
	"github.com/Dhoini/payform/internal/metrics"
	"github.com/Dhoini/payform/internal/repository"
	"github.com/Dhoini/payform/internal/status"
	"github.com/Dhoini/payform/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Сколько ждать Redis и Kafka при старте
const connectWait = 15 * time.Second

// App представляет собой контейнер для всех компонентов приложения
type App struct {
	Config    *config.Config
	Logger    *logger.Logger
	Registry  *prometheus.Registry
	Metrics   metrics.PaymentMetrics
	Backend   *backend.Client
	Validator *card.Validator
	Watcher   *status.Watcher
	Producer  producer.PaymentProducer

	redisCache   *repository.RedisStatusCache
	healthChecks map[string]handlers.HealthCheckFunc
}

// NewApp создает и инициализирует новый экземпляр приложения.
// Redis и Kafka подключаются только если заданы в конфигурации.
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	registry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry, log)
	metrics.RegisterRuntimeCollectors(registry, log)

	a := &App{
		Config:       cfg,
		Logger:       log,
		Registry:     registry,
		Metrics:      paymentMetrics,
		Validator:    card.NewValidator(),
		healthChecks: map[string]handlers.HealthCheckFunc{},
	}

	var cache status.Cache
	if cfg.Redis.Addr != "" {
		redisCache, err := repository.NewRedisStatusCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			cfg.Redis.TTL, connectWait, log.Named("redis"))
		if err != nil {
			return nil, err
		}
		a.redisCache = redisCache
		a.healthChecks["redis"] = redisCache.Ping
		cache = redisCache
	} else {
		log.Infow("Redis address is empty, using in-memory status cache")
		cache = repository.NewMemoryStatusCache(cfg.Redis.TTL)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		kafkaCfg := kafka.NewConfig(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix)
		kafkaCfg.Producer.ConnectWait = connectWait
		syncProducer, err := kafka.NewSyncProducer(kafkaCfg, log.Named("kafka"))
		if err != nil {
			_ = a.closeCache()
			return nil, err
		}
		ensureTopics(kafkaCfg, log.Named("kafka"))
		a.Producer = producer.NewKafkaPaymentProducer(syncProducer, cfg.Kafka.TopicPrefix, log.Named("kafka"))
	} else {
		log.Infow("Kafka brokers are not configured, payment events are disabled")
		a.Producer = producer.NewNoopPaymentProducer(log.Named("kafka"))
	}

	a.Backend = backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout, paymentMetrics, log.Named("backend"))
	a.Watcher = status.NewWatcher(a.Backend, cache, a.Producer, paymentMetrics, log.Named("status"), status.Config{
		Interval:       cfg.Status.PollInterval,
		RequestTimeout: cfg.Status.RequestTimeout,
	})

	return a, nil
}

// ensureTopics создает топики событий. Ошибка не фатальна: брокер может
// создавать топики сам.
func ensureTopics(cfg *kafka.Config, log *logger.Logger) {
	admin, err := kafka.NewClusterAdmin(cfg)
	if err != nil {
		log.Warnw("Skipping Kafka topic setup", "error", err)
		return
	}
	defer admin.Close()

	if err := kafka.EnsureTopics(admin, producer.TopicSpecs(cfg.TopicPrefix), log); err != nil {
		log.Warnw("Kafka topics were not ensured", "error", err)
	}
}

// NewForm создает форму оплаты, отправляющую платежи через бэкенд приложения
func (a *App) NewForm() *form.Form {
	return form.New(a.Backend, a.Validator, a.Producer, a.Metrics, a.Logger.Named("form"))
}

// Router собирает HTTP-маршрутизатор приложения
func (a *App) Router() (*gin.Engine, error) {
	return rest.SetupRouter(rest.RouterDeps{
		Log:            a.Logger.Named("http"),
		Registry:       a.Registry,
		Metrics:        a.Metrics,
		Payer:          a.Backend,
		Validator:      a.Validator,
		SubmitObserver: a.Producer,
		Watcher:        a.Watcher,
		HealthChecks:   a.healthChecks,
	})
}

// Run запускает HTTP сервер и останавливает его при отмене ctx
func (a *App) Run(ctx context.Context) error {
	if a.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := a.Router()
	if err != nil {
		return err
	}
	server := rest.NewServer(router, a.Config.App.Port, a.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := <-errCh; err != nil {
		return err
	}

	a.Logger.Infow("Server stopped gracefully")
	return nil
}

// Close дожидается фоновых публикаций и закрывает соединения
func (a *App) Close() error {
	var errs []error
	if a.Producer != nil {
		if err := a.Producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close producer: %w", err))
		}
	}
	if err := a.closeCache(); err != nil {
		errs = append(errs, fmt.Errorf("close redis: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) closeCache() error {
	if a.redisCache == nil {
		return nil
	}
	err := a.redisCache.Close()
	a.redisCache = nil
	return err
}
