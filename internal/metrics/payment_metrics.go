package metrics

import (
	"time"

	"github.com/Dhoini/payform/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PaymentMetrics интерфейс для метрик формы оплаты и страницы статуса
type PaymentMetrics interface {
	IncFormSubmission(outcome string)
	IncValidationFailure(field string)
	ObserveBackendCall(method, outcome string, duration time.Duration)
	IncPollTick()
	IncTerminalStatus(status string)
	StreamStarted()
	StreamFinished()
}

// Исходы отправки формы
const (
	SubmissionAccepted    = "accepted"
	SubmissionInvalid     = "invalid"
	SubmissionRejected    = "rejected"
	SubmissionUnavailable = "unavailable"
)

type paymentMetrics struct {
	log                *logger.Logger
	formSubmissions    *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	backendCalls       *prometheus.CounterVec
	backendLatency     *prometheus.HistogramVec
	pollTicks          prometheus.Counter
	terminalStatuses   *prometheus.CounterVec
	activeStreams      prometheus.Gauge
}

// NewPaymentMetrics создает метрики и регистрирует их в registry
func NewPaymentMetrics(registry *prometheus.Registry, log *logger.Logger) PaymentMetrics {
	factory := promauto.With(registry)

	m := &paymentMetrics{
		log: log,
		formSubmissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payform_submissions_total",
				Help: "The total number of payment form submissions by outcome",
			},
			[]string{"outcome"},
		),
		validationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payform_validation_failures_total",
				Help: "The total number of rejected form fields",
			},
			[]string{"field"},
		),
		backendCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payform_backend_calls_total",
				Help: "The total number of payment backend calls",
			},
			[]string{"method", "outcome"},
		),
		backendLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payform_backend_call_duration_seconds",
				Help:    "Payment backend call latency",
				Buckets: prometheus.ExponentialBuckets(0.005, 4, 6), // 5ms .. ~5s
			},
			[]string{"method"},
		),
		pollTicks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "payform_status_poll_ticks_total",
				Help: "The total number of status re-checks issued by pollers",
			},
		),
		terminalStatuses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payform_terminal_statuses_total",
				Help: "Payments observed reaching a terminal status",
			},
			[]string{"status"},
		),
		activeStreams: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "payform_status_streams_active",
				Help: "Currently open status event streams",
			},
		),
	}

	return m
}

// RegisterRuntimeCollectors добавляет стандартные метрики Go и процесса
func RegisterRuntimeCollectors(registry *prometheus.Registry, log *logger.Logger) {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(c); err != nil {
			log.Warnw("Failed to register runtime collector", "error", err)
		}
	}
}

// IncFormSubmission увеличивает счетчик отправок формы
func (m *paymentMetrics) IncFormSubmission(outcome string) {
	m.formSubmissions.WithLabelValues(outcome).Inc()
}

// IncValidationFailure увеличивает счетчик ошибок поля
func (m *paymentMetrics) IncValidationFailure(field string) {
	m.validationFailures.WithLabelValues(field).Inc()
}

// ObserveBackendCall записывает вызов бэкенда и его длительность
func (m *paymentMetrics) ObserveBackendCall(method, outcome string, duration time.Duration) {
	m.backendCalls.WithLabelValues(method, outcome).Inc()
	m.backendLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// IncPollTick увеличивает счетчик повторных проверок статуса
func (m *paymentMetrics) IncPollTick() {
	m.pollTicks.Inc()
}

// IncTerminalStatus учитывает платеж, дошедший до конечного статуса
func (m *paymentMetrics) IncTerminalStatus(status string) {
	m.terminalStatuses.WithLabelValues(status).Inc()
}

func (m *paymentMetrics) StreamStarted() {
	m.activeStreams.Inc()
}

func (m *paymentMetrics) StreamFinished() {
	m.activeStreams.Dec()
}
