// Package status опрашивает бэкенд о статусе платежа, пока платеж
// не дойдет до конечного состояния.
package status

import (
	"context"
	"errors"
	"time"

	"github.com/Dhoini/payform/internal/domain"
	"github.com/Dhoini/payform/internal/metrics"
	"github.com/Dhoini/payform/pkg/logger"
)

const (
	// DefaultInterval период повторной проверки статуса
	DefaultInterval = time.Second
	// DefaultRequestTimeout таймаут одной проверки
	DefaultRequestTimeout = 10 * time.Second
)

// Checker запрашивает статус платежа у бэкенда
type Checker interface {
	CheckStatus(ctx context.Context, pid string) (domain.PaymentStatus, error)
}

// Cache хранит конечные статусы. Store возвращает true, если статус записан впервые.
type Cache interface {
	Get(ctx context.Context, pid string) (domain.PaymentStatus, error)
	Store(ctx context.Context, pid string, status domain.PaymentStatus) (bool, error)
}

// ResolveObserver получает уведомление, когда платеж впервые дошел до конечного статуса
type ResolveObserver interface {
	PaymentResolved(ctx context.Context, pid string, status domain.PaymentStatus)
}

// Config параметры опроса
type Config struct {
	Interval       time.Duration
	RequestTimeout time.Duration
}

// Watcher проверяет и опрашивает статус платежа
type Watcher struct {
	checker  Checker
	cache    Cache
	observer ResolveObserver
	metrics  metrics.PaymentMetrics
	log      *logger.Logger
	interval time.Duration
	timeout  time.Duration
}

// NewWatcher создает Watcher. cache и observer могут быть nil.
func NewWatcher(checker Checker, cache Cache, observer ResolveObserver, m metrics.PaymentMetrics, log *logger.Logger, cfg Config) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	return &Watcher{
		checker:  checker,
		cache:    cache,
		observer: observer,
		metrics:  m,
		log:      log,
		interval: cfg.Interval,
		timeout:  cfg.RequestTimeout,
	}
}

// Interval возвращает период опроса
func (w *Watcher) Interval() time.Duration {
	return w.interval
}

// Check выполняет одну проверку статуса.
// Пустой pid дает ошибку без обращения к бэкенду.
func (w *Watcher) Check(ctx context.Context, pid string) View {
	if pid == "" {
		return errorView(pid, domain.ErrMissingPaymentID)
	}

	if w.cache != nil {
		cached, err := w.cache.Get(ctx, pid)
		switch {
		case err == nil:
			w.log.Debugw("Payment status served from cache", "pid", pid, "status", cached)
			return View{PID: pid, Phase: PhaseReceived, Status: cached}
		case !errors.Is(err, domain.ErrCacheMiss):
			w.log.Warnw("Status cache lookup failed", "pid", pid, "error", err)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, w.timeout)
	status, err := w.checker.CheckStatus(reqCtx, pid)
	cancel()
	if err != nil {
		return errorView(pid, err)
	}

	if status.IsTerminal() {
		w.resolve(ctx, pid, status)
	}
	return View{PID: pid, Phase: PhaseReceived, Status: status}
}

// resolve запоминает конечный статус и уведомляет наблюдателя один раз на платеж
func (w *Watcher) resolve(ctx context.Context, pid string, status domain.PaymentStatus) {
	if !status.IsKnown() {
		w.log.Warnw("Backend returned unknown payment status", "pid", pid, "status", status)
		return
	}

	first := true
	if w.cache != nil {
		stored, err := w.cache.Store(ctx, pid, status)
		if err != nil {
			w.log.Warnw("Failed to cache terminal status", "pid", pid, "error", err)
		} else {
			first = stored
		}
	}
	if !first {
		return
	}

	w.metrics.IncTerminalStatus(string(status))
	w.log.Infow("Payment reached terminal status", "pid", pid, "status", status)
	if w.observer != nil {
		w.observer.PaymentResolved(ctx, pid, status)
	}
}

// Watch проверяет статус сразу, а пока он "process", повторяет проверку
// каждые Interval. Каждое изменение представления передается в onChange.
// Опрос прекращается на конечном статусе, на ошибке или при отмене ctx.
// Проверки внутри одного Watch идут строго последовательно.
func (w *Watcher) Watch(ctx context.Context, pid string, onChange func(View)) View {
	view := w.Check(ctx, pid)
	if ctx.Err() != nil {
		return view
	}
	emit(onChange, view)
	if !view.Polling() {
		return view
	}
	return w.poll(ctx, pid, view, onChange)
}

// Follow продолжает опрос после проверки, уже сделанной вызывающим кодом:
// первая проверка идет через Interval, ее результат передается в onChange
// всегда, дальше только изменения.
func (w *Watcher) Follow(ctx context.Context, pid string, onChange func(View)) View {
	return w.poll(ctx, pid, View{}, onChange)
}

func (w *Watcher) poll(ctx context.Context, pid string, view View, onChange func(View)) View {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debugw("Status watcher detached", "pid", pid)
			return view
		case <-ticker.C:
			w.metrics.IncPollTick()
			next := w.Check(ctx, pid)
			if ctx.Err() != nil {
				return view
			}
			if next != view {
				view = next
				emit(onChange, view)
			}
			if !view.Polling() {
				return view
			}
		}
	}
}

func emit(onChange func(View), v View) {
	if onChange != nil {
		onChange(v)
	}
}

func errorView(pid string, err error) View {
	return View{PID: pid, Phase: PhaseError, Message: domain.StatusMessage(err)}
}
