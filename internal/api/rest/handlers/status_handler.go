package handlers

import (
	"net/http"
	"net/url"

	"github.com/Dhoini/payform/internal/domain"
	"github.com/Dhoini/payform/internal/metrics"
	"github.com/Dhoini/payform/internal/status"
	"github.com/Dhoini/payform/pkg/logger"
	"github.com/gin-gonic/gin"
)

// StatusTemplate имя шаблона страницы статуса
const StatusTemplate = "status.html"

// StatusEvent имя SSE-события с представлением статуса
const StatusEvent = "status"

// StatusPage данные для шаблона страницы статуса
type StatusPage struct {
	View           status.View
	Text           string
	Polling        bool
	EventsURL      string
	RefreshSeconds int
}

// StatusEventData тело SSE-события
type StatusEventData struct {
	status.View
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// StatusHandler обработчик страницы статуса платежа
type StatusHandler struct {
	watcher *status.Watcher
	metrics metrics.PaymentMetrics
	log     *logger.Logger
}

// NewStatusHandler создает новый обработчик статуса
func NewStatusHandler(watcher *status.Watcher, m metrics.PaymentMetrics, log *logger.Logger) *StatusHandler {
	return &StatusHandler{watcher: watcher, metrics: m, log: log}
}

// MissingPID страница статуса без идентификатора платежа. Бэкенд не вызывается.
func (h *StatusHandler) MissingPID(c *gin.Context) {
	view := h.watcher.Check(c.Request.Context(), "")
	c.HTML(http.StatusBadRequest, StatusTemplate, h.page(view))
}

// ShowStatus выполняет первую проверку на сервере. Страница в статусе
// "process" дальше подписывается на поток событий.
func (h *StatusHandler) ShowStatus(c *gin.Context) {
	pid := c.Param("pid")
	view := h.watcher.Check(c.Request.Context(), pid)
	if view.Phase == status.PhaseError && pid != "" {
		h.log.Warnw("Status check failed", "pid", pid, "message", view.Message)
	}
	c.HTML(http.StatusOK, StatusTemplate, h.page(view))
}

// StreamStatus отдает поток SSE: событие на каждое изменение представления.
// Страница уже показала первую проверку, поэтому поток начинает с таймера.
// Поток закрывается на конечном статусе, ошибке или при отключении клиента.
func (h *StatusHandler) StreamStatus(c *gin.Context) {
	pid := c.Param("pid")

	h.metrics.StreamStarted()
	defer h.metrics.StreamFinished()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	final := h.watcher.Follow(c.Request.Context(), pid, func(v status.View) {
		c.SSEvent(StatusEvent, StatusEventData{View: v, Text: v.Text(), Final: v.Final()})
		c.Writer.Flush()
	})
	h.log.Debugw("Status stream closed", "pid", pid, "phase", final.Phase, "status", final.Status)
}

func (h *StatusHandler) page(view status.View) StatusPage {
	p := StatusPage{
		View:    view,
		Text:    view.Text(),
		Polling: view.Polling(),
	}
	if p.Polling {
		p.EventsURL = "/status/" + url.PathEscape(view.PID) + "/events"
		p.RefreshSeconds = max(int(h.watcher.Interval().Seconds()), 1)
	}
	return p
}

// IsSuccess используется шаблоном для иконки успешной оплаты
func (p StatusPage) IsSuccess() bool {
	return p.View.Phase == status.PhaseReceived && p.View.Status == domain.PaymentStatusOK
}
