// Package backend реализует два вызова к платежному бэкенду:
// JSON-RPC метод "pay" и проверку статуса платежа.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Dhoini/payform/internal/domain"
	"github.com/Dhoini/payform/internal/metrics"
	"github.com/Dhoini/payform/pkg/logger"
	"github.com/go-resty/resty/v2"
)

const (
	serviceName    = "payment-backend"
	jsonRPCVersion = "2.0"
	methodPay      = "pay"
	payPath        = "/api"
	checkPath      = "/pay/check/{pid}"
)

// rpcRequest тело JSON-RPC запроса
type rpcRequest struct {
	ID      string                 `json:"id"`
	JSONRPC string                 `json:"jsonrpc"`
	Method  string                 `json:"method"`
	Params  domain.PaymentFormData `json:"params"`
}

// Client HTTP-клиент платежного бэкенда
type Client struct {
	http    *resty.Client
	log     *logger.Logger
	metrics metrics.PaymentMetrics
	newID   func() string
}

// Option настраивает Client
type Option func(*Client)

// WithHTTPClient подменяет http.Client (например, в тестах).
// Таймаут берется из переданного клиента.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = resty.NewWithClient(hc)
	}
}

// WithIDGenerator подменяет генератор id запроса
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) {
		c.newID = fn
	}
}

// NewClient создает клиента бэкенда. baseURL без завершающего слеша, например http://localhost:2050
func NewClient(baseURL string, timeout time.Duration, m metrics.PaymentMetrics, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		http:    resty.New().SetTimeout(timeout),
		log:     log,
		metrics: m,
		newID:   timestampID,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http.
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{log}).
		SetDisableWarn(log.Level() > logger.WARN)
	return c
}

// timestampID числовой id запроса: миллисекунды Unix
func timestampID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// Pay отправляет данные карты методом "pay" и возвращает pid из result.pid.
func (c *Client) Pay(ctx context.Context, data domain.PaymentFormData) (string, error) {
	start := time.Now()
	pid, err := c.pay(ctx, data)
	c.metrics.ObserveBackendCall(methodPay, outcome(err), time.Since(start))
	return pid, err
}

func (c *Client) pay(ctx context.Context, data domain.PaymentFormData) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(rpcRequest{
			ID:      c.newID(),
			JSONRPC: jsonRPCVersion,
			Method:  methodPay,
			Params:  data,
		}).
		Post(payPath)
	if err != nil {
		c.log.Errorw("Pay request failed", "error", err)
		return "", fmt.Errorf("%w: %w", domain.ErrBackendUnavailable,
			domain.NewExternalServiceError(serviceName, "transport", "pay request failed", 0, err))
	}

	payload, err := decodeJSON(res.Body())
	if err != nil {
		c.log.Errorw("Failed to decode pay response", "error", err, "status_code", res.StatusCode())
		return "", fmt.Errorf("%w: %w", domain.ErrBackendUnavailable,
			domain.NewExternalServiceError(serviceName, "decode", "pay response is not JSON", res.StatusCode(), err))
	}

	// HTTP-код не важен: решает только наличие result.pid
	obj, _ := payload.(map[string]interface{})
	result, _ := obj["result"].(map[string]interface{})
	pid, _ := result["pid"].(string)
	if pid == "" {
		code, msg := rpcErrorOf(obj)
		c.log.Warnw("Pay response has no payment id", "status_code", res.StatusCode(), "rpc_code", code, "rpc_message", msg)
		return "", fmt.Errorf("%w: %w", domain.ErrUnexpectedResponse,
			domain.NewExternalServiceError(serviceName, code, msg, res.StatusCode(), nil))
	}

	c.log.Infow("Payment accepted by backend", "pid", pid)
	return pid, nil
}

// rpcErrorOf достает code и message из поля error ответа, если оно есть
func rpcErrorOf(obj map[string]interface{}) (string, string) {
	e, ok := obj["error"].(map[string]interface{})
	if !ok {
		return "no_result", "response has no result.pid"
	}
	code := "rpc_error"
	if v, ok := e["code"]; ok && v != nil {
		code = fmt.Sprint(v)
	}
	msg, _ := e["message"].(string)
	return code, msg
}

// CheckStatus запрашивает текущий статус платежа.
func (c *Client) CheckStatus(ctx context.Context, pid string) (domain.PaymentStatus, error) {
	start := time.Now()
	status, err := c.checkStatus(ctx, pid)
	c.metrics.ObserveBackendCall("check", outcome(err), time.Since(start))
	return status, err
}

func (c *Client) checkStatus(ctx context.Context, pid string) (domain.PaymentStatus, error) {
	if pid == "" {
		return "", domain.ErrMissingPaymentID
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("pid", pid).
		Get(checkPath)
	if err != nil {
		c.log.Warnw("Status request failed", "pid", pid, "error", err)
		return "", fmt.Errorf("%w: %w", domain.ErrBackendUnavailable,
			domain.NewExternalServiceError(serviceName, "transport", "status request failed", 0, err))
	}

	if !res.IsSuccess() {
		c.log.Warnw("Status endpoint returned non-OK code", "pid", pid, "status_code", res.StatusCode())
		return "", fmt.Errorf("%w: %w", domain.ErrBadStatusCode,
			domain.NewExternalServiceError(serviceName, strconv.Itoa(res.StatusCode()), http.StatusText(res.StatusCode()), res.StatusCode(), nil))
	}

	payload, err := decodeJSON(res.Body())
	if err != nil {
		c.log.Warnw("Failed to decode status response", "pid", pid, "error", err)
		return "", fmt.Errorf("%w: %w", domain.ErrBackendUnavailable,
			domain.NewExternalServiceError(serviceName, "decode", "status response is not JSON", res.StatusCode(), err))
	}

	obj, _ := payload.(map[string]interface{})
	status, ok := statusValue(obj["status"])
	if !ok {
		c.log.Warnw("Status response has no status field", "pid", pid)
		return "", domain.ErrMalformedStatus
	}

	c.log.Debugw("Payment status received", "pid", pid, "status", status)
	return status, nil
}

// decodeJSON разбирает тело без привязки к форме ответа.
// Ошибка означает, что тело не является JSON.
func decodeJSON(body []byte) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// statusValue принимает любое непустое значение поля status.
// Нестроковые значения сохраняются как неизвестный статус.
func statusValue(v interface{}) (domain.PaymentStatus, bool) {
	switch s := v.(type) {
	case nil:
		return "", false
	case string:
		return domain.PaymentStatus(s), s != ""
	case bool:
		if !s {
			return "", false
		}
	case float64:
		if s == 0 {
			return "", false
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return domain.PaymentStatus(raw), true
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// restyLogger направляет сообщения resty в логгер сервиса
type restyLogger struct {
	log *logger.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) { l.log.Error(format, v...) }
func (l restyLogger) Warnf(format string, v ...interface{})  { l.log.Warn(format, v...) }
func (l restyLogger) Debugf(format string, v ...interface{}) { l.log.Debug(format, v...) }
