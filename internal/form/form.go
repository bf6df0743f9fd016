// Package form хранит состояние формы оплаты: данные карты, ошибки по полям
// и флаг отправки.
package form

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/Dhoini/payform/internal/card"
	"github.com/Dhoini/payform/internal/domain"
	"github.com/Dhoini/payform/internal/metrics"
	"github.com/Dhoini/payform/pkg/logger"
)

// Payer отправляет данные карты на бэкенд и возвращает идентификатор платежа
type Payer interface {
	Pay(ctx context.Context, data domain.PaymentFormData) (string, error)
}

// SubmitObserver получает уведомление об успешной отправке (например, продюсер Kafka)
type SubmitObserver interface {
	PaymentSubmitted(ctx context.Context, pid string)
}

// Form состояние одной формы оплаты
type Form struct {
	mu         sync.Mutex
	data       domain.PaymentFormData
	errs       domain.ValidationErrors
	submitting bool

	payer     Payer
	validator *card.Validator
	observer  SubmitObserver
	metrics   metrics.PaymentMetrics
	log       *logger.Logger
}

// New создает пустую форму
func New(payer Payer, validator *card.Validator, observer SubmitObserver, m metrics.PaymentMetrics, log *logger.Logger) *Form {
	return &Form{
		payer:     payer,
		validator: validator,
		observer:  observer,
		metrics:   m,
		log:       log,
	}
}

// Data возвращает копию текущих данных
func (f *Form) Data() domain.PaymentFormData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data
}

// Errors возвращает копию текущих ошибок
func (f *Form) Errors() domain.ValidationErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(domain.ValidationErrors(nil), f.errs...)
}

// Submitting сообщает, что отправка еще не завершилась
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Edit записывает ввод пользователя в поле и снимает ошибку этого поля.
// Номер карты и срок действия проходят через маску.
func (f *Form) Edit(field, value string) error {
	value = Mask(field, value)

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.data.Set(field, value) {
		return domain.ErrUnknownField
	}
	f.errs.Clear(field)
	return nil
}

// Mask применяет маску ввода к полю. Поля без маски возвращаются как есть.
func Mask(field, value string) string {
	switch field {
	case domain.FieldPAN:
		return card.FormatPAN(value)
	case domain.FieldExpire:
		return card.FormatExpire(value)
	default:
		return value
	}
}

// Validate заново вычисляет все ошибки. true означает, что форму можно отправлять.
func (f *Form) Validate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

func (f *Form) validateLocked() bool {
	f.errs = f.validator.Validate(f.data)
	for _, fe := range f.errs {
		f.metrics.IncValidationFailure(fe.Field)
	}
	return !f.errs.HasErrors()
}

// Submit проверяет форму и отправляет ее на бэкенд.
// При ошибках проверки запрос не выполняется. Флаг отправки снимается в любом исходе.
func (f *Form) Submit(ctx context.Context) (string, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return "", domain.ErrSubmitInProgress
	}
	if !f.validateLocked() {
		errs := append(domain.ValidationErrors(nil), f.errs...)
		f.mu.Unlock()
		f.metrics.IncFormSubmission(metrics.SubmissionInvalid)
		f.log.Debugw("Payment form rejected by validation", "fields", errs.Fields())
		return "", errs
	}
	f.submitting = true
	data := f.data
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	pid, err := f.payer.Pay(ctx, data)
	if err != nil {
		f.mu.Lock()
		f.errs = domain.ValidationErrors{{Field: domain.FieldPAN, Message: domain.SubmitMessage(err)}}
		f.mu.Unlock()

		if errors.Is(err, domain.ErrUnexpectedResponse) {
			f.metrics.IncFormSubmission(metrics.SubmissionRejected)
		} else {
			f.metrics.IncFormSubmission(metrics.SubmissionUnavailable)
		}
		f.log.Warnw("Payment submit failed", "error", err)
		return "", err
	}

	f.metrics.IncFormSubmission(metrics.SubmissionAccepted)
	if f.observer != nil {
		f.observer.PaymentSubmitted(ctx, pid)
	}
	return pid, nil
}

// StatusPath путь страницы статуса для платежа
func StatusPath(pid string) string {
	return "/status/" + url.PathEscape(pid)
}
