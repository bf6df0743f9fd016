package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrValidationFailed форма не прошла проверку, запрос не отправлялся
	ErrValidationFailed = errors.New("validation failed")

	// ErrUnknownField поле формы не существует
	ErrUnknownField = errors.New("unknown form field")

	// ErrSubmitInProgress форма уже отправляется
	ErrSubmitInProgress = errors.New("submit already in progress")

	// ErrMissingPaymentID в пути нет идентификатора платежа
	ErrMissingPaymentID = errors.New("payment id is missing")

	// ErrBackendUnavailable сетевая ошибка или нечитаемый ответ бэкенда
	ErrBackendUnavailable = errors.New("payment backend unavailable")

	// ErrUnexpectedResponse ответ на "pay" без result.pid
	ErrUnexpectedResponse = errors.New("unexpected payment backend response")

	// ErrBadStatusCode бэкенд ответил кодом вне 2xx
	ErrBadStatusCode = errors.New("payment backend returned non-OK status")

	// ErrMalformedStatus в ответе проверки статуса нет поля status
	ErrMalformedStatus = errors.New("status response has no status field")

	// ErrCacheMiss статуса нет в кеше
	ErrCacheMiss = errors.New("status not cached")
)

// Сообщения для пользователя
const (
	MsgInvalidPAN        = "Введите корректный номер карты"
	MsgInvalidExpire     = "Введите дату в формате MM/YY"
	MsgInvalidCVC        = "Введите 3 цифры"
	MsgInvalidCardholder = "Имя владельца должно содержать два слова латиницей"

	MsgSubmitFailed     = "Ошибка при отправке данных"
	MsgConnectionFailed = "Ошибка соединения с сервером"

	MsgMissingPaymentID = "Не указан идентификатор платежа"
	MsgRequestFailed    = "Ошибка при выполнении запроса"
	MsgMalformedStatus  = "Некорректный формат ответа от сервера"
)

// ValidationError представляет ошибку валидации
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors представляет набор ошибок валидации (ошибки формы по полям)
type ValidationErrors []ValidationError

// Error реализует интерфейс error
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}

	if len(e) == 1 {
		return fmt.Sprintf("validation failed: %s - %s", e[0].Field, e[0].Message)
	}

	return fmt.Sprintf("validation failed: %d errors", len(e))
}

// Is позволяет сравнивать с ErrValidationFailed через errors.Is
func (e ValidationErrors) Is(target error) bool {
	return target == ErrValidationFailed
}

// Add добавляет ошибку валидации. Повторная ошибка для поля заменяет прежнюю.
func (e *ValidationErrors) Add(field, message string) {
	for i := range *e {
		if (*e)[i].Field == field {
			(*e)[i].Message = message
			return
		}
	}
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// Clear удаляет ошибку поля
func (e *ValidationErrors) Clear(field string) {
	out := (*e)[:0]
	for _, ve := range *e {
		if ve.Field != field {
			out = append(out, ve)
		}
	}
	*e = out
}

// HasErrors проверяет наличие ошибок
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Fields возвращает список полей с ошибками
func (e ValidationErrors) Fields() []string {
	fields := make([]string, len(e))
	for i, err := range e {
		fields[i] = err.Field
	}
	return fields
}

// GetByField возвращает сообщение об ошибке для указанного поля
func (e ValidationErrors) GetByField(field string) string {
	for _, err := range e {
		if err.Field == field {
			return err.Message
		}
	}
	return ""
}

// Map возвращает ошибки в виде field -> message (для шаблонов и JSON)
func (e ValidationErrors) Map() map[string]string {
	m := make(map[string]string, len(e))
	for _, err := range e {
		m[err.Field] = err.Message
	}
	return m
}

// ExternalServiceError представляет ошибку внешнего сервиса
type ExternalServiceError struct {
	Service     string
	Code        string
	Message     string
	StatusCode  int
	OriginalErr error
}

// Error реализует интерфейс error
func (e *ExternalServiceError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s service error [%s]: %s: %v", e.Service, e.Code, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("%s service error [%s]: %s", e.Service, e.Code, e.Message)
}

// Unwrap возвращает оригинальную ошибку
func (e *ExternalServiceError) Unwrap() error {
	return e.OriginalErr
}

// NewExternalServiceError создает новую ошибку внешнего сервиса
func NewExternalServiceError(service, code, message string, statusCode int, err error) *ExternalServiceError {
	return &ExternalServiceError{
		Service:     service,
		Code:        code,
		Message:     message,
		StatusCode:  statusCode,
		OriginalErr: err,
	}
}

// StatusMessage переводит ошибку проверки статуса в текст для страницы статуса
func StatusMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingPaymentID):
		return MsgMissingPaymentID
	case errors.Is(err, ErrBadStatusCode):
		return MsgRequestFailed
	case errors.Is(err, ErrMalformedStatus):
		return MsgMalformedStatus
	default:
		return MsgConnectionFailed
	}
}

// SubmitMessage переводит ошибку отправки формы в текст для поля pan
func SubmitMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnexpectedResponse):
		return MsgSubmitFailed
	default:
		return MsgConnectionFailed
	}
}
