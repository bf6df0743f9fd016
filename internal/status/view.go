package status

import "github.com/Dhoini/payform/internal/domain"

// Phase этап отображения страницы статуса
type Phase string

const (
	PhaseLoading  Phase = "loading"
	PhaseError    Phase = "error"
	PhaseReceived Phase = "received"
)

// Тексты страницы статуса
const (
	TextLoading = "Загрузка статуса..."
	TextError   = "Произошла ошибка"
	TextProcess = "Платеж обрабатывается. Пожалуйста, подождите..."
	TextOK      = "Оплата прошла успешно"
	TextFail    = "Платеж отклонен"
	TextUnknown = "Неизвестный статус платежа"
)

// View то, что показывает страница статуса в данный момент
type View struct {
	PID     string               `json:"pid"`
	Phase   Phase                `json:"phase"`
	Status  domain.PaymentStatus `json:"status,omitempty"`
	Message string               `json:"message,omitempty"`
}

// Loading начальное представление до первого ответа
func Loading(pid string) View {
	return View{PID: pid, Phase: PhaseLoading}
}

// Polling true, пока платеж в обработке
func (v View) Polling() bool {
	return v.Phase == PhaseReceived && v.Status == domain.PaymentStatusProcess
}

// Final true для ошибки и любого статуса, кроме "process"
func (v View) Final() bool {
	return v.Phase == PhaseError || (v.Phase == PhaseReceived && v.Status.IsTerminal())
}

// Text текст для пользователя
func (v View) Text() string {
	switch v.Phase {
	case PhaseLoading:
		return TextLoading
	case PhaseError:
		return v.Message
	}

	switch v.Status {
	case domain.PaymentStatusProcess:
		return TextProcess
	case domain.PaymentStatusOK:
		return TextOK
	case domain.PaymentStatusFail:
		return TextFail
	default:
		return TextUnknown
	}
}
