package domain

// Имена полей формы оплаты. Используются как ключи ошибок и имена input.
const (
	FieldPAN        = "pan"
	FieldExpire     = "expire"
	FieldCardholder = "cardholder"
	FieldCVC        = "cvc"
)

// FormFields перечисляет поля формы в порядке вывода ошибок
var FormFields = []string{FieldPAN, FieldExpire, FieldCVC, FieldCardholder}

// PaymentStatus статус платежа, который сообщает бэкенд
type PaymentStatus string

const (
	PaymentStatusProcess PaymentStatus = "process"
	PaymentStatusOK      PaymentStatus = "ok"
	PaymentStatusFail    PaymentStatus = "fail"
)

// IsTerminal сообщает, что опрос по этому статусу больше не нужен.
// Опрашивается только "process", поэтому неизвестные значения тоже терминальны.
func (s PaymentStatus) IsTerminal() bool {
	return s != PaymentStatusProcess
}

// IsKnown проверяет, что статус входит в контракт бэкенда
func (s PaymentStatus) IsKnown() bool {
	switch s {
	case PaymentStatusProcess, PaymentStatusOK, PaymentStatusFail:
		return true
	}
	return false
}

// PaymentFormData данные карты, как их видит пользователь.
// PAN хранится в отображаемом виде (с пробелами), Expire в виде MM/YY.
type PaymentFormData struct {
	PAN        string `json:"pan" form:"pan" validate:"pan"`
	Expire     string `json:"expire" form:"expire" validate:"expire"`
	Cardholder string `json:"cardholder" form:"cardholder" validate:"cardholder"`
	CVC        string `json:"cvc" form:"cvc" validate:"cvc"`
}

// Set записывает значение поля по имени. Возвращает false для неизвестного поля.
func (d *PaymentFormData) Set(field, value string) bool {
	switch field {
	case FieldPAN:
		d.PAN = value
	case FieldExpire:
		d.Expire = value
	case FieldCardholder:
		d.Cardholder = value
	case FieldCVC:
		d.CVC = value
	default:
		return false
	}
	return true
}
