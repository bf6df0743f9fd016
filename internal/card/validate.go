package card

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/Dhoini/payform/internal/domain"
	"github.com/go-playground/validator/v10"
)

var (
	panRegex        = regexp.MustCompile(`^\d{13,19}$`)
	expireRegex     = regexp.MustCompile(`^(0[1-9]|1[0-2])/(2[1-6])$`)
	cvcRegex        = regexp.MustCompile(`^\d{3}$`)
	cardholderRegex = regexp.MustCompile(`^[A-Za-z]+( [A-Za-z]+)+$`)
)

// fieldMessages сообщение для каждого поля, не прошедшего проверку
var fieldMessages = map[string]string{
	domain.FieldPAN:        domain.MsgInvalidPAN,
	domain.FieldExpire:     domain.MsgInvalidExpire,
	domain.FieldCVC:        domain.MsgInvalidCVC,
	domain.FieldCardholder: domain.MsgInvalidCardholder,
}

// Validator проверяет PaymentFormData через go-playground/validator
// с зарегистрированными тегами pan, expire, cvc и cardholder.
type Validator struct {
	validate *validator.Validate
}

// NewValidator создает валидатор формы оплаты
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Ошибки адресуются по json-имени поля, как в форме
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "pan", func(fl validator.FieldLevel) bool {
		return panRegex.MatchString(NormalizePAN(fl.Field().String()))
	})
	mustRegister(v, "expire", func(fl validator.FieldLevel) bool {
		return expireRegex.MatchString(fl.Field().String())
	})
	mustRegister(v, "cvc", func(fl validator.FieldLevel) bool {
		return cvcRegex.MatchString(fl.Field().String())
	})
	mustRegister(v, "cardholder", func(fl validator.FieldLevel) bool {
		return cardholderRegex.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("card: register validation " + tag + ": " + err.Error())
	}
}

// Validate проверяет все поля и возвращает ошибки в порядке domain.FormFields.
// Пустой результат означает, что форму можно отправлять.
func (v *Validator) Validate(data domain.PaymentFormData) domain.ValidationErrors {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	failed := make(map[string]bool)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			failed[fe.Field()] = true
		}
	}

	var out domain.ValidationErrors
	for _, field := range domain.FormFields {
		if failed[field] {
			out.Add(field, fieldMessages[field])
		}
	}
	return out
}

// ValidateField проверяет одно поле. Пустая строка означает, что поле корректно.
func (v *Validator) ValidateField(field, value string) (string, error) {
	var ok bool
	switch field {
	case domain.FieldPAN:
		ok = panRegex.MatchString(NormalizePAN(value))
	case domain.FieldExpire:
		ok = expireRegex.MatchString(value)
	case domain.FieldCVC:
		ok = cvcRegex.MatchString(value)
	case domain.FieldCardholder:
		ok = cardholderRegex.MatchString(value)
	default:
		return "", domain.ErrUnknownField
	}
	if ok {
		return "", nil
	}
	return fieldMessages[field], nil
}
