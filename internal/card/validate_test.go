package card

import (
	"testing"

	"github.com/Dhoini/payform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() domain.PaymentFormData {
	return domain.PaymentFormData{
		PAN:        "4111111111111111",
		Expire:     "12/25",
		Cardholder: "IVAN IVANOV",
		CVC:        "123",
	}
}

func TestValidateAcceptsValidForm(t *testing.T) {
	v := NewValidator()

	errs := v.Validate(validForm())
	assert.False(t, errs.HasErrors())

	formatted := validForm()
	formatted.PAN = FormatPAN(formatted.PAN)
	assert.Empty(t, v.Validate(formatted))
}

func TestValidateRejectsFields(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		mutate  func(d *domain.PaymentFormData)
		field   string
		message string
	}{
		{"single word cardholder", func(d *domain.PaymentFormData) { d.Cardholder = "Ivan" }, domain.FieldCardholder, domain.MsgInvalidCardholder},
		{"cyrillic cardholder", func(d *domain.PaymentFormData) { d.Cardholder = "Иван Иванов" }, domain.FieldCardholder, domain.MsgInvalidCardholder},
		{"double space cardholder", func(d *domain.PaymentFormData) { d.Cardholder = "IVAN  IVANOV" }, domain.FieldCardholder, domain.MsgInvalidCardholder},
		{"invalid month", func(d *domain.PaymentFormData) { d.Expire = "13/25" }, domain.FieldExpire, domain.MsgInvalidExpire},
		{"month zero", func(d *domain.PaymentFormData) { d.Expire = "00/25" }, domain.FieldExpire, domain.MsgInvalidExpire},
		{"year out of range", func(d *domain.PaymentFormData) { d.Expire = "12/27" }, domain.FieldExpire, domain.MsgInvalidExpire},
		{"non digit cvc", func(d *domain.PaymentFormData) { d.CVC = "12a" }, domain.FieldCVC, domain.MsgInvalidCVC},
		{"long cvc", func(d *domain.PaymentFormData) { d.CVC = "1234" }, domain.FieldCVC, domain.MsgInvalidCVC},
		{"short pan", func(d *domain.PaymentFormData) { d.PAN = "411111111111" }, domain.FieldPAN, domain.MsgInvalidPAN},
		{"pan with letters", func(d *domain.PaymentFormData) { d.PAN = "4111a11111111111" }, domain.FieldPAN, domain.MsgInvalidPAN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := validForm()
			tt.mutate(&data)

			errs := v.Validate(data)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.message, errs.GetByField(tt.field))
		})
	}
}

func TestValidateEmptyFormReportsAllFieldsInOrder(t *testing.T) {
	errs := NewValidator().Validate(domain.PaymentFormData{})

	assert.Equal(t, []string{domain.FieldPAN, domain.FieldExpire, domain.FieldCVC, domain.FieldCardholder}, errs.Fields())
	assert.ErrorIs(t, errs, domain.ErrValidationFailed)
}

func TestValidateField(t *testing.T) {
	v := NewValidator()

	msg, err := v.ValidateField(domain.FieldExpire, "12/25")
	require.NoError(t, err)
	assert.Empty(t, msg)

	msg, err = v.ValidateField(domain.FieldCVC, "12")
	require.NoError(t, err)
	assert.Equal(t, domain.MsgInvalidCVC, msg)

	_, err = v.ValidateField("email", "x")
	assert.ErrorIs(t, err, domain.ErrUnknownField)
}
