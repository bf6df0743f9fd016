package handlers

import (
	"errors"
	"net/http"

	"github.com/Dhoini/payform/internal/card"
	"github.com/Dhoini/payform/internal/domain"
	"github.com/Dhoini/payform/internal/form"
	"github.com/Dhoini/payform/internal/metrics"
	"github.com/Dhoini/payform/pkg/logger"
	"github.com/Dhoini/payform/pkg/req"
	"github.com/Dhoini/payform/pkg/res"
	"github.com/gin-gonic/gin"
)

// FormTemplate имя шаблона формы оплаты
const FormTemplate = "form.html"

// FormPage данные для шаблона формы
type FormPage struct {
	Data       domain.PaymentFormData
	Errors     map[string]string
	Submitting bool
}

type formatRequest struct {
	Field    string `json:"field" validate:"required,oneof=pan expire cvc cardholder"`
	Value    string `json:"value"`
	Validate bool   `json:"validate"`
}

type formatResponse struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Error string `json:"error,omitempty"`
}

// FormHandler обработчик формы оплаты
type FormHandler struct {
	payer     form.Payer
	validator *card.Validator
	observer  form.SubmitObserver
	metrics   metrics.PaymentMetrics
	log       *logger.Logger
}

// NewFormHandler создает новый обработчик формы оплаты
func NewFormHandler(payer form.Payer, validator *card.Validator, observer form.SubmitObserver, m metrics.PaymentMetrics, log *logger.Logger) *FormHandler {
	return &FormHandler{
		payer:     payer,
		validator: validator,
		observer:  observer,
		metrics:   m,
		log:       log,
	}
}

func (h *FormHandler) newForm() *form.Form {
	return form.New(h.payer, h.validator, h.observer, h.metrics, h.log)
}

// ShowForm отдает пустую форму
func (h *FormHandler) ShowForm(c *gin.Context) {
	c.HTML(http.StatusOK, FormTemplate, FormPage{Errors: map[string]string{}})
}

// SubmitForm принимает форму, проверяет ее и отправляет платеж.
// При успехе перенаправляет на страницу статуса.
func (h *FormHandler) SubmitForm(c *gin.Context) {
	f := h.newForm()
	for _, field := range domain.FormFields {
		// все поля из FormFields известны форме
		_ = f.Edit(field, c.PostForm(field))
	}

	pid, err := f.Submit(c.Request.Context())
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, domain.ErrValidationFailed) {
			code = http.StatusUnprocessableEntity
		} else {
			_ = c.Error(err)
		}
		c.HTML(code, FormTemplate, FormPage{Data: f.Data(), Errors: f.Errors().Map()})
		return
	}

	h.log.Infow("Payment submitted", "pid", pid)
	c.Redirect(http.StatusSeeOther, form.StatusPath(pid))
}

// Format применяет маску ввода к одному полю. С validate=true также
// возвращает ошибку проверки поля.
func (h *FormHandler) Format(c *gin.Context) {
	body, err := req.HandleBody[formatRequest](c, h.log)
	if err != nil {
		return
	}

	resp := formatResponse{Field: body.Field, Value: form.Mask(body.Field, body.Value)}
	if body.Validate {
		msg, err := h.validator.ValidateField(body.Field, resp.Value)
		if err != nil {
			res.JSONError(c, http.StatusUnprocessableEntity, res.ErrorResponse{Error: err.Error()})
			return
		}
		resp.Error = msg
	}
	res.JSON(c, http.StatusOK, resp)
}
