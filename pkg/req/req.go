package req

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/Dhoini/payform/pkg/logger"
	"github.com/Dhoini/payform/pkg/res"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode декодирует JSON из io.Reader в структуру типа T.
func Decode[T any](body io.Reader) (T, error) {
	var payload T
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// IsValid валидирует структуру типа T.
func IsValid[T any](payload T) error {
	return validate.Struct(payload)
}

// HandleBody декодирует, валидирует тело запроса и при ошибке сам отвечает 422.
func HandleBody[T any](c *gin.Context, log *logger.Logger) (*T, error) {
	body, err := Decode[T](c.Request.Body)
	if err != nil {
		log.Warnw("Failed to decode request body", "error", err, "path", c.FullPath())
		res.JSONError(c, http.StatusUnprocessableEntity, res.ErrorResponse{Error: "Некорректный формат запроса"})
		return nil, err
	}

	if err := IsValid(body); err != nil {
		log.Warnw("Request body validation failed", "error", err, "path", c.FullPath())
		res.JSONError(c, http.StatusUnprocessableEntity, res.ErrorResponse{Error: "Некорректные данные запроса"})
		return nil, err
	}
	return &body, nil
}
