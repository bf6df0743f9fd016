package res

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse представляет формат JSON-ответа для ошибок.
type ErrorResponse struct {
	Error   string `json:"error"`             // Сообщение об ошибке (для пользователя)
	Details any    `json:"details,omitempty"` // Детали ошибки (например, ошибки валидации по полям)
}

// JSON отправляет JSON-ответ с заданным статусом.
func JSON(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}

// JSONError отправляет JSON-ответ ошибки и прерывает цепочку обработчиков.
func JSONError(c *gin.Context, status int, errResponse ErrorResponse) {
	c.AbortWithStatusJSON(status, errResponse)
}
