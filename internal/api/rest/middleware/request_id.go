package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader заголовок с идентификатором запроса
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
	maxRequestID = 64
)

// RequestIDMiddleware берет идентификатор из заголовка или генерирует новый
// и возвращает его в ответе.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestID {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestID идентификатор текущего запроса, пустая строка если middleware не подключен
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
