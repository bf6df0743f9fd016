package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dhoini/payform/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware(), LoggerMiddleware(log))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	return r
}

func TestRequestIDGenerated(t *testing.T) {
	r := newRouter(logger.NewNop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, w.Body.String())
}

func TestRequestIDPropagated(t *testing.T) {
	r := newRouter(logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestLoggerMiddlewareLevels(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(logger.NewWithOutput(logger.DEBUG, &buf, true))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	out := buf.String()
	assert.Contains(t, out, `"level":"info"`)
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"path":"/boom"`)
	assert.Contains(t, out, `"status":502`)
	assert.Contains(t, out, `"request_id"`)
}
