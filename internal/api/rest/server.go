package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Dhoini/payform/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Server представляет HTTP сервер
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
	cancel     context.CancelFunc
}

// NewServer создает новый HTTP сервер на указанном порту.
// WriteTimeout не задается: поток статуса держит соединение открытым.
func NewServer(router *gin.Engine, port string, log *logger.Logger) *Server {
	// контекст всех запросов отменяется в Shutdown, чтобы закрыть потоки SSE
	baseCtx, cancel := context.WithCancel(context.Background())
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return baseCtx },
		},
		log:    log,
		cancel: cancel,
	}
}

// Start запускает HTTP сервер и блокируется до Shutdown
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server listen: %w", err)
	}
	return s.Serve(ln)
}

// Serve обслуживает запросы на готовом listener
func (s *Server) Serve(ln net.Listener) error {
	s.log.Infow("Starting HTTP server", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown выполняет graceful shutdown сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Infow("Server is shutting down...")
	s.cancel()
	return s.httpServer.Shutdown(ctx)
}
