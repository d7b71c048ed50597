package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/todos/internal/logging"
	"github.com/labstack/echo/v4"
)

// NewEcho builds the echo instance with all routes registered.
func NewEcho(h *Handler, a PrincipalResolver, logger logging.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(RequestLogger(logger))
	e.Use(CORS())

	g := e.Group("/todos", Authenticate(a, logger))
	g.GET("", h.ListTodos)
	g.POST("", h.CreateTodo)
	g.PATCH("/:todoId", h.UpdateTodo)
	g.DELETE("/:todoId", h.DeleteTodo)
	g.POST("/:todoId/attachment", h.GenerateUploadURL)

	return e
}

// Server runs the REST API until its context is cancelled.
type Server struct {
	address         string
	echo            *echo.Echo
	logger          logging.Logger
	shutdownTimeout time.Duration
}

func NewServer(address string, h *Handler, a PrincipalResolver, logger logging.Logger, shutdownTimeout time.Duration) *Server {
	logger = logger.With("module", "http_server")
	return &Server{
		address:         address,
		echo:            NewEcho(h, a, logger),
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}
}

func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	s.echo.Listener = listen

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		stopped <- s.echo.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}
