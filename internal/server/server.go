package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"QuantDash/internal/metrics"
	"QuantDash/internal/scheduler"
)

// Server exposes the dashboard session over HTTP and WebSocket.
type Server struct {
	echo    *echo.Echo
	sched   *scheduler.Scheduler
	metrics *metrics.Recorder
	hub     *Hub
	log     zerolog.Logger
	addr    string
}

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error { return rv.v.Struct(i) }

// New builds the server and registers its routes. m may be nil.
func New(sched *scheduler.Scheduler, m *metrics.Recorder, log zerolog.Logger, addr string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{v: validator.New(validator.WithRequiredStructEnabled())}

	log = log.With().Str("component", "server").Logger()
	e.Use(middleware.Recover())
	e.Use(requestLogging(log))

	s := &Server{
		echo:    e,
		sched:   sched,
		metrics: m,
		hub:     NewHub(sched, log),
		log:     log,
		addr:    addr,
	}
	s.registerRoutes()
	return s
}

// Start runs the hub and begins listening in the background.
func (s *Server) Start() {
	go s.hub.Run()
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("http server listening")
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("http server error")
		}
	}()
}

// Stop gracefully shuts down the HTTP server and disconnects WebSocket clients.
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Stop()
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info().Msg("http server stopped")
	return nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// requestLogging logs every HTTP request with its status and latency.
func requestLogging(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			log.Debug().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Msg("request")
			return nil
		}
	}
}
