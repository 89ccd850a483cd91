package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"QuantDash/internal/calculator"
	"QuantDash/internal/palette"
	"QuantDash/internal/scheduler"
)

// APIResponse is the envelope of every JSON reply.
type APIResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, APIResponse{Status: status, Message: http.StatusText(status), Data: data})
}

type commandRequest struct {
	ID string `json:"id" validate:"required"`
}

type settingsRequest struct {
	Symbol                 *string `json:"symbol" validate:"omitnil,min=1,max=16"`
	AutoRefresh            *bool   `json:"auto_refresh"`
	RefreshIntervalSeconds *int    `json:"refresh_interval_seconds" validate:"omitnil,min=1,max=60"`
	Theme                  *string `json:"theme" validate:"omitnil,oneof=dark light"`
	TimeRange              *string `json:"time_range" validate:"omitnil,oneof=1D 1W 1M 3M 1Y"`
}

func (s *Server) registerRoutes() {
	e := s.echo
	e.GET("/healthz", s.handleHealth)

	api := e.Group("/api")
	api.GET("/session", s.handleSession)
	api.GET("/commands", s.handleCommands)
	api.POST("/commands", s.handleExecute)
	api.PUT("/settings", s.handleSettings)
	api.GET("/history.csv", s.handleCSV)

	e.GET("/ws", s.handleWS)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSession(c echo.Context) error {
	return respond(c, http.StatusOK, s.sched.View())
}

// handleCommands lists the palette catalog, filtered by ?q= like the palette.
func (s *Server) handleCommands(c echo.Context) error {
	return respond(c, http.StatusOK, palette.Filter(palette.DefaultCatalog, c.QueryParam("q")))
}

func (s *Server) handleExecute(c echo.Context) error {
	var req commandRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, http.StatusBadRequest, err.Error())
	}
	if err := s.sched.Execute(c.Request().Context(), req.ID); err != nil {
		if errors.Is(err, scheduler.ErrUnknownCommand) {
			return respond(c, http.StatusBadRequest, err.Error())
		}
		return respond(c, http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, s.sched.View())
}

func (s *Server) handleSettings(c echo.Context) error {
	var req settingsRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, http.StatusBadRequest, err.Error())
	}
	if req.Symbol != nil {
		s.sched.SetSymbol(*req.Symbol)
	}
	if req.AutoRefresh != nil {
		s.sched.SetAutoRefresh(*req.AutoRefresh)
	}
	if req.RefreshIntervalSeconds != nil {
		s.sched.SetRefreshIntervalSeconds(*req.RefreshIntervalSeconds)
	}
	if req.Theme != nil {
		s.sched.SetTheme(scheduler.Theme(*req.Theme))
	}
	if req.TimeRange != nil {
		s.sched.SetTimeRange(calculator.TimeRange(*req.TimeRange))
	}
	return respond(c, http.StatusOK, s.sched.View())
}

func (s *Server) handleCSV(c echo.Context) error {
	snap := s.sched.Snapshot()
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", calculator.CSVFilename(snap.Symbol)))
	return c.Blob(http.StatusOK, "text/csv", []byte(calculator.ToCSV(snap.Symbol, snap.History)))
}
