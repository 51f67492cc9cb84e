// Package gateapi serves the authorization gate: a stateless, unauthenticated
// query surface that reduces a policy lookup to a single boolean. It runs as
// its own listener so door scanners and decrypt hooks never touch the
// application API.
package gateapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ticket-ledger/internal/ledger"
	"ticket-ledger/monitoring"
	"ticket-ledger/security"
)

type Server struct {
	echo    *echo.Echo
	ledger  *ledger.Ledger
	monitor *monitoring.Monitor
	addr    string
}

func New(led *ledger.Ledger, monitor *monitoring.Monitor, limiter *security.RateLimiter, addr string, enableMetrics bool) *Server {
	e := echo.New()

	s := &Server{
		echo:    e,
		ledger:  led,
		monitor: monitor,
		addr:    addr,
	}

	if limiter != nil {
		e.Use(limiter.AntiBotMiddleware())
		e.Use(limiter.GateRateLimit())
	}

	e.GET("/api/v1/authorize", s.authorize)
	e.GET("/api/v1/authorize/membership", s.membership)
	e.GET("/health", s.health)

	if enableMetrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	return s
}

// Handler exposes the underlying router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves until ctx is cancelled, then drains for up to five seconds.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.echo,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gate server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// authorize answers the gate question. The response is always 200 with a
// boolean; a denial never explains itself.
func (s *Server) authorize(c echo.Context) error {
	policyRef := c.QueryParam("policy")
	eventID := c.QueryParam("event_id")
	principal := c.QueryParam("principal")

	granted := s.ledger.Authorize(policyRef, eventID, principal)
	if s.monitor != nil {
		s.monitor.TrackAuthorize(eventID, granted)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"authorized": granted,
	})
}

// membership answers enrollment alone, ignoring the kill switch and payment
// state.
func (s *Server) membership(c echo.Context) error {
	policyRef := c.QueryParam("policy")
	principal := c.QueryParam("principal")

	return c.JSON(http.StatusOK, map[string]any{
		"member": s.ledger.AuthorizeMembershipOnly(policyRef, principal),
	})
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
