// Package httpapi serves the latest correlation report over HTTP: the HTML
// page at the root plus a small JSON API for the report, summary and graph.
package httpapi

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"horse.fit/mosaic/internal/auth"
	"horse.fit/mosaic/internal/globaltime"
	"horse.fit/mosaic/internal/report"
)

// Options configures the report server.
type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// AdminUser/AdminPasswordHash enable HTTP basic auth when the hash is
	// non-empty. The hash is bcrypt.
	AdminUser         string
	AdminPasswordHash string
}

// Server holds the most recent report and serves it until replaced.
type Server struct {
	logger zerolog.Logger
	opts   Options

	mu     sync.RWMutex
	latest *report.Report
}

// NewServer applies option defaults. The server starts without a report;
// SetReport publishes one.
func NewServer(logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := opts.Port
	if port <= 0 {
		port = 8274
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		logger: logger,
		opts: Options{
			Host:              host,
			Port:              port,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			ShutdownTimeout:   shutdownTimeout,
			AdminUser:         strings.TrimSpace(opts.AdminUser),
			AdminPasswordHash: strings.TrimSpace(opts.AdminPasswordHash),
		},
	}
}

// SetReport publishes a report; subsequent requests serve it.
func (s *Server) SetReport(r report.Report) {
	s.mu.Lock()
	s.latest = &r
	s.mu.Unlock()
}

func (s *Server) currentReport() (report.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return report.Report{}, false
	}
	return *s.latest, true
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.buildEcho()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("mosaic report server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("mosaic report server stopped")
	return nil
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}
			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	if s.opts.AdminPasswordHash != "" {
		e.Use(middleware.BasicAuth(func(username, password string, _ echo.Context) (bool, error) {
			userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.opts.AdminUser)) == 1
			passOK := auth.VerifyPassword(password, s.opts.AdminPasswordHash)
			return userOK && passOK, nil
		}))
	}

	e.GET("/", s.handleReportHTML)
	e.GET("/healthz", s.handleHealth)

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/report", s.handleReportJSON)
	api.GET("/summary", s.handleSummary)
	api.GET("/graph", s.handleGraph)

	return e
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		if status >= 500 {
			_ = internalError(c, "Internal server error")
			return
		}
		_ = fail(c, status, message, nil)
		return
	}

	_ = c.String(status, message)
}

func (s *Server) handleHealth(c echo.Context) error {
	_, hasReport := s.currentReport()
	return success(c, map[string]any{
		"service":    "mosaic",
		"time":       globaltime.UTC(),
		"has_report": hasReport,
	})
}

func (s *Server) handleReportHTML(c echo.Context) error {
	r, ok := s.currentReport()
	if !ok {
		return c.String(http.StatusNotFound, "no report available yet")
	}

	var buf bytes.Buffer
	if err := r.WriteHTML(&buf); err != nil {
		s.logger.Error().Err(err).Msg("render report HTML failed")
		return c.String(http.StatusInternalServerError, "failed to render report")
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (s *Server) handleReportJSON(c echo.Context) error {
	r, ok := s.currentReport()
	if !ok {
		return failNotFound(c, "No report available yet")
	}
	return success(c, r)
}

func (s *Server) handleSummary(c echo.Context) error {
	r, ok := s.currentReport()
	if !ok {
		return failNotFound(c, "No report available yet")
	}
	return success(c, r.Summary)
}

func (s *Server) handleGraph(c echo.Context) error {
	r, ok := s.currentReport()
	if !ok {
		return failNotFound(c, "No report available yet")
	}
	return success(c, r.Graph)
}
