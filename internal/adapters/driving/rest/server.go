// Package rest serves the upload endpoint of a crawl job over HTTP.
package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driving"
	"github.com/Bowriverstudio/fscrawler/internal/logger"
)

// shutdownTimeout bounds how long in-flight requests may finish on shutdown.
const shutdownTimeout = 5 * time.Second

// maxTagsSize caps the tags overlay read from a request.
const maxTagsSize = 1 << 20

// UploadObserver records upload outcomes, typically as metrics.
type UploadObserver interface {
	ObserveUpload(err error)
}

// Config holds the dependencies of the server.
type Config struct {
	// Job names the crawl job served.
	Job string

	// Version is reported by the status endpoint.
	Version string

	// Prefix is the path all routes are mounted under, e.g. "/fscrawler".
	Prefix string

	// Uploader indexes uploaded files. Required.
	Uploader driving.Uploader

	// Crawler is reported by the status endpoint when set.
	Crawler driving.Crawler

	// Observer records upload outcomes when set.
	Observer UploadObserver

	// Metrics is served on /metrics when set.
	Metrics http.Handler
}

// Server is the REST upload server.
type Server struct {
	cfg  Config
	echo *echo.Echo
}

// NewServer creates the server and registers its routes.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Uploader == nil {
		return nil, fmt.Errorf("%w: uploader is required", domain.ErrInvalidInput)
	}
	cfg.Prefix = strings.TrimRight(cfg.Prefix, "/")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), id)))
		},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.L().DebugContext(c.Request().Context(), "http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency)
			return nil
		},
	}))

	s := &Server{cfg: cfg, echo: e}
	g := e.Group(cfg.Prefix)
	g.GET("/", s.status)
	if cfg.Prefix != "" {
		e.GET(cfg.Prefix, s.status)
	}
	g.POST("/_upload", s.upload)
	if cfg.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.Metrics))
	}
	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()
	logger.Info("REST service of %s listening on http://%s%s/", s.cfg.Job, addr, s.cfg.Prefix)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("rest server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("rest server shutdown: %w", err)
		}
		return nil
	}
}

// ListenAddress splits a rest.url setting such as "http://127.0.0.1:8080/fscrawler"
// into the listen address and the route prefix. The scheme is optional.
func ListenAddress(raw string) (addr, prefix string, err error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", domain.ConfigError("rest.url", err)
	}
	if u.Host == "" {
		return "", "", domain.ConfigError("rest.url", errors.New("missing host"))
	}
	return u.Host, strings.TrimRight(u.Path, "/"), nil
}

// response is the body of error replies.
type response struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	if code >= http.StatusInternalServerError {
		logger.L().ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", err)
	}
	if !c.Response().Committed {
		_ = c.JSON(code, response{OK: false, Message: msg})
	}
}

// statusResponse is the body of the status endpoint.
type statusResponse struct {
	OK      bool           `json:"ok"`
	Version string         `json:"version"`
	Job     string         `json:"job"`
	Crawler *crawlerStatus `json:"crawler,omitempty"`
}

type crawlerStatus struct {
	Phase              domain.Phase `json:"phase"`
	Running            bool         `json:"running"`
	DocumentsProcessed int          `json:"documents_processed"`
	Errors             int          `json:"errors"`
	LastCycle          *time.Time   `json:"last_cycle,omitempty"`
	LastError          string       `json:"last_error,omitempty"`
}

func (s *Server) status(c echo.Context) error {
	resp := statusResponse{OK: true, Version: s.cfg.Version, Job: s.cfg.Job}
	if s.cfg.Crawler != nil {
		st := s.cfg.Crawler.Status()
		resp.Crawler = &crawlerStatus{
			Phase:              st.Phase,
			Running:            st.Running,
			DocumentsProcessed: st.DocumentsProcessed,
			Errors:             st.ErrorCount,
			LastError:          st.LastError,
		}
		if !st.LastCycle.IsZero() {
			resp.Crawler.LastCycle = &st.LastCycle
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	file, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read file").SetInternal(err)
	}
	defer file.Close()

	tags, err := readTags(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read tags").SetInternal(err)
	}

	req := driving.UploadRequest{
		Filename: fh.Filename,
		Size:     fh.Size,
		Content:  file,
		ID:       c.FormValue("id"),
		Tags:     tags,
		Debug:    queryBool(c, "debug") || logger.IsVerbose(),
		Simulate: queryBool(c, "simulate"),
	}
	resp, err := s.cfg.Uploader.Upload(c.Request().Context(), req)
	if s.cfg.Observer != nil {
		s.cfg.Observer.ObserveUpload(err)
	}
	if err != nil {
		if errors.Is(err, domain.ErrMalformedOverlay) || errors.Is(err, domain.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
		}
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// readTags returns the tags overlay sent either as a file part or a plain field.
func readTags(c echo.Context) ([]byte, error) {
	fh, err := c.FormFile("tags")
	if err != nil {
		if v := c.FormValue("tags"); v != "" {
			return []byte(v), nil
		}
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxTagsSize))
}

func queryBool(c echo.Context, name string) bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	return err == nil && v
}
