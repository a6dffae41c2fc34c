package labhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"apilab/internal/board"
	"apilab/internal/logger"
	"apilab/internal/metrics"
	"apilab/internal/store/journal"

	"github.com/gin-gonic/gin"
)

// Board is the part of the board the HTTP surface drives.
type Board interface {
	List() []board.Unit
	Snapshot(id string) (board.Unit, error)
	SetInput(id, value string) error
	Run(ctx context.Context, id string) (bool, error)
	Remove(id string) error
}

// RunLister serves the run history.
type RunLister interface {
	Recent(ctx context.Context, q journal.Query) ([]journal.Entry, error)
}

// Server serves the dashboard and its JSON API.
type Server struct {
	addr            string
	router          *gin.Engine
	shutdownTimeout time.Duration
}

type ServerConfig struct {
	Addr            string
	Board           Board
	Runs            RunLister
	Recorder        metrics.Recorder
	MetricsPath     string
	MetricsHandler  http.Handler
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

const defaultMaxUpload = 10 << 20

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Board == nil {
		return nil, errors.New("lab http server requires a board")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.Noop{}
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes
	router.Use(gin.Recovery(), requestLogger(), requestMetrics(cfg.Recorder))

	if err := loadTemplates(router); err != nil {
		return nil, err
	}
	if err := serveStatic(router); err != nil {
		return nil, err
	}

	h := &handlers{board: cfg.Board, runs: cfg.Runs, maxUpload: cfg.MaxUploadBytes}
	router.GET("/", h.index)
	router.GET("/lab", h.index)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(cfg.MetricsHandler))
	}
	h.register(router.Group("/api"))

	return &Server{addr: cfg.Addr, router: router, shutdownTimeout: cfg.ShutdownTimeout}, nil
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("[http] listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path += "?" + q
		}
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", c.Request.Method, path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}

// requestMetrics labels by route template so card ids do not explode the
// label space.
func requestMetrics(rec metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if strings.HasPrefix(route, "/static/") {
			route = "/static"
		}
		rec.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
