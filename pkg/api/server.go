package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/time/rate"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxConcurrent  int
	RateLimit      float64 // requests per second across all clients; 0 disables
	RateBurst      int
	CORSOrigin     string
	StaticDir      string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:           addr,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		RequestTimeout: 5 * time.Second,
		MaxConcurrent:  runtime.NumCPU() * 2,
	}
}

// middleware carries the shared state of the request wrappers.
type middleware struct {
	cfg     ServerConfig
	sem     chan struct{}
	limiter *rate.Limiter // nil when rate limiting is off
	metrics *Metrics
	logger  *slog.Logger
}

// NewServer creates an HTTP server with all routes and middleware.
func NewServer(cfg ServerConfig, handlers *Handlers, metrics *Metrics, logger *slog.Logger) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	mw := &middleware{
		cfg:     cfg,
		sem:     make(chan struct{}, max(cfg.MaxConcurrent, 1)),
		metrics: metrics,
		logger:  logger,
	}
	if cfg.RateLimit > 0 {
		mw.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))
	}

	mux := http.NewServeMux()
	for _, route := range []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"POST /api/v1/route", handlers.HandleRoute},
		{"GET /api/v1/edge", handlers.HandleEdge},
		{"GET /api/v1/nodes/{id}/neighbors", handlers.HandleNeighbors},
		{"GET /api/v1/health", handlers.HandleHealth},
		{"GET /api/v1/stats", handlers.HandleStats},
	} {
		mux.HandleFunc(route.pattern, mw.wrap(route.pattern, route.handler))
	}
	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	if cfg.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// ListenAndServe starts the server and blocks until a shutdown signal.
func ListenAndServe(srv *http.Server, logger *slog.Logger) error {
	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// wrap adds security headers, CORS, rate and concurrency limiting,
// recovery, a request deadline, access logging and metrics.
func (mw *middleware) wrap(route string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if mw.metrics != nil {
				mw.metrics.observe(route, rec.status, time.Since(start))
			}
		}()

		// Security headers.
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")

		// CORS.
		if mw.cfg.CORSOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", mw.cfg.CORSOrigin)
		}

		// Rate limiter.
		if mw.limiter != nil && !mw.limiter.Allow() {
			mw.reject("rate")
			rec.Header().Set("Retry-After", "1")
			writeError(rec, http.StatusTooManyRequests, "rate_limited", "")
			return
		}

		// Concurrency limiter.
		select {
		case mw.sem <- struct{}{}:
			defer func() { <-mw.sem }()
		default:
			mw.reject("concurrency")
			rec.Header().Set("Retry-After", "1")
			writeError(rec, http.StatusServiceUnavailable, "service_unavailable", "")
			return
		}
		if mw.metrics != nil {
			mw.metrics.inFlight.Inc()
			defer mw.metrics.inFlight.Dec()
		}

		// Recovery.
		defer func() {
			if p := recover(); p != nil {
				mw.logger.Error("panic", "route", route, "panic", p)
				writeError(rec, http.StatusInternalServerError, "internal_error", "")
			}
		}()

		// Request timeout.
		if mw.cfg.RequestTimeout > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), mw.cfg.RequestTimeout)
			defer cancel()
			r = r.WithContext(ctx)
		}

		handler(rec, r)
		mw.logger.Info("request",
			"method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration", time.Since(start).Round(time.Microsecond))
	}
}

func (mw *middleware) reject(reason string) {
	if mw.metrics != nil {
		mw.metrics.rejected.WithLabelValues(reason).Inc()
	}
}
