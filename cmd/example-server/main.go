// The example server demonstrates wiring the limiter engine into an HTTP
// service: per-tier policies on a handful of endpoints, quota headers, a
// health probe, and graceful shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mohasinac/letitrip.in-sub054/internal/config"
	"github.com/mohasinac/letitrip.in-sub054/internal/logging"
	"github.com/mohasinac/letitrip.in-sub054/pkg/limiter"
)

func main() {
	// A missing .env is fine; the environment itself still applies.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	opts := []limiter.Option{
		limiter.WithLogger(log),
		limiter.WithTimeout(cfg.RedisTimeout),
		limiter.WithSweepInterval(cfg.SweepInterval),
	}
	if cfg.RedisEnabled() {
		opts = append(opts, limiter.WithRedis(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: cfg.RedisPoolSize,
		}))
		log.Info("using distributed rate limit store", zap.String("address", cfg.RedisAddress))
	} else {
		log.Info("no redis endpoint configured, using in-process rate limit store")
	}
	engine := limiter.New(opts...)
	defer engine.Close()

	presets := limiter.Presets()
	if cfg.PresetsFile != "" {
		presets, err = limiter.LoadPresets(cfg.PresetsFile)
		if err != nil {
			log.Fatal("failed to load rate limit presets", zap.Error(err))
		}
	}

	r := chi.NewRouter()
	r.Use(requestLogger(log))

	r.Get("/healthz", healthHandler(engine))

	limited := func(tier string) func(http.Handler) http.Handler {
		return limiter.Middleware(engine, presets[tier], nil)
	}
	r.With(limited("public")).Get("/", okHandler("welcome"))
	r.With(limited("api")).Get("/api/products", okHandler("products"))
	r.With(limited("search")).Get("/api/search", okHandler("search results"))
	r.With(limited("auth")).Post("/api/auth/login", okHandler("logged in"))
	r.With(limited("upload")).Post("/api/uploads", okHandler("uploaded"))
	r.With(limited("payment")).Post("/api/payments", okHandler("payment accepted"))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown incomplete", zap.Error(err))
	}
}

func okHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, body)
	}
}

// healthHandler reports the distributed store's round-trip latency, or that
// the process runs purely in-memory.
func healthHandler(engine *limiter.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latency, err := engine.Ping(r.Context())
		switch {
		case errors.Is(err, limiter.ErrNoRedis):
			fmt.Fprintln(w, `{"status":"ok","store":"memory"}`)
		case err != nil:
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"degraded","store":"redis","error":%q}`+"\n", err.Error())
		default:
			fmt.Fprintf(w, `{"status":"ok","store":"redis","latency_ms":%d}`+"\n", latency.Milliseconds())
		}
	}
}

// statusWriter captures the status code for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("remote_addr", r.RemoteAddr),
			}
			switch {
			case sw.status >= 500:
				log.Error("http request", fields...)
			case sw.status >= 400:
				log.Warn("http request", fields...)
			default:
				log.Info("http request", fields...)
			}
		})
	}
}
