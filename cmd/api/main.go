// Package main implements the towline HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"

	"github.com/WessleyAI/towline/engine/inventory"
	"github.com/WessleyAI/towline/engine/quote"
	"github.com/WessleyAI/towline/engine/vpic"
	"github.com/WessleyAI/towline/pkg/config"
	"github.com/WessleyAI/towline/pkg/metrics"
	"github.com/WessleyAI/towline/pkg/mid"
	"github.com/WessleyAI/towline/pkg/resilience"
)

// Config holds all environment-based configuration.
type Config struct {
	Port       string           `env:"PORT" envDefault:"8080"`
	CORSOrigin string           `env:"CORS_ORIGIN" envDefault:"*"`
	Neo4j      config.Neo4j     `envPrefix:"NEO4J_"`
	Redis      config.Redis     `envPrefix:"REDIS_"`
	VPIC       config.VPIC      `envPrefix:"VPIC_"`
	RateLimit  config.RateLimit `envPrefix:"RATE_LIMIT_"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load[Config]()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.New("towline")
	m := newAPIMetrics(reg)

	// --- Neo4j inventory ---
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4j.URL, neo4j.BasicAuth(cfg.Neo4j.User, cfg.Neo4j.Pass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer driver.Close(ctx)

	store := inventory.New(driver)
	if err := store.Init(ctx); err != nil {
		logger.Warn("inventory constraint not ensured", "err", err)
	}

	// --- vPIC client, optionally cached in Redis ---
	vopts := []vpic.Option{
		vpic.WithHTTPClient(&http.Client{Timeout: cfg.VPIC.Timeout}),
		vpic.WithLimiter(resilience.NewLimiter(resilience.LimiterOpts{Rate: cfg.VPIC.Rate, Burst: cfg.VPIC.Burst})),
		vpic.WithLogger(logger),
		vpic.WithBreakerOpts(resilience.BreakerOpts{
			OnStateChange: func(from, to resilience.State) {
				m.breaker.Set(float64(to))
				logger.Warn("vpic breaker state change", "from", from.String(), "to", to.String())
			},
		}),
	}
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, vpic cache will miss", "err", err)
		}
		vopts = append(vopts, vpic.WithCache(vpic.NewRedisCache(rdb, ""), cfg.Redis.TTL))
	}
	decoder := vpic.New(cfg.VPIC.BaseURL, vopts...)

	// --- HTTP server ---
	s := &server{
		store:   store,
		decoder: decoder,
		rates:   quote.DefaultRates,
		log:     logger,
		m:       m,
	}
	mux := s.routes()
	mux.Handle("GET /metrics", reg.Handler())

	limiter := resilience.NewKeyedLimiter(resilience.LimiterOpts{
		Rate:    cfg.RateLimit.Rate,
		Burst:   cfg.RateLimit.Burst,
		IdleTTL: cfg.RateLimit.IdleTTL,
	})
	defer limiter.Close()
	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.RateLimit(limiter),
		mid.OTel("towline-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
