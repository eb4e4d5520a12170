// Command vin-worker answers VIN checks over NATS and admits vehicles into
// the inventory from the intake subject.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/towline/engine/inventory"
	"github.com/WessleyAI/towline/pkg/config"
	"github.com/WessleyAI/towline/pkg/metrics"
)

// Config holds all environment-based configuration.
type Config struct {
	MetricsAddr string       `env:"METRICS_ADDR" envDefault:":9091"`
	NATS        config.NATS  `envPrefix:"NATS_"`
	Neo4j       config.Neo4j `envPrefix:"NEO4J_"`
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
		logger.Error("worker exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.New("towline")
	msrv := reg.ServeAsync(cfg.MetricsAddr, logger)
	defer msrv.Close()

	driver, err := neo4j.NewDriverWithContext(cfg.Neo4j.URL, neo4j.BasicAuth(cfg.Neo4j.User, cfg.Neo4j.Pass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer driver.Close(ctx)
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j verify: %w", err)
	}
	store := inventory.New(driver)
	if err := store.Init(ctx); err != nil {
		logger.Warn("inventory constraint not ensured", "err", err)
	}

	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name("vin-worker"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	w := newWorker(nc, store, reg, logger)
	if _, err := w.start(cfg.NATS.Queue); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	logger.Info("vin-worker started", "nats", cfg.NATS.URL, "queue", cfg.NATS.Queue)

	<-ctx.Done()
	logger.Info("shutdown signal received")
	return nc.Drain()
}
