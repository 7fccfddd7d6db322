// Package main provides the arena server binary: the combat session engine
// behind a thin HTTP API, with Redis session storage and PostgreSQL
// character persistence.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/api"
	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/effect"
	"github.com/cory-johannsen/arena/internal/observability"
	"github.com/cory-johannsen/arena/internal/server"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
	"github.com/cory-johannsen/arena/internal/store"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting arena server",
		zap.String("http_addr", cfg.HTTP.Addr()),
	)

	// Connect to PostgreSQL for character snapshots and reconciliation
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	charRepo := postgres.NewCharacterRepository(pool.DB())

	// Connect to Redis for session snapshots
	redisStart := time.Now()
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	sessionStore, err := store.NewRedisStore(ctx, redisClient)
	if err != nil {
		logger.Fatal("connecting to redis", zap.Error(err))
	}
	logger.Info("session store connected",
		zap.String("addr", cfg.Redis.Addr()),
		zap.Duration("elapsed", time.Since(redisStart)),
	)

	// Load item/skill definitions
	effects, err := effect.LoadDirectory(cfg.Combat.EffectsDir)
	if err != nil {
		logger.Fatal("loading effect definitions", zap.Error(err))
	}
	logger.Info("loaded effect definitions", zap.Int("count", effects.Len()))

	engine := combat.NewEngine(
		sessionStore,
		charRepo,
		charRepo,
		effects,
		dice.NewCryptoSource(),
		combat.EngineConfig{
			MaxRounds:  cfg.Combat.MaxRounds,
			SessionTTL: cfg.Combat.SessionTTL,
			Costs: combat.CostTable{
				AttackStamina: cfg.Combat.AttackStaminaCost,
				DefendStamina: cfg.Combat.DefendStaminaCost,
			},
		},
		logger.Named("combat"),
	)

	httpServer := api.NewServer(engine, logger.Named("api"), cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout)
	httpServer.AddHealthCheck("postgres", func(ctx context.Context) error {
		return pool.Health(ctx, 2*time.Second)
	})
	httpServer.AddHealthCheck("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	// Stopped in reverse order: HTTP drains before the stores close.
	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error { return nil },
		StopFn:  pool.Close,
	})
	lifecycle.Add("redis", &server.FuncService{
		StartFn: func() error { return nil },
		StopFn:  func() { _ = redisClient.Close() },
	})
	lifecycle.Add("http", &server.FuncService{
		StartFn: func() error { return httpServer.Listen(cfg.HTTP.Addr()) },
		StopFn:  func() { _ = httpServer.Shutdown() },
	})

	logger.Info("arena server ready", zap.Duration("startup", time.Since(start)))
	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
