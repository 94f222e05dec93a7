package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"wattwise-server/confs"
	"wattwise-server/db"
	"wattwise-server/identity"
	"wattwise-server/logging"
	"wattwise-server/ratelimit"
	"wattwise-server/server"

	"go.uber.org/zap"
)

func main() {
	// load config
	cfg, err := confs.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// identity provider; production refuses to start without it
	auth, err := identity.FromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("identity provider initialisation failed", zap.Error(err))
	}

	// connect to database Postgres
	database, err := db.Connect(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to DB", zap.Error(err))
	}
	defer database.Close()

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb, err := ratelimit.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory rate limiting", zap.Error(err))
		} else {
			defer rdb.Close()
			limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimitMax, cfg.RateLimitWindow, "wattwise:ratelimit")
			logger.Info("using redis rate limiting", zap.String("addr", cfg.RedisAddr))
		}
	}

	// run server
	srv := server.NewServer(cfg, database, auth, limiter, logger)
	if err := srv.Start(ctx); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return
	}
	logger.Info("server stopped cleanly")
}
