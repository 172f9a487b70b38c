// Package main runs the OneChurch HTTP and websocket server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/onechurch/backend/config"
	"github.com/onechurch/backend/internal/fanout"
	"github.com/onechurch/backend/internal/logging"
	"github.com/onechurch/backend/internal/server"
	"github.com/onechurch/backend/internal/store"
	"github.com/onechurch/backend/internal/store/memory"
	"github.com/onechurch/backend/internal/store/postgres"
	"github.com/onechurch/backend/pkg/database"
	"github.com/onechurch/backend/pkg/queue"
	"github.com/onechurch/backend/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var st store.Store
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool, logger); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		st = postgres.New(pool)
	default:
		st = memory.New()
	}
	logger.Info("entity store ready", zap.String("driver", cfg.Store.Driver))

	hubOpts := []fanout.Option{fanout.WithSendBuffer(cfg.Fanout.SendBuffer)}
	deps := server.Deps{Store: st, Config: cfg, Logger: logger}
	var rdb *goredis.Client
	if cfg.Redis.Enabled() {
		rdb, err = redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		hubOpts = append(hubOpts, fanout.WithBridge(fanout.NewRedisBridge(rdb, logger)))
		// The worker writes to postgres; queued feedback would never reach a memory store.
		if cfg.Store.Driver == config.StorePostgres {
			deps.Queue = queue.NewQueue(rdb, logger)
		}
	} else {
		logger.Info("redis disabled: fanout is local and feedback is written directly")
	}
	deps.Hub = fanout.NewHub(logger, hubOpts...)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.NewRouter(deps),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
