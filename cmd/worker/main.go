// Package main runs the background feedback worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/onechurch/backend/config"
	"github.com/onechurch/backend/internal/feedback"
	"github.com/onechurch/backend/internal/logging"
	"github.com/onechurch/backend/internal/store/postgres"
	"github.com/onechurch/backend/internal/worker"
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

	// The worker persists feedback, so it needs the durable store and a queue.
	if cfg.Store.Driver != config.StorePostgres || !cfg.Redis.Enabled() {
		logger.Fatal("worker requires STORE_DRIVER=postgres and REDIS_ADDR",
			zap.String("store", cfg.Store.Driver), zap.Bool("redis", cfg.Redis.Enabled()))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jobQueue := queue.NewQueue(rdb, logger)
	svc := feedback.NewService(postgres.New(pool), jobQueue, logger)
	processor := worker.NewFeedbackProcessor(svc, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		processor.Run(workerCtx)
		close(done)
	}()
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	<-done
	logger.Info("worker stopped")
}
