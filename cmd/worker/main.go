// Package main runs the background worker: proposal expiry sweeps and notification fan-out.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pitstop-trips/backend/config"
	"github.com/pitstop-trips/backend/internal/notifications"
	"github.com/pitstop-trips/backend/internal/proposals"
	"github.com/pitstop-trips/backend/internal/sweeper"
	"github.com/pitstop-trips/backend/internal/worker"
	"github.com/pitstop-trips/backend/pkg/database"
	"github.com/pitstop-trips/backend/pkg/queue"
	"github.com/pitstop-trips/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewNotificationProcessor(notifications.NewRepository(pool), jobQueue, logger)
	sw := sweeper.New(proposals.NewRepository(pool, cfg.Voting.ProposalTTL), cfg.Voting.ProposalTTL, cfg.Voting.SweepInterval, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	go sw.Run(workerCtx)
	logger.Info("worker started", zap.Duration("sweep_interval", cfg.Voting.SweepInterval))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
