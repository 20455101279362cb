// Package main runs the standalone clip generation worker and the stale-job reaper.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/clipai/backend/config"
	"github.com/clipai/backend/internal/generation"
	"github.com/clipai/backend/internal/worker"
	"github.com/clipai/backend/pkg/database"
	"github.com/clipai/backend/pkg/queue"
	"github.com/clipai/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Store.Driver != "postgres" || cfg.Worker.Dispatch != "redis" {
		logger.Fatal("standalone worker requires STORE_DRIVER=postgres and QUEUE_DRIVER=redis")
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	repo := generation.NewRepository(pool)
	analyzer := generation.NewSimulatedAnalyzer(generation.SimulatedAnalyzerConfig{
		Duration:   cfg.Generation.SimulatedDuration,
		ClipLength: cfg.Generation.ClipLength,
		Latency:    cfg.Generation.SimulatedLatency,
	})
	engine := generation.NewEngine(repo, analyzer, generation.Config{
		Timeout:  cfg.Generation.Timeout,
		MaxClips: cfg.Generation.MaxClips,
	}, logger)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewGenerationProcessor(jobQueue, engine, cfg.Worker.Concurrency, logger)
	reaper := worker.NewReaper(repo, jobQueue, worker.ReaperConfig{
		Spec:         cfg.Worker.ReaperSpec,
		QueuedAfter:  cfg.Worker.QueuedAfter,
		RunTimeout:   engine.Timeout(),
		RunningGrace: cfg.Worker.RunningGrace,
	}, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := reaper.Start(workerCtx); err != nil {
		logger.Fatal("reaper", zap.Error(err))
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = processor.Run(workerCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	reaper.Stop()
	<-done
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
