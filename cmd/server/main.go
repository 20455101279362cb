// Package main runs the ClipAI HTTP API with an optional in-process generation worker and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/clipai/backend/config"
	"github.com/clipai/backend/internal/analytics"
	"github.com/clipai/backend/internal/auth"
	"github.com/clipai/backend/internal/captions"
	"github.com/clipai/backend/internal/clips"
	"github.com/clipai/backend/internal/generation"
	"github.com/clipai/backend/internal/memstore"
	"github.com/clipai/backend/internal/middleware"
	"github.com/clipai/backend/internal/schedule"
	"github.com/clipai/backend/internal/videos"
	"github.com/clipai/backend/internal/worker"
	"github.com/clipai/backend/pkg/database"
	"github.com/clipai/backend/pkg/queue"
	"github.com/clipai/backend/pkg/redis"
	"github.com/clipai/backend/pkg/response"
	"github.com/clipai/backend/pkg/storage"
)

// generationStore is what the engine and the reaper need from persistence.
type generationStore interface {
	generation.Store
	worker.ReaperStore
}

// stores groups the repositories of the selected driver.
type stores struct {
	users      auth.UserStore
	videos     videos.Repo
	generation generationStore
	clips      clips.Store
	posts      schedule.Store
	analytics  analytics.Store
}

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	var st stores
	switch cfg.Store.Driver {
	case "memory":
		mem := memstore.New()
		st = stores{
			users:      mem.Users(),
			videos:     mem.Videos(),
			generation: mem.Generation(),
			clips:      mem.Clips(),
			posts:      mem.Schedules(),
			analytics:  mem.Analytics(),
		}
		logger.Warn("using in-memory store; data is lost on restart")
	default:
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool, logger); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		st = stores{
			users:      auth.NewRepository(pool),
			videos:     videos.NewRepository(pool),
			generation: generation.NewRepository(pool),
			clips:      clips.NewRepository(pool),
			posts:      schedule.NewRepository(pool),
			analytics:  analytics.NewRepository(pool),
		}
	}

	var (
		blobs     videos.BlobStore
		localRoot string
	)
	switch cfg.Storage.Driver {
	case "s3":
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			Bucket:               cfg.AWS.MediaBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Fatal("s3", zap.Error(err))
		}
		blobs = s3Client
	default:
		local, err := storage.NewLocal(cfg.Storage.LocalDir, logger)
		if err != nil {
			logger.Fatal("local storage", zap.Error(err))
		}
		blobs = local
		localRoot = local.Root()
	}

	analyzer := generation.NewSimulatedAnalyzer(generation.SimulatedAnalyzerConfig{
		Duration:   cfg.Generation.SimulatedDuration,
		ClipLength: cfg.Generation.ClipLength,
		Latency:    cfg.Generation.SimulatedLatency,
	})
	engine := generation.NewEngine(st.generation, analyzer, generation.Config{
		Timeout:  cfg.Generation.Timeout,
		MaxClips: cfg.Generation.MaxClips,
	}, logger)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var (
		dispatch   worker.Dispatcher
		limiter    middleware.Limiter
		inline     *worker.InlineDispatcher
		workerDone = make(chan struct{})
	)
	switch cfg.Worker.Dispatch {
	case "inline":
		inline = worker.NewInlineDispatcher(workerCtx, engine, logger)
		dispatch = inline
		limiter = middleware.NewMemoryLimiter()
		close(workerDone)
	default:
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()

		jobQueue := queue.NewQueue(rdb.Client, logger)
		dispatch = jobQueue
		limiter = middleware.NewRedisLimiter(rdb.Client)

		if cfg.Worker.RunInProcess {
			processor := worker.NewGenerationProcessor(jobQueue, engine, cfg.Worker.Concurrency, logger)
			go func() {
				defer close(workerDone)
				_ = processor.Run(workerCtx)
			}()
		} else {
			close(workerDone)
		}
	}

	var reaper *worker.Reaper
	if cfg.Worker.RunInProcess || cfg.Worker.Dispatch == "inline" {
		reaper = worker.NewReaper(st.generation, dispatch, worker.ReaperConfig{
			Spec:         cfg.Worker.ReaperSpec,
			QueuedAfter:  cfg.Worker.QueuedAfter,
			RunTimeout:   engine.Timeout(),
			RunningGrace: cfg.Worker.RunningGrace,
		}, logger)
		if err := reaper.Start(workerCtx); err != nil {
			logger.Fatal("reaper", zap.Error(err))
		}
	}

	var suggester captions.Suggester = captions.NewTemplateSuggester(0)
	if cfg.OpenAI.APIKey != "" {
		suggester = &captions.FallbackSuggester{
			Primary:   captions.NewOpenAISuggester(cfg.OpenAI.APIKey, cfg.OpenAI.Model),
			Secondary: suggester,
			Logger:    logger,
		}
		logger.Info("caption suggestions via OpenAI", zap.String("model", cfg.OpenAI.Model))
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authHandler := auth.NewHandler(st.users, jwtService, logger)
	videoHandler := videos.NewHandler(videos.NewService(st.videos, blobs, dispatch, cfg.Storage.MaxBytes, logger), cfg.Storage.UploadTimeout, logger)
	clipHandler := clips.NewHandler(st.clips, blobs, logger)
	scheduleHandler := schedule.NewHandler(schedule.NewService(st.posts, st.clips, logger), logger)
	analyticsHandler := analytics.NewHandler(analytics.NewService(st.analytics, logger), logger)
	captionHandler := captions.NewHandler(suggester, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	if localRoot != "" {
		router.Static(storage.PublicPrefix, localRoot)
	}

	api := router.Group("/api")

	// Auth (public, rate limited per IP)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", middleware.RateLimit(limiter, "register", cfg.RateLimit.RegisterPerMinute, logger), authHandler.Register)
		authGroup.POST("/login", middleware.RateLimit(limiter, "login", cfg.RateLimit.LoginPerMinute, logger), authHandler.Login)
		authGroup.GET("/me", middleware.JWT(jwtService), authHandler.Me)
	}

	// Protected API (JWT required)
	protected := api.Group("")
	protected.Use(middleware.JWT(jwtService))
	{
		protected.POST("/videos/upload", videoHandler.Upload)
		protected.GET("/videos", videoHandler.List)
		protected.GET("/videos/:id", videoHandler.Get)

		protected.GET("/clips", clipHandler.List)
		protected.GET("/clips/:id", clipHandler.Get)

		protected.POST("/schedule", scheduleHandler.Create)
		protected.GET("/schedule", scheduleHandler.List)
		protected.DELETE("/schedule/:id", scheduleHandler.Cancel)

		protected.GET("/analytics", analyticsHandler.Summary)
		protected.GET("/analytics/platforms", analyticsHandler.Platforms)
		protected.POST("/analytics/records", analyticsHandler.Record)

		protected.POST("/ai/caption", captionHandler.Suggest)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeout) * time.Second,
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
	workerCancel()
	if reaper != nil {
		reaper.Stop()
	}
	<-workerDone
	if inline != nil {
		inline.Wait()
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
