package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/section-scheduler/api/swagger"
	"github.com/noah-isme/section-scheduler/internal/events"
	"github.com/noah-isme/section-scheduler/internal/handler"
	internalmiddleware "github.com/noah-isme/section-scheduler/internal/middleware"
	"github.com/noah-isme/section-scheduler/internal/models"
	"github.com/noah-isme/section-scheduler/internal/repository"
	"github.com/noah-isme/section-scheduler/internal/scheduler"
	"github.com/noah-isme/section-scheduler/internal/service"
	"github.com/noah-isme/section-scheduler/pkg/cache"
	"github.com/noah-isme/section-scheduler/pkg/config"
	"github.com/noah-isme/section-scheduler/pkg/database"
	"github.com/noah-isme/section-scheduler/pkg/jobs"
	"github.com/noah-isme/section-scheduler/pkg/logger"
	corsmiddleware "github.com/noah-isme/section-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/section-scheduler/pkg/middleware/requestid"
)

// @title Section Scheduler API
// @version 1.0.0
// @description Weekly classroom scheduling for course sections
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	policy, err := scheduler.ParsePolicy(cfg.Scheduler.Policy)
	if err != nil {
		logr.Fatal("invalid scheduler policy", zap.Error(err))
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("report cache unavailable, continuing without it", zap.Error(err))
	}
	cacheRepo := repository.NewCacheRepository(redisClient, "scheduler:")
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Redis.TTL, logr, redisClient != nil)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		amqpPublisher := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Queue, logr)
		logr.Info("schedule events enabled", zap.String("queue", amqpPublisher.Queue()))
		publisher = amqpPublisher
	}

	store := repository.NewSQLStore(db)
	runner := scheduler.NewRunner(store,
		scheduler.WithLogger(logr),
		scheduler.WithValidator(validate),
		scheduler.WithPolicy(policy),
	)

	schedulerSvc := service.NewSchedulerService(runner, store, cacheSvc, publisher, metrics, validate, logr, service.SchedulerServiceConfig{
		DefaultPolicy: policy,
		ReportTTL:     cfg.Redis.TTL,
	})
	runQueue := jobs.NewQueue("schedule-runs", schedulerSvc.HandleJob, jobs.QueueConfig{
		Workers:    1,
		BufferSize: cfg.Scheduler.QueueBuffer,
		MaxRetries: cfg.Scheduler.JobRetries,
		RetryDelay: cfg.Scheduler.RetryDelay,
		Logger:     logr,
	})
	schedulerSvc.AttachQueue(runQueue)

	exportSvc := service.NewExportService(store, nil, nil, validate, cfg.Export.Title)
	authSvc := service.NewAuthService(cfg.JWT.Secret)

	scheduleHandler := handler.NewScheduleHandler(schedulerSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	admin := api.Group("/schedule")
	admin.Use(
		internalmiddleware.ResponseMeta(),
		internalmiddleware.JWT(authSvc),
		internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin),
	)
	admin.GET("", scheduleHandler.List)
	admin.GET("/status", scheduleHandler.Status)
	admin.GET("/export", scheduleHandler.Export)
	admin.POST("/run", scheduleHandler.Run)
	admin.POST("/runs", scheduleHandler.Enqueue)
	admin.GET("/runs/latest", scheduleHandler.Latest)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runQueue.Start(ctx)
	defer runQueue.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "driver", cfg.Database.Driver, "policy", policy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
