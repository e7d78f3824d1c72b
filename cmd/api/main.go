package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/scholarship-intake-api/api/swagger"
	"github.com/noah-isme/scholarship-intake-api/internal/handler"
	"github.com/noah-isme/scholarship-intake-api/internal/middleware"
	"github.com/noah-isme/scholarship-intake-api/internal/repository"
	"github.com/noah-isme/scholarship-intake-api/internal/service"
	"github.com/noah-isme/scholarship-intake-api/pkg/cache"
	"github.com/noah-isme/scholarship-intake-api/pkg/config"
	"github.com/noah-isme/scholarship-intake-api/pkg/database"
	"github.com/noah-isme/scholarship-intake-api/pkg/logger"
	"github.com/noah-isme/scholarship-intake-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/scholarship-intake-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/scholarship-intake-api/pkg/middleware/requestid"
)

// @title Scholarship Intake API
// @version 1.0.0
// @description Bulk and interactive scholarship application ingestion
// @BasePath /
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The rule cache is an optimisation; run without it.
		logr.Sugar().Warnw("redis unavailable, rule cache disabled", "error", err)
		redisClient = nil
	}

	scholarshipRepo := repository.NewScholarshipRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	var mail mailer.Mailer = mailer.Noop{}
	if cfg.Notifications.Enabled {
		mail = mailer.NewSMTP(cfg.Notifications.SMTPHost, cfg.Notifications.SMTPPort, cfg.Notifications.FromAddress)
	}
	notifier := service.NewNotificationService(mail, cfg.Notifications.WorkerConcurrency, cfg.Notifications.WorkerRetries, logr)
	notifier.Start(context.Background())
	defer notifier.Stop()

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(cfg.JWT)
	intakeSvc := service.NewIntakeService(scholarshipRepo, applicationRepo, cacheRepo, notifier, metricsSvc, cfg.Intake, logr)
	applications := handler.NewApplicationHandler(intakeSvc, cfg.Intake.MaxUploadBytes)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/applications", applications.Submit)
		admin := api.Group("/applications/bulk", middleware.JWT(authSvc), middleware.RequireAdmin())
		{
			admin.POST("", applications.BulkUpload)
			admin.GET("/template", applications.Template)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
