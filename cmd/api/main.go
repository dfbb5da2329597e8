package main

import (
	"context"
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

	_ "github.com/classweek/classweek-api/api/swagger"
	"github.com/classweek/classweek-api/internal/handler"
	"github.com/classweek/classweek-api/internal/middleware"
	"github.com/classweek/classweek-api/internal/repository"
	"github.com/classweek/classweek-api/internal/service"
	"github.com/classweek/classweek-api/pkg/cache"
	"github.com/classweek/classweek-api/pkg/config"
	"github.com/classweek/classweek-api/pkg/database"
	"github.com/classweek/classweek-api/pkg/export"
	"github.com/classweek/classweek-api/pkg/logger"
	corsmiddleware "github.com/classweek/classweek-api/pkg/middleware/cors"
	reqidmiddleware "github.com/classweek/classweek-api/pkg/middleware/requestid"
)

// @title Classweek API
// @version 1.0.0
// @description Weekly class schedule dashboard backend
// @BasePath /api/v1
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

	location, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		logr.Sugar().Fatalw("invalid schedule timezone", "timezone", cfg.Schedule.Timezone, "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	eventRepo := repository.NewEventRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	adminSvc := service.NewAdminService(adminRepo, logr)
	authSvc := service.NewAuthService(userRepo, adminSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "classweek-api",
	})
	eventSvc := service.NewEventService(eventRepo, cacheRepo, validate, logr, location, cfg.Schedule.ChangeChannel)
	scheduleSvc := service.NewScheduleService(eventRepo, cacheRepo, metricsSvc, logr, location, cfg.Schedule.CacheTTL, cfg.Schedule.ChangeChannel)
	exportSvc := service.NewExportService(scheduleSvc, export.NewCSVExporter(), export.NewPDFExporter())

	authHandler := handler.NewAuthHandler(authSvc)
	eventHandler := handler.NewEventHandler(eventSvc, nil)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, nil)
	adminHandler := handler.NewAdminHandler(adminSvc)
	exportHandler := handler.NewExportHandler(exportSvc, nil)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
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
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
			auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		}

		api.GET("/schedule/week", scheduleHandler.Week)
		api.GET("/schedule/week/stream", scheduleHandler.Stream)
		api.GET("/schedule/upcoming-ct", scheduleHandler.UpcomingCT)
		if cfg.Exports.Enabled {
			api.GET("/schedule/export", exportHandler.Week)
		}

		api.GET("/events", eventHandler.List)
		api.GET("/notes", eventHandler.ListNotes)

		protected := api.Group("", middleware.JWT(authSvc), middleware.AdminOnly(adminSvc))
		{
			protected.POST("/events", eventHandler.Create)
			protected.DELETE("/events/:id", eventHandler.Delete)
			protected.PUT("/notes", eventHandler.UpsertNote)

			protected.GET("/admins", adminHandler.List)
			protected.POST("/admins", adminHandler.Grant)
			protected.DELETE("/admins/:id", adminHandler.Revoke)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", cfg.Schedule.Timezone)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
