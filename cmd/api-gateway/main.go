package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/traincore/tnms-api/api/swagger"
	"github.com/traincore/tnms-api/internal/handler"
	"github.com/traincore/tnms-api/internal/middleware"
	"github.com/traincore/tnms-api/internal/models"
	"github.com/traincore/tnms-api/internal/repository"
	"github.com/traincore/tnms-api/internal/service"
	"github.com/traincore/tnms-api/pkg/cache"
	"github.com/traincore/tnms-api/pkg/config"
	"github.com/traincore/tnms-api/pkg/database"
	"github.com/traincore/tnms-api/pkg/logger"
	"github.com/traincore/tnms-api/pkg/mailer"
	corsmiddleware "github.com/traincore/tnms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/traincore/tnms-api/pkg/middleware/requestid"
)

// @title TNMS API
// @version 1.0.0
// @description Training nomination management service
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.SessionTTL, logr, cfg.Cache.Enabled)

	var mail mailer.Mailer = mailer.NopMailer{}
	if cfg.Mail.Enabled {
		mail = mailer.NewSMTP(cfg.Mail)
	}
	notifySvc := service.NewNotificationService(mail, metricsSvc, cfg.Notifications, logr)

	rootCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	notifySvc.Start(rootCtx)
	defer notifySvc.Stop()

	userRepo := repository.NewUserRepository(db)
	programRepo := repository.NewProgramRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	nominationRepo := repository.NewNominationRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "tnms-api",
	})
	sessionSvc := service.NewSessionService(sessionRepo, batchRepo, programRepo, nominationRepo, cacheSvc, cfg.Cache.SessionTTL, validate, logr)
	nominationSvc := service.NewNominationService(nominationRepo, batchRepo, sessionRepo, notifySvc, cacheSvc, logr)
	joinSvc := service.NewJoinService(employeeRepo, nominationRepo, batchRepo, programRepo, sessionRepo, notifySvc, cacheSvc, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	nominationHandler := handler.NewNominationHandler(nominationSvc)
	joinHandler := handler.NewJoinHandler(joinSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

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

		// QR self-enrollment is unauthenticated: the batch id inside the
		// poster's QR code is the only credential walk-ins have.
		join := api.Group("/join", middleware.OptionalJWT(authSvc))
		{
			join.POST("/:batchId", joinHandler.Join)
			join.POST("/:batchId/register", joinHandler.Register)
		}

		sessions := api.Group("/sessions", middleware.JWT(authSvc))
		{
			sessions.GET("", sessionHandler.List)
			sessions.GET("/:id", sessionHandler.Get)
			sessions.GET("/:id/roster", sessionHandler.Roster)
			sessions.POST("", middleware.RequireRoles(models.RoleAdmin), sessionHandler.Create)
			sessions.POST("/:id/lock", middleware.RequireRoles(models.RoleAdmin), sessionHandler.Lock)
			if cfg.Exports.Enabled {
				sessions.GET("/:id/roster/export", middleware.RequireRoles(models.RoleAdmin, models.RoleTrainer), sessionHandler.ExportRoster)
			}
		}

		nominations := api.Group("/nominations", middleware.JWT(authSvc))
		{
			nominations.GET("", nominationHandler.List)
			nominations.GET("/pending", nominationHandler.Pending)
			nominations.GET("/:id", nominationHandler.Get)
			nominations.DELETE("/:id/batch", middleware.RequireRoles(models.RoleAdmin), nominationHandler.RemoveFromBatch)
		}

		batches := api.Group("/batches", middleware.JWT(authSvc))
		{
			batches.POST("/:id/nominations", middleware.RequireRoles(models.RoleAdmin), nominationHandler.AddToBatch)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
