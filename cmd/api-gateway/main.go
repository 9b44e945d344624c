package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/cedbrasilia/enroll-api/api/swagger"
	"github.com/cedbrasilia/enroll-api/internal/allocator"
	"github.com/cedbrasilia/enroll-api/internal/catalog"
	"github.com/cedbrasilia/enroll-api/internal/directory"
	"github.com/cedbrasilia/enroll-api/internal/handler"
	"github.com/cedbrasilia/enroll-api/internal/ledger"
	appmiddleware "github.com/cedbrasilia/enroll-api/internal/middleware"
	"github.com/cedbrasilia/enroll-api/internal/notify"
	"github.com/cedbrasilia/enroll-api/internal/payments"
	"github.com/cedbrasilia/enroll-api/internal/service"
	"github.com/cedbrasilia/enroll-api/pkg/cache"
	"github.com/cedbrasilia/enroll-api/pkg/config"
	"github.com/cedbrasilia/enroll-api/pkg/logger"
	corsmiddleware "github.com/cedbrasilia/enroll-api/pkg/middleware/cors"
	reqidmiddleware "github.com/cedbrasilia/enroll-api/pkg/middleware/requestid"
)

// @title CED Enrollment API
// @version 1.0.0
// @description Payment-to-enrollment bridge: checkout links, payment webhooks and LMS enrollment
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

	cat := catalog.Default()
	if cfg.Catalog.File != "" {
		cat, err = catalog.LoadFile(cfg.Catalog.File)
		if err != nil {
			logr.Sugar().Fatalw("failed to load course catalog", "file", cfg.Catalog.File, "error", err)
		}
	}

	var eventLedger ledger.Ledger = ledger.NewMemory()
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
		eventLedger = ledger.NewRedis(redisClient, cfg.Redis.ReserveTTL)
	} else {
		logr.Warn("redis disabled, processed-event ledger is process-local")
	}

	directoryClient := directory.NewClient(cfg.Directory, logr)
	providerClient := payments.NewClient(cfg.Provider, logr)
	allocatorSvc := allocator.NewService(directoryClient, cfg.Directory.CodePrefix, logr)

	whatsapp := notify.NewWhatsAppClient(cfg.Messaging, logr)
	dispatcher := notify.NewDispatcher(whatsapp, logr)
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	observer := notify.NewChatObserver(cfg.Observer, logr)

	metricsSvc := service.NewMetricsService()
	enrollmentSvc := service.NewEnrollmentService(directoryClient, allocatorSvc, cat, dispatcher, observer,
		cfg.Enrollment.MaxRegistrationAttempts, nil, logr)
	webhookSvc := service.NewWebhookService(providerClient, enrollmentSvc, eventLedger, logr)
	checkoutSvc := service.NewCheckoutService(providerClient, cat, nil, logr)

	webhookHandler := handler.NewWebhookHandler(webhookSvc, metricsSvc)
	checkoutHandler := handler.NewCheckoutHandler(checkoutSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, metricsSvc)
	courseHandler := handler.NewCourseHandler(cat)
	directoryHandler := handler.NewDirectoryHandler(directoryClient)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(appmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.POST("/webhooks/payments", webhookHandler.Receive)
	r.POST("/checkout", checkoutHandler.Create)
	r.POST("/checkout/subscription", checkoutHandler.CreateSubscription)
	r.POST("/enrollments", enrollmentHandler.Create)
	r.GET("/courses", courseHandler.List)
	r.GET("/courses/:name", courseHandler.Get)
	r.GET("/directory/token", directoryHandler.RefreshToken)
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
