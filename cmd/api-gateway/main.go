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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-beasiswa-api/api/swagger"
	"github.com/noah-isme/sma-beasiswa-api/internal/handler"
	"github.com/noah-isme/sma-beasiswa-api/internal/middleware"
	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	"github.com/noah-isme/sma-beasiswa-api/internal/repository"
	"github.com/noah-isme/sma-beasiswa-api/internal/service"
	"github.com/noah-isme/sma-beasiswa-api/pkg/cache"
	"github.com/noah-isme/sma-beasiswa-api/pkg/config"
	"github.com/noah-isme/sma-beasiswa-api/pkg/database"
	"github.com/noah-isme/sma-beasiswa-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-beasiswa-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-beasiswa-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-beasiswa-api/pkg/storage"
)

// @title SMA Beasiswa API
// @version 1.0.0
// @description Scholarship program management for senior high school students
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	documentStore, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare document storage", "error", err)
	}
	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	exportSigner := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	documentSigner := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	programRepo := repository.NewProgramRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	reportRepo := repository.NewServiceReportRepository(db)
	disbursementRepo := repository.NewDisbursementRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sma-beasiswa-api",
	})
	notificationSvc := service.NewNotificationService(notificationRepo, cfg.Notifications.RetainPerStudent, logr)
	studentSvc := service.NewStudentService(studentRepo, userRepo, nil, logr)
	programSvc := service.NewProgramService(programRepo, nil, logr)
	applicationSvc := service.NewApplicationService(applicationRepo, programRepo, studentRepo, documentRepo, db, notificationSvc, userRepo, cacheRepo, nil, logr)
	documentSvc := service.NewDocumentService(documentRepo, applicationRepo, programRepo, studentRepo, documentStore, documentSigner, db, notificationSvc, userRepo, cacheRepo, service.DocumentPolicy{
		MaxSizeBytes: cfg.Documents.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Documents.AllowedMIMEs,
	}, nil, logr)
	reportSvc := service.NewServiceReportService(reportRepo, applicationRepo, programRepo, studentRepo, db, notificationSvc, userRepo, cacheRepo, nil, logr)
	disbursementSvc := service.NewDisbursementService(disbursementRepo, applicationRepo, studentRepo, db, notificationSvc, userRepo, cacheRepo, nil, logr)
	dashboardSvc := service.NewDashboardService(applicationRepo, documentRepo, reportRepo, disbursementRepo, programRepo, cacheRepo, cfg.Dashboard.CacheTTL, logr)
	exportSvc := service.NewExportService(disbursementRepo, exportStore, exportSigner, service.ExportServiceConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		FileTTL:    cfg.Exports.SignedURLTTL,
	}, logr)

	exportCtx, cancelExports := context.WithCancel(context.Background())
	defer cancelExports()
	if cfg.Exports.Enabled {
		exportSvc.Start(exportCtx)
		defer exportSvc.Stop()
		go func() {
			ticker := time.NewTicker(cfg.Exports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-exportCtx.Done():
					return
				case <-ticker.C:
					exportSvc.CleanupExpired()
				}
			}
		}()
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	programHandler := handler.NewProgramHandler(programSvc)
	applicationHandler := handler.NewApplicationHandler(applicationSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)
	reportHandler := handler.NewServiceReportHandler(reportSvc)
	disbursementHandler := handler.NewDisbursementHandler(disbursementSvc, exportSvc, metricsSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, metricsSvc)
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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	admin := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
	student := middleware.RequireRoles(models.RoleStudent)

	students := api.Group("/students")
	{
		students.POST("/register", studentHandler.Register)
		students.GET("", middleware.JWT(authSvc), admin, studentHandler.List)
		students.GET("/me", middleware.JWT(authSvc), studentHandler.Me)
		students.GET("/:id", middleware.JWT(authSvc), studentHandler.Get)
		students.PUT("/:id", middleware.JWT(authSvc), studentHandler.Update)
	}

	programs := api.Group("/programs")
	{
		programs.GET("", programHandler.List)
		programs.GET("/:id", programHandler.Get)
		programs.POST("", middleware.JWT(authSvc), admin, programHandler.Create)
		programs.PUT("/:id", middleware.JWT(authSvc), admin, programHandler.Update)
		programs.POST("/:id/requirements", middleware.JWT(authSvc), admin, programHandler.AddRequirement)
	}

	applications := api.Group("/applications", middleware.JWT(authSvc))
	{
		applications.POST("", student, applicationHandler.Create)
		applications.GET("", applicationHandler.List)
		applications.GET("/:id", applicationHandler.Get)
		applications.POST("/:id/submit", student, applicationHandler.Submit)
		applications.PATCH("/:id/status", admin, applicationHandler.UpdateStatus)

		applications.POST("/:id/documents", student, documentHandler.Upload)
		applications.GET("/:id/documents", documentHandler.ListByApplication)

		applications.POST("/:id/service-reports", student, reportHandler.Submit)
		applications.GET("/:id/service-progress", reportHandler.Progress)
	}

	documents := api.Group("/documents")
	{
		// Download is authenticated by the signed token itself.
		documents.GET("/download", documentHandler.Download)

		guarded := documents.Group("", middleware.JWT(authSvc))
		guarded.GET("/:id/download-url", documentHandler.DownloadURL)
		guarded.PATCH("/:id/review", admin, documentHandler.Review)
	}

	reports := api.Group("/service-reports", middleware.JWT(authSvc), admin)
	{
		reports.GET("", reportHandler.List)
		reports.PATCH("/:id/review", reportHandler.Review)
		reports.POST("/bulk-review", reportHandler.BulkReview)
	}

	disbursements := api.Group("/disbursements")
	{
		// Download is authenticated by the signed token itself.
		disbursements.GET("/export/download", disbursementHandler.Download)

		guarded := disbursements.Group("", middleware.JWT(authSvc), admin)
		guarded.POST("", disbursementHandler.Create)
		guarded.GET("", disbursementHandler.List)
		guarded.GET("/:id", disbursementHandler.Get)
		guarded.PATCH("/:id/status", disbursementHandler.UpdateStatus)
		if cfg.Exports.Enabled {
			guarded.POST("/export", disbursementHandler.Export)
			guarded.GET("/export/:id", disbursementHandler.ExportStatus)
		}
	}

	notifications := api.Group("/notifications", middleware.JWT(authSvc))
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.PATCH("/:id/read", notificationHandler.MarkRead)
	}

	if cfg.Dashboard.Enabled {
		api.GET("/dashboard/stats", middleware.JWT(authSvc), admin, dashboardHandler.Stats)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
