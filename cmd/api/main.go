package main

import (
	"context"
	"errors"
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
	"go.uber.org/zap"

	_ "github.com/noah-isme/mis-educa-api/api/swagger"
	"github.com/noah-isme/mis-educa-api/internal/handler"
	internalmiddleware "github.com/noah-isme/mis-educa-api/internal/middleware"
	"github.com/noah-isme/mis-educa-api/internal/repository"
	"github.com/noah-isme/mis-educa-api/internal/service"
	"github.com/noah-isme/mis-educa-api/pkg/cache"
	"github.com/noah-isme/mis-educa-api/pkg/config"
	"github.com/noah-isme/mis-educa-api/pkg/database"
	"github.com/noah-isme/mis-educa-api/pkg/docstore"
	"github.com/noah-isme/mis-educa-api/pkg/export"
	"github.com/noah-isme/mis-educa-api/pkg/jobs"
	"github.com/noah-isme/mis-educa-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/mis-educa-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/mis-educa-api/pkg/middleware/requestid"
	"github.com/noah-isme/mis-educa-api/pkg/storage"
)

// @title MIS Educa API
// @version 1.0.0
// @description Attendance, enrollment and lesson plan service for the MIS Educa music school program
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.ActiveDatabase())
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "project", cfg.ActiveProject, "error", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logr.Sugar().Fatalw("database migration failed", "error", err)
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, session cache disabled", "error", err)
	}
	cacheRepo := repository.NewCacheRepository(redisClient, cfg.ActiveProject)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	store := docstore.New(db, docstore.WithObserver(metricsSvc.ObserveDBQuery))
	validate := validator.New()
	if err := service.RegisterAttendanceValidations(validate); err != nil {
		logr.Sugar().Fatalw("validator setup failed", "error", err)
	}
	rules := service.NewAttendanceRules(cfg.Attendance)

	enrollmentRepo := repository.NewEnrollmentRepository(store)
	attendanceRepo := repository.NewAttendanceRepository(store, rules.KeyedActivities(), rules.ListDistricts())
	lessonPlanRepo := repository.NewLessonPlanRepository(store)
	reportRepo := repository.NewReportRepository(store)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.SessionTTL, logr, cfg.Cache.Enabled && cacheRepo.Enabled())
	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	attendanceSvc := service.NewAttendanceService(enrollmentRepo, attendanceRepo, rules, cacheSvc, metricsSvc, validate, logr)
	reportingSvc := service.NewAttendanceReportService(attendanceRepo, enrollmentRepo, lessonPlanRepo, rules, cacheSvc, cfg.Cache.SessionTTL, validate, logr)
	sheetSvc := service.NewSheetService(reportingSvc, enrollmentRepo, cfg.Sheet, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, rules, validate, logr)
	lessonPlanSvc := service.NewLessonPlanService(lessonPlanRepo, rules, validate, logr)

	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(),
		Attendance:  handler.NewAttendanceHandler(attendanceSvc),
		Sessions:    handler.NewSessionHandler(reportingSvc, sheetSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		LessonPlans: handler.NewLessonPlanHandler(lessonPlanSvc),
		Metrics:     handler.NewMetricsHandler(metricsSvc),
		AuditLog:    logr.Named("audit"),
	}

	var queue *jobs.Queue
	if cfg.Exports.Enabled {
		queue, handlers.Reports, err = startExports(ctx, cfg, logr, reportingSvc, reportRepo, rules, validate, metricsSvc)
		if err != nil {
			logr.Sugar().Fatalw("export pipeline failed to start", "error", err)
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, cfg.APIPrefix))

	r.GET("/health", handlers.Metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", handlers.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handlers, authSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logr.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logr.Sugar().Warnw("graceful shutdown failed", "error", err)
		}
	}()

	logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "project", cfg.ActiveProject)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
	if queue != nil {
		queue.Stop()
	}
}

// startExports boots the export worker queue and returns the handler serving it.
func startExports(
	ctx context.Context,
	cfg *config.Config,
	logr *zap.Logger,
	reports *service.AttendanceReportService,
	reportRepo *repository.ReportRepository,
	rules service.AttendanceRules,
	validate *validator.Validate,
	metricsSvc *service.MetricsService,
) (*jobs.Queue, *handler.ReportHandler, error) {
	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, fmt.Errorf("prepare export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exporter := service.NewExportService(reports, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter())

	worker := service.NewReportWorker(reportRepo, exporter, metricsSvc, logr)
	queue := jobs.NewQueue("exports", func(jobCtx context.Context, job jobs.Job) error {
		if job.Type != service.ExportJobType {
			return fmt.Errorf("unknown job type %q", job.Type)
		}
		return worker.Handle(jobCtx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		OnGiveUp:   worker.GiveUp,
		Logger:     logr,
	})
	queue.Start(ctx)

	reportSvc := service.NewReportService(reportRepo, queue, exporter, rules, validate, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	reportSvc.RecoverPendingJobs(ctx)
	reportSvc.StartCleanup(ctx)

	return queue, handler.NewReportHandler(reportSvc), nil
}
