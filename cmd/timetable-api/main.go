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

	"github.com/noah-isme/timetable-api/internal/handler"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/timetable-api/pkg/storage"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	institutionRepo := repository.NewInstitutionRepository(db)
	timeSlotRepo := repository.NewTimeSlotRepository(db)
	teachingRepo := repository.NewTeachingAssignmentRepository(db)
	lessonRepo := repository.NewLessonAssignmentRepository(db)

	var reportRepo *repository.ReportCacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
	} else {
		defer redisClient.Close() //nolint:errcheck
		reportRepo = repository.NewReportCacheRepository(redisClient, cfg.Generator.ReportTTL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportSvc *service.TimetableExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		exportSvc = service.NewTimetableExportService(lessonRepo, store, cfg.Exports.Workers, logr)
		exportSvc.Start(ctx)
		defer exportSvc.Stop()
	}

	generationSvc := service.NewGenerationService(
		institutionRepo,
		timeSlotRepo,
		teachingRepo,
		lessonRepo,
		reportCacheOrNil(reportRepo),
		exporterOrNil(exportSvc),
		metricsSvc,
		validate,
		logr,
		service.GenerationConfig{
			BacktrackBudget:  cfg.Generator.BacktrackBudget,
			MaxAttempts:      cfg.Generator.MaxAttempts,
			TeacherWeeklyCap: cfg.Generator.TeacherWeeklyCap,
			Seed:             cfg.Generator.Seed,
		},
	)

	timetableHandler := handler.NewTimetableHandler(generationSvc, exportRendererOrNil(exportSvc))
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	if cfg.Generator.Enabled {
		institutions := api.Group("/institutions/:id")
		institutions.POST("/timetable/generate", timetableHandler.Generate)
		institutions.GET("/timetable/report", timetableHandler.Report)
		institutions.GET("/timetable/assignments", timetableHandler.Assignments)
		institutions.GET("/timetable/classes/:classId/export.csv", timetableHandler.ExportClassCSV)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
		_ = srv.Close()
	}
}

// Typed nils must not leak into the service's interface fields, so wrap the
// optional collaborators explicitly.

func reportCacheOrNil(repo *repository.ReportCacheRepository) service.ReportCache {
	if repo == nil {
		return nil
	}
	return repo
}

func exporterOrNil(svc *service.TimetableExportService) service.TimetableExporter {
	if svc == nil {
		return nil
	}
	return svc
}

func exportRendererOrNil(svc *service.TimetableExportService) handler.ClassExportRenderer {
	if svc == nil {
		return nil
	}
	return svc
}
