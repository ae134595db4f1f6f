package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/campusgrid/timetable-api/api/swagger"
	"github.com/campusgrid/timetable-api/internal/advisor"
	"github.com/campusgrid/timetable-api/internal/handler"
	"github.com/campusgrid/timetable-api/internal/middleware"
	"github.com/campusgrid/timetable-api/internal/repository"
	"github.com/campusgrid/timetable-api/internal/service"
	"github.com/campusgrid/timetable-api/internal/timetable"
	"github.com/campusgrid/timetable-api/pkg/cache"
	"github.com/campusgrid/timetable-api/pkg/config"
	"github.com/campusgrid/timetable-api/pkg/database"
	"github.com/campusgrid/timetable-api/pkg/logger"
	corsmiddleware "github.com/campusgrid/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusgrid/timetable-api/pkg/middleware/requestid"
	"github.com/campusgrid/timetable-api/pkg/storage"
)

// @title Timetable API
// @version 0.1.0
// @description Weekly timetable construction service for university departments
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Warn("redis unavailable, timetable caching disabled", zap.Error(err))
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	subjectRepo := repository.NewSubjectRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	var scheduleAdvisor timetable.Advisor
	if cfg.Advisor.Enabled {
		scheduleAdvisor = advisor.NewClient(advisor.Config{
			BaseURL:       cfg.Advisor.BaseURL,
			Timeout:       cfg.Advisor.Timeout,
			CacheTTL:      cfg.Advisor.CacheTTL,
			CacheCapacity: cfg.Advisor.CacheCapacity,
		}, logr)
	}

	exportStore, err := storage.NewLocalStorage(cfg.Exports.Dir)
	if err != nil {
		logr.Fatal("failed to prepare exports directory", zap.Error(err))
	}
	archiver := service.NewExportArchiver(exportStore, logr)
	archiver.Start(context.Background())
	defer archiver.Stop()

	metricsSvc := service.NewMetricsService()
	timetableSvc := service.NewTimetableService(
		subjectRepo, facultyRepo, roomRepo, slotRepo,
		cacheRepo, archiver, scheduleAdvisor, metricsSvc, nil, logr,
		service.TimetableConfig{
			ProposalTTL:         cfg.Scheduler.ProposalTTL,
			OptimizerIterations: cfg.Scheduler.OptimizerIterations,
			MinConfidence:       cfg.Scheduler.MinConfidence,
		},
	)
	catalogSvc := service.NewCatalogService(subjectRepo, facultyRepo, roomRepo, nil, logr)

	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
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
		api.POST("/timetable/generate", timetableHandler.Generate)
		api.POST("/timetable/save", timetableHandler.Save)
		api.GET("/timetable", timetableHandler.Get)
		api.GET("/timetable/export", timetableHandler.Export)
		api.DELETE("/timetable", timetableHandler.Delete)

		api.GET("/subjects", catalogHandler.ListSubjects)
		api.POST("/subjects", catalogHandler.CreateSubject)
		api.POST("/subjects/import", catalogHandler.ImportSubjects)
		api.GET("/subjects/:id", catalogHandler.GetSubject)
		api.PUT("/subjects/:id", catalogHandler.UpdateSubject)
		api.DELETE("/subjects/:id", catalogHandler.DeleteSubject)

		api.GET("/faculty", catalogHandler.ListFaculty)
		api.POST("/faculty", catalogHandler.CreateFaculty)
		api.POST("/faculty/import", catalogHandler.ImportFaculty)
		api.DELETE("/faculty/:id", catalogHandler.DeleteFaculty)

		api.GET("/classrooms", catalogHandler.ListClassrooms)
		api.POST("/classrooms", catalogHandler.CreateClassroom)
		api.DELETE("/classrooms/:id", catalogHandler.DeleteClassroom)

		api.GET("/labs", catalogHandler.ListLabs)
		api.POST("/labs", catalogHandler.CreateLab)
		api.DELETE("/labs/:id", catalogHandler.DeleteLab)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "advisor", cfg.Advisor.Enabled)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
