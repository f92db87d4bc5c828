package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/uniportal/registrar-api/api/swagger"
	"github.com/uniportal/registrar-api/internal/handler"
	"github.com/uniportal/registrar-api/internal/middleware"
	"github.com/uniportal/registrar-api/internal/repository"
	"github.com/uniportal/registrar-api/internal/router"
	"github.com/uniportal/registrar-api/internal/service"
	"github.com/uniportal/registrar-api/pkg/cache"
	"github.com/uniportal/registrar-api/pkg/config"
	"github.com/uniportal/registrar-api/pkg/database"
	"github.com/uniportal/registrar-api/pkg/export"
	"github.com/uniportal/registrar-api/pkg/logger"
	corsmiddleware "github.com/uniportal/registrar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/uniportal/registrar-api/pkg/middleware/requestid"
)

// @title Registrar API
// @version 1.0.0
// @description Course catalog, scheduling, enrollment and grading backend
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close()
		}
	}

	metricsSvc := service.NewMetricsService()
	metricsSvc.RegisterDB(db, cfg.Database.Name)

	catalogRepo := repository.NewCatalogRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	userRepo := repository.NewUserRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)

	catalogSvc := service.NewCatalogService(catalogRepo, cacheRepo, cfg.Catalog.CacheTTL, nil, logr)
	sectionSvc := service.NewSectionService(sectionRepo, catalogRepo, enrollmentRepo, cfg.Sections, nil, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, directoryRepo, nil, logr)
	gradeSvc := service.NewGradeService(gradeRepo, enrollmentRepo, directoryRepo, export.NewCSVExporter(), export.NewPDFExporter(), nil, logr)
	directorySvc := service.NewDirectoryService(directoryRepo, userRepo, catalogRepo, cfg.Directory, nil, logr)
	authSvc := service.NewAuthService(userRepo, directoryRepo, cfg.JWT, nil, logr)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.Register(r, cfg.APIPrefix, authSvc, router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Catalog:    handler.NewCatalogHandler(catalogSvc),
		Sections:   handler.NewSectionHandler(sectionSvc),
		Enrollment: handler.NewEnrollmentHandler(enrollmentSvc, metricsSvc),
		Grades:     handler.NewGradeHandler(gradeSvc, metricsSvc),
		Directory:  handler.NewDirectoryHandler(directorySvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
