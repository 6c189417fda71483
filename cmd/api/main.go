package main

import (
	_ "catalog/api/swagger" // swagger docs
	"catalog/internal/cache"
	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/handler"
	"catalog/internal/logger"
	"catalog/internal/middleware"
	"catalog/internal/repository"
	"catalog/internal/service"
	"catalog/internal/upstream"
	"catalog/internal/websocket"
	"fmt"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Catalog Admin API
// @version         1.0
// @description     Menu and feature hierarchy mirror plus the package authorization matrix.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.GinMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if !cfg.EnvFile {
		log.Info("No configs/.env file found, using process environment only")
	}
	if cfg.Upstream.BaseURL == "" {
		log.Warn("UPSTREAM_BASE_URL is empty, hierarchy syncs will fail")
	}

	db, err := database.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	log.Info("Connected to database", zap.String("driver", cfg.DB.Driver))

	// Optional read-model cache
	var matrixCache service.Cache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Warn("Redis unavailable, matrix cache disabled", zap.Error(err))
		} else {
			defer redisCache.Close()
			matrixCache = redisCache
		}
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log)
	go wsHub.Run()
	defer wsHub.Stop()

	// Set up dependencies (Repository -> Service -> Handler)
	productRepo := repository.NewProductRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	nodeRepo := repository.NewNodeRepository(db)
	txManager := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)

	hierarchyService := service.NewHierarchyService(service.HierarchyDeps{
		Products:  productRepo,
		Nodes:     nodeRepo,
		SyncRuns:  repository.NewSyncRunRepository(db),
		TxManager: txManager,
		Source:    upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.APIKey, cfg.Upstream.Timeout, log),
		Cache:     matrixCache,
		Events:    wsHub,
		MaxDepth:  cfg.MaxDepth,
		Logger:    log,
	})
	matrixService := service.NewMatrixService(service.MatrixDeps{
		Products:  productRepo,
		Packages:  packageRepo,
		Nodes:     nodeRepo,
		Matrix:    repository.NewMatrixRepository(db),
		Audit:     auditRepo,
		TxManager: txManager,
		Cache:     matrixCache,
		Events:    wsHub,
		Logger:    log,
	})
	auditService := service.NewAuditService(productRepo, auditRepo)

	// Initialize Handlers
	auth := middleware.NewAuthenticator(cfg.JWTSecret, cfg.SyncToken)
	requireAdmin := auth.RequireRole(cfg.JWTRoles...)
	matrixHandler := handler.NewMatrixHandler(matrixService, requireAdmin)
	auditHandler := handler.NewAuditHandler(auditService, requireAdmin)
	hierarchyHandler := handler.NewHierarchyHandler(hierarchyService, requireAdmin, auth.RequireRoleOrServiceToken(cfg.JWTRoles...))

	// Set up Gin Router
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", middleware.ServiceTokenHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, []byte(cfg.JWTSecret), cfg.JWTRoles)
	})

	// API Routing
	matrixHandler.RegisterRoutes(router.Group(""))
	hierarchyHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	log.Info("Server listening", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server failed", zap.Error(err))
	}
}
