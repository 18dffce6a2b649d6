package main

import (
	_ "backend/api/swagger" // swagger docs
	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/storage"
	"backend/internal/websocket"
	"backend/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           CBS/IBS Tax Engine API
// @version         1.0
// @description     Consumption-tax computation, validation, reconciliation and simulation engine with a tamper-evident audit trail.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	log := logger.New("api")

	db, err := database.NewConnection(cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Msg("connected to PostgreSQL")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	store, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatal().Err(err).Msg("object store initialization failed")
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	tenantRepo := repository.NewTenantRepository(db)
	userRepo := repository.NewUserRepository(db)
	taxRuleRepo := repository.NewTaxRuleRepository(db)
	jobRepo := repository.NewJobRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	simulationRepo := repository.NewSimulationRepository(db)
	reconciliationRepo := repository.NewReconciliationRepository(db)

	auditService := service.NewAuditService(auditRepo)
	tenantService := service.NewTenantService(tenantRepo)
	userService := service.NewUserService(userRepo, tenantRepo, middleware.GetJWTSecret())
	taxRuleService := service.NewTaxRuleService(taxRuleRepo, auditService, txManager)
	jobService := service.NewJobService(jobRepo, wsHub)
	validationService := service.NewValidationService(taxRuleRepo, tenantRepo, store, auditService)
	simulationService := service.NewSimulationService(taxRuleRepo, simulationRepo, auditService)
	reconciliationService := service.NewReconciliationService(reconciliationRepo, store, auditService)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	tenantHandler := handler.NewTenantHandler(tenantService)
	taxHandler := handler.NewTaxHandler(taxRuleService)
	jobHandler := handler.NewJobHandler(jobService)
	auditHandler := handler.NewAuditHandler(auditService)
	validationHandler := handler.NewValidationHandler(validationService)
	simulationHandler := handler.NewSimulationHandler(simulationService)
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationService)
	artifactHandler := handler.NewArtifactHandler(store)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.RateLimit(rdb))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint for job status updates
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	tenantHandler.RegisterRoutes(router.Group(""))
	taxHandler.RegisterRoutes(router.Group(""))
	jobHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	validationHandler.RegisterRoutes(router.Group(""))
	simulationHandler.RegisterRoutes(router.Group(""))
	reconciliationHandler.RegisterRoutes(router.Group(""))
	artifactHandler.RegisterRoutes(router.Group(""))

	log.Info().Str("port", cfg.Port).Msg("server listening")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
