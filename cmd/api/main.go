package main

import (
	"fmt"
	"net/http"
	"os"

	"kopilka/internal/config"
	"kopilka/internal/database"
	"kopilka/internal/handlers"
	"kopilka/internal/logger"
	"kopilka/internal/middleware"
	"kopilka/internal/seed"
	"kopilka/internal/services"
	"kopilka/internal/validator"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(appConfig.DBPath)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	categoryService := services.NewCategoryService(db)
	periodService := services.NewPeriodService(db)
	planService := services.NewPlanService(db, services.DefaultPeriodPolicy{PreferredName: appConfig.DefaultPeriod})
	subcategoryService := services.NewSubcategoryService(db, planService)
	operationService := services.NewOperationService(db)

	// Seed the default catalog and backfill plans
	if appConfig.SeedDefaults {
		if err := seed.Run(db, periodService, planService); err != nil {
			return fmt.Errorf("failed to seed defaults: %w", err)
		}
	}

	// Initialize handlers
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	subcategoryHandler := handlers.NewSubcategoryHandler(subcategoryService, categoryService)
	periodHandler := handlers.NewPeriodHandler(periodService)
	planHandler := handlers.NewPlanHandler(planService)
	operationHandler := handlers.NewOperationHandler(operationService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Category routes
	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.Create)
	categories.GET("", categoryHandler.List)
	categories.GET("/:id", categoryHandler.Get)
	categories.PUT("/:id", categoryHandler.Update)
	categories.DELETE("/:id", categoryHandler.Delete)

	// Subcategory routes
	subcategories := v1.Group("/subcategories")
	subcategories.POST("", subcategoryHandler.Create)
	subcategories.GET("", subcategoryHandler.List)
	subcategories.GET("/:id", subcategoryHandler.Get)
	subcategories.PUT("/:id", subcategoryHandler.Update)
	subcategories.DELETE("/:id", subcategoryHandler.Delete)
	subcategories.GET("/:id/plan", planHandler.GetBySubcategory)

	// Period routes
	periods := v1.Group("/periods")
	periods.POST("", periodHandler.Create)
	periods.GET("", periodHandler.List)
	periods.GET("/:id", periodHandler.Get)

	// Plan routes
	plans := v1.Group("/plans")
	plans.POST("", planHandler.Create)
	plans.GET("", planHandler.List)
	plans.PUT("/:id", planHandler.Update)
	plans.GET("/:id/history", planHandler.History)
	plans.POST("/reconcile", planHandler.Reconcile)

	// Operation routes
	operations := v1.Group("/operations")
	operations.POST("", operationHandler.Create)
	operations.GET("", operationHandler.List)
	operations.GET("/:id", operationHandler.Get)
	operations.PUT("/:id", operationHandler.Update)
	operations.DELETE("/:id", operationHandler.Delete)

	log.Infof("Starting Kopilka server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
