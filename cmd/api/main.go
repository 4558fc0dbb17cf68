package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"shoply/internal/config"
	"shoply/internal/database"
	"shoply/internal/handlers"
	"shoply/internal/logger"
	"shoply/internal/middleware"
	"shoply/internal/scheduler"
	"shoply/internal/services"
	"shoply/internal/validator"

	_ "shoply/internal/docs" // Import swagger docs
)

// @title           Shoply API
// @version         1.0
// @description     Shoply is a shopping list and budget application that lets users organize items into category trees, track purchases, and reconcile spending against budgets.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

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

	// Register custom request validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	listService := services.NewListService(db)
	itemService := services.NewItemService(db)
	budgetService := services.NewBudgetService(db)
	planningService := services.NewPlanningService(db)
	bulkService := services.NewBulkService(db)
	importExportService := services.NewImportExportService(db)
	analyticsService := services.NewAnalyticsService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	listHandler := handlers.NewListHandler(listService)
	itemHandler := handlers.NewItemHandler(itemService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	planningHandler := handlers.NewPlanningHandler(planningService)
	bulkHandler := handlers.NewBulkHandler(bulkService)
	importExportHandler := handlers.NewImportExportHandler(importExportService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	// Start the monthly budget generation job
	jobs := scheduler.New(db, budgetService)
	if _, err := jobs.ScheduleBudgetGeneration(appConfig.BudgetCronSpec); err != nil {
		return fmt.Errorf("failed to schedule budget generation: %w", err)
	}
	jobs.Start()
	defer jobs.Stop()

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

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)
	protected.POST("/auth/logout", authHandler.Logout)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.POST("/:id/move", categoryHandler.ReparentCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Shopping list routes
	lists := protected.Group("/lists")
	lists.POST("", listHandler.CreateList)
	lists.GET("", listHandler.GetLists)
	lists.GET("/:id", listHandler.GetList)
	lists.GET("/:id/summary", listHandler.GetListSummary)
	lists.PUT("/:id", listHandler.UpdateList)
	lists.POST("/:id/duplicate", listHandler.DuplicateList)
	lists.DELETE("/:id", listHandler.DeleteList)
	lists.POST("/:id/items", itemHandler.CreateItem)
	lists.POST("/:id/items/batch", itemHandler.BatchCreateItems)
	lists.GET("/:id/items", itemHandler.GetListItems)
	lists.POST("/:id/import", importExportHandler.ImportItems)

	// Item routes
	items := protected.Group("/items")
	items.GET("/export", importExportHandler.ExportItems)
	items.POST("/bulk", bulkHandler.Execute)
	items.POST("/adjust-prices", bulkHandler.AdjustPrices)
	items.GET("/:id", itemHandler.GetItem)
	items.PUT("/:id", itemHandler.UpdateItem)
	items.POST("/:id/bought", itemHandler.SetBought)
	items.DELETE("/:id", itemHandler.DeleteItem)

	// Budget routes
	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.POST("/generate", budgetHandler.GenerateMonthlyBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	// Planning routes
	planning := protected.Group("/planning")
	planning.GET("/spend", planningHandler.GetTrailingSpend)
	planning.GET("/suggest", planningHandler.SuggestBudget)
	planning.GET("/lines", planningHandler.GetPlanLines)
	planning.POST("/plans", planningHandler.CreatePlan)
	planning.POST("/budgets", planningHandler.CreatePeriodBudget)

	// Analytics routes
	analytics := protected.Group("/analytics")
	analytics.GET("/report", analyticsHandler.GetSpendReport)
	analytics.GET("/dashboard", analyticsHandler.GetDashboard)

	log.Infof("Starting Shoply backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
