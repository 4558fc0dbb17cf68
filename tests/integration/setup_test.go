package integration

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shoply/internal/handlers"
	"shoply/internal/logger"
	"shoply/internal/middleware"
	"shoply/internal/models"
	"shoply/internal/services"
	"shoply/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Category{},
		&models.ShoppingList{},
		&models.Item{},
		&models.Budget{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	listService := services.NewListService(db)
	itemService := services.NewItemService(db)
	budgetService := services.NewBudgetService(db)
	planningService := services.NewPlanningService(db)
	bulkService := services.NewBulkService(db)
	importExportService := services.NewImportExportService(db)
	analyticsService := services.NewAnalyticsService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	listHandler := handlers.NewListHandler(listService)
	itemHandler := handlers.NewItemHandler(itemService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	planningHandler := handlers.NewPlanningHandler(planningService)
	bulkHandler := handlers.NewBulkHandler(bulkService)
	importExportHandler := handlers.NewImportExportHandler(importExportService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.POST("/auth/logout", authHandler.Logout)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.POST("/:id/move", categoryHandler.ReparentCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

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

	items := protected.Group("/items")
	items.GET("/export", importExportHandler.ExportItems)
	items.POST("/bulk", bulkHandler.Execute)
	items.POST("/adjust-prices", bulkHandler.AdjustPrices)
	items.GET("/:id", itemHandler.GetItem)
	items.PUT("/:id", itemHandler.UpdateItem)
	items.POST("/:id/bought", itemHandler.SetBought)
	items.DELETE("/:id", itemHandler.DeleteItem)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.POST("/generate", budgetHandler.GenerateMonthlyBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.GET("/:id/progress", budgetHandler.GetBudgetProgress)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	planning := protected.Group("/planning")
	planning.GET("/spend", planningHandler.GetTrailingSpend)
	planning.GET("/suggest", planningHandler.SuggestBudget)
	planning.GET("/lines", planningHandler.GetPlanLines)
	planning.POST("/plans", planningHandler.CreatePlan)
	planning.POST("/budgets", planningHandler.CreatePeriodBudget)

	analytics := protected.Group("/analytics")
	analytics.GET("/report", analyticsHandler.GetSpendReport)
	analytics.GET("/dashboard", analyticsHandler.GetDashboard)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != 201 {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != 200 {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createList creates a list and returns its ID.
func (app *testApp) createList(t *testing.T, token, name string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/lists", fmt.Sprintf(`{"name":%q}`, name), token)
	if rec.Code != 201 {
		t.Fatalf("create list failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	list := result["list"].(map[string]interface{})
	return list["id"].(string)
}

// createCategory creates a root category and returns its ID.
func (app *testApp) createCategory(t *testing.T, token, name string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/categories", fmt.Sprintf(`{"name":%q}`, name), token)
	if rec.Code != 201 {
		t.Fatalf("create category failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	category := result["category"].(map[string]interface{})
	return category["id"].(string)
}
