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

	"kopilka/internal/handlers"
	"kopilka/internal/logger"
	"kopilka/internal/middleware"
	"kopilka/internal/models"
	"kopilka/internal/services"
	"kopilka/internal/validator"
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
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_foreign_keys=on", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.Category{},
		&models.Subcategory{},
		&models.Period{},
		&models.Plan{},
		&models.PlanHistory{},
		&models.Operation{},
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
	categoryService := services.NewCategoryService(db)
	periodService := services.NewPeriodService(db)
	planService := services.NewPlanService(db, services.DefaultPeriodPolicy{PreferredName: "Месяц"})
	subcategoryService := services.NewSubcategoryService(db, planService)
	operationService := services.NewOperationService(db)

	// Handlers
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	subcategoryHandler := handlers.NewSubcategoryHandler(subcategoryService, categoryService)
	periodHandler := handlers.NewPeriodHandler(periodService)
	planHandler := handlers.NewPlanHandler(planService)
	operationHandler := handlers.NewOperationHandler(operationService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.Create)
	categories.GET("", categoryHandler.List)
	categories.GET("/:id", categoryHandler.Get)
	categories.PUT("/:id", categoryHandler.Update)
	categories.DELETE("/:id", categoryHandler.Delete)

	subcategories := v1.Group("/subcategories")
	subcategories.POST("", subcategoryHandler.Create)
	subcategories.GET("", subcategoryHandler.List)
	subcategories.GET("/:id", subcategoryHandler.Get)
	subcategories.PUT("/:id", subcategoryHandler.Update)
	subcategories.DELETE("/:id", subcategoryHandler.Delete)
	subcategories.GET("/:id/plan", planHandler.GetBySubcategory)

	periods := v1.Group("/periods")
	periods.POST("", periodHandler.Create)
	periods.GET("", periodHandler.List)
	periods.GET("/:id", periodHandler.Get)

	plans := v1.Group("/plans")
	plans.POST("", planHandler.Create)
	plans.GET("", planHandler.List)
	plans.PUT("/:id", planHandler.Update)
	plans.GET("/:id/history", planHandler.History)
	plans.POST("/reconcile", planHandler.Reconcile)

	operations := v1.Group("/operations")
	operations.POST("", operationHandler.Create)
	operations.GET("", operationHandler.List)
	operations.GET("/:id", operationHandler.Get)
	operations.PUT("/:id", operationHandler.Update)
	operations.DELETE("/:id", operationHandler.Delete)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
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

// createCategory creates a category over HTTP and returns its id.
func (app *testApp) createCategory(t *testing.T, name, flowType string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"type":%q}`, name, flowType)
	rec := app.request("POST", "/api/v1/categories", body)
	if rec.Code != 201 {
		t.Fatalf("create category failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	category := result["category"].(map[string]interface{})
	return category["id"].(string)
}

// createPeriod creates a period over HTTP and returns its id.
func (app *testApp) createPeriod(t *testing.T, name string, periodCount int) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"period_count":%d}`, name, periodCount)
	rec := app.request("POST", "/api/v1/periods", body)
	if rec.Code != 201 && rec.Code != 200 {
		t.Fatalf("create period failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	period := result["period"].(map[string]interface{})
	return period["id"].(string)
}

// createSubcategory creates a subcategory over HTTP and returns its id.
func (app *testApp) createSubcategory(t *testing.T, categoryID, name string) string {
	t.Helper()
	body := fmt.Sprintf(`{"category_id":%q,"name":%q}`, categoryID, name)
	rec := app.request("POST", "/api/v1/subcategories", body)
	if rec.Code != 201 {
		t.Fatalf("create subcategory failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	subcategory := result["subcategory"].(map[string]interface{})
	return subcategory["id"].(string)
}
