package routes

import (
	"net/http"
	"time"

	"github.com/edutrack/adminportal/internal/app/controllers"
	"github.com/edutrack/adminportal/internal/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	tenantController *controllers.TenantController,
	studentController *controllers.StudentController,
	authMiddleware *middleware.AuthMiddleware,
	metricsHandler http.Handler,
) {
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	// API version group
	v1 := router.Group("/api/v1")

	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	// --- Super admin routes ---
	admin := v1.Group("")
	admin.Use(authMiddleware.JWTAuth(), authMiddleware.SuperAdminRequired())

	tenants := admin.Group("/tenants")
	{
		tenants.POST("", tenantController.CreateTenant)
		tenants.GET("", tenantController.ListTenants)
		tenants.GET("/:tenantId", tenantController.GetTenant)
		tenants.PATCH("/:tenantId", tenantController.UpdateTenant)
		tenants.DELETE("/:tenantId", tenantController.DeleteTenant)
	}

	students := tenants.Group("/:tenantId/students")
	{
		students.POST("", studentController.CreateStudent)
		students.GET("", studentController.ListStudents)
		students.POST("/import", studentController.ImportStudents)
		students.GET("/duplicates", studentController.FindDuplicates)
		students.GET("/export", studentController.ExportStudents)
		students.GET("/:studentId", studentController.GetStudent)
		students.DELETE("/:studentId", studentController.DeleteStudent)
	}
}
