package app

import (
	"focustrack_backend/docs"
	"focustrack_backend/internal/config"
	"focustrack_backend/internal/middleware"
	"focustrack_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	router.GET("/api/health", c.health.HealthCheck)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerProgressRoutes(authGroup, c)
		a.registerStudyRoutes(authGroup, c)
		a.registerAccountRoutes(authGroup, c)
	}
}

// registerProgressRoutes 周报、学习分析与成绩
func (a *App) registerProgressRoutes(r *gin.RouterGroup, c *controllers) {
	progress := r.Group("/progress")
	{
		progress.GET("/weekly", c.progress.GetWeeklyReport)
		progress.POST("/weekly/generate", c.progress.GenerateWeeklyReport)
		progress.GET("/analytics", c.progress.GetAnalytics)
	}

	performance := r.Group("/performance")
	{
		performance.GET("/gpa-trend", c.performance.GetGpaTrend)
		performance.GET("/subjects", c.performance.GetSubjectPerformance)
		performance.GET("/results", c.performance.ListResults)
		performance.POST("/results", c.performance.CreateResult)
		performance.DELETE("/results/:id", c.performance.DeleteResult)
	}
}

// registerStudyRoutes 课程、学习计划与学习记录
func (a *App) registerStudyRoutes(r *gin.RouterGroup, c *controllers) {
	r.POST("/sessions/start", c.session.StartSession)
	r.PATCH("/sessions/:id/end", c.session.EndSession)

	planning := r.Group("/planning")
	{
		planning.GET("/plans", c.plan.ListPlans)
		planning.POST("/plans", c.plan.CreatePlan)
		planning.PATCH("/plans/:id/complete", c.plan.CompletePlan)
	}

	r.GET("/courses", c.course.ListCourses)
	r.POST("/courses", c.course.CreateCourse)
	r.DELETE("/courses/:id", c.course.DeleteCourse)
}

func (a *App) registerAccountRoutes(r *gin.RouterGroup, c *controllers) {
	settings := r.Group("/settings")
	{
		settings.GET("/preferences", c.settings.GetPreferences)
		settings.PUT("/preferences", c.settings.UpdatePreferences)
		settings.POST("/export-data", c.settings.ExportData)
	}

	notifications := r.Group("/notifications")
	{
		notifications.GET("", c.notification.ListNotifications)
		notifications.PATCH("/:id/read", c.notification.MarkRead)
		notifications.POST("/mark-all-read", c.notification.MarkAllRead)
	}
}
