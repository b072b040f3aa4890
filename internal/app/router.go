package app

import (
	"learning_streak_backend/docs"
	"learning_streak_backend/internal/config"
	"learning_streak_backend/internal/middleware"
	"learning_streak_backend/internal/model"
	"learning_streak_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		streak := authGroup.Group("/streak")
		{
			streak.POST("/checkin", c.streak.CheckIn)
			streak.POST("/activity", c.streak.RecordActivity)
			streak.GET("/stats", c.streak.GetStats)
			streak.GET("/message", c.streak.GetMessage)
			streak.GET("/weekly", c.streak.GetWeeklyPattern)
			streak.GET("/progress", c.streak.GetProgress)
			streak.GET("/today", c.streak.GetToday)
		}

		// 管理员接口
		admin := authGroup.Group("/admin")
		admin.Use(middleware.RoleMiddleware(model.Admin))
		{
			admin.DELETE("/streak/:userId", c.streak.Reset)
		}
	}
}
