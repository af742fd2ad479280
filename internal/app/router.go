package app

import (
	"uplook_backend/docs"
	"uplook_backend/internal/config"
	"uplook_backend/internal/middleware"
	"uplook_backend/internal/model"
	"uplook_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		a.registerUserRoutes(authGroup, c)
		a.registerWellnessRoutes(authGroup, c)
		a.registerPlanRoutes(authGroup, c)
		a.registerChatRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)

		auth := public.Group("/auth")
		{
			auth.POST("/register", c.auth.Register)
			auth.POST("/login", c.auth.Login)
		}

		public.GET("/users/goals", c.user.AvailableGoals)

		content := public.Group("/content")
		{
			content.GET("/explore", c.content.Explore)
			content.GET("/library", c.content.Library)
			content.GET("/categories", c.content.Categories)
			content.GET("/types", c.content.Types)
			content.GET("/:id", c.content.Detail)
		}

		public.GET("/streaks/badges/available", c.streak.AvailableBadges)
	}
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers) {
	users := rg.Group("/users/me")
	{
		users.GET("", c.user.GetProfile)
		users.PUT("", c.user.UpdateProfile)
		users.PUT("/onboard", c.user.Onboard)
		users.GET("/goals", c.user.MyGoals)
	}

	// 活动与连续打卡
	rg.POST("/activity/log", c.activity.LogActivity)
	rg.GET("/activity/logs", c.activity.ListLogs)
	rg.GET("/streaks/status", c.streak.Status)
	rg.POST("/streaks/log", c.activity.LogActivity)
	rg.GET("/streaks/badges", c.streak.UserBadges)

	// 首页
	rg.GET("/home/agenda", c.home.Agenda)
	rg.POST("/home/activity/:contentId/complete", c.activity.CompleteFromHome)
}

func (a *App) registerWellnessRoutes(rg *gin.RouterGroup, c *controllers) {
	journal := rg.Group("/journal")
	{
		journal.POST("", c.journal.Create)
		journal.GET("", c.journal.List)
		journal.GET("/:id", c.journal.Get)
		journal.DELETE("/:id", c.journal.Delete)
	}

	mood := rg.Group("/mood")
	{
		mood.POST("", c.mood.LogRating)
		mood.GET("", c.mood.List)
		mood.POST("/smartwatch-sync", c.mood.SyncWearable)
	}

	ai := rg.Group("/ai")
	{
		ai.GET("/wellness-score", c.wellness.WellnessScore)
		ai.GET("/insights", c.wellness.Insights)
		ai.GET("/trends/sentiment", c.wellness.SentimentTrend)
		ai.GET("/trends/mood", c.wellness.MoodTrend)
		ai.GET("/recommendations", c.wellness.Recommendations)
	}
}

func (a *App) registerPlanRoutes(rg *gin.RouterGroup, c *controllers) {
	plans := rg.Group("/plans")
	{
		plans.GET("", c.plan.List)
		plans.POST("", c.plan.Create)
		plans.POST("/:planId/cards", c.plan.AddCards)
		plans.GET("/:planId/due-cards", c.plan.DueCards)
		plans.GET("/:planId/analytics", c.plan.Analytics)
		plans.POST("/:planId/sessions", c.plan.StartSession)
		plans.POST("/sessions/:sessionId/reviews", c.plan.SubmitReview)
		plans.POST("/sessions/:sessionId/end", c.plan.EndSession)
	}
}

func (a *App) registerChatRoutes(rg *gin.RouterGroup, c *controllers) {
	chat := rg.Group("/chat")
	{
		chat.GET("/ws/:room", c.chat.HandleWS)
		chat.GET("/rooms", c.chat.MyRooms)
		chat.GET("/rooms/:room", c.chat.RoomInfo)
		chat.GET("/rooms/:room/messages", c.chat.History)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RoleMiddleware(model.RoleAdmin))
	{
		admin.POST("/content", c.content.Create)
		admin.PUT("/content/:id", c.content.Update)
		admin.DELETE("/content/:id", c.content.Delete)
		admin.POST("/content/upload", c.content.UploadMedia)

		admin.GET("/badges", c.admin.ListBadges)
		admin.POST("/badges", c.admin.CreateBadge)
		admin.DELETE("/badges/:id", c.admin.DeleteBadge)

		admin.GET("/analytics", c.admin.PlatformAnalytics)
	}
}
