package router

import (
	"net/http"

	"github.com/fittrack/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "fittrack_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger())

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", api.Register)
		auth.POST("/login", api.Login)
		auth.POST("/logout", api.Logout)
		auth.GET("/profile", api.AuthRequired(), api.Profile)
	}

	// 需要认证的接口
	protected := r.Group("")
	protected.Use(api.AuthRequired())
	{
		seances := protected.Group("/seances")
		seances.POST("", api.CreateSeance)
		seances.GET("", api.ListSeances)
		seances.GET("/:id", api.GetSeance)
		seances.PUT("/:id", api.UpdateSeance)
		seances.DELETE("/:id", api.DeleteSeance)

		stats := protected.Group("/statistics")
		stats.GET("/weekly", api.GetWeeklyStats)
		stats.GET("/monthly", api.GetMonthlyStats)
		stats.GET("/compare", api.CompareSeances)
		stats.GET("/calories-by-activity", api.GetCaloriesByActivity)

		goals := protected.Group("/goals")
		goals.POST("", api.CreateGoal)
		goals.GET("/active", api.GetActiveGoal)
		goals.GET("/history", api.GetGoalHistory)
		goals.DELETE("/active", api.DeleteActiveGoal)
		goals.GET("/check-progress", api.CheckGoalProgress)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})

	return r
}
