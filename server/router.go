package server

import (
	"time"

	httpHandler "github.com/kvn3toj/beforenostr-sub004/interfaces/http"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/realtime"
	"github.com/kvn3toj/beforenostr-sub004/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var allowedOrigins = []string{
	"https://coomunity.app",
	"https://admin.coomunity.app",
	"http://localhost:4200",
	"http://localhost:5173",
}

func InitiateRouter(
	videoDurationHandler httpHandler.IVideoDurationHandler,
	durationHub *realtime.Hub,
	secretKey string,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", videoDurationHandler.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("api")
	api.Use(middleware.Auth(secretKey))

	videos := api.Group("/videos/duration")
	{
		videos.POST("/resolve", videoDurationHandler.Resolve)
		videos.POST("/recalculate-missing", videoDurationHandler.RecalculateMissing)
		videos.POST("/recalculate-all", videoDurationHandler.RecalculateAll)
		videos.GET("/runs", videoDurationHandler.ListRuns)
		videos.GET("/events", durationHub.Serve)
	}

	return router
}
