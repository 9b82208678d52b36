package route

import (
	"net/http"
	"os"

	"github.com/bassista/go_fest/internal/api/middleware"
	"github.com/bassista/go_fest/internal/app"
	"github.com/bassista/go_fest/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// SetupRoutes builds the HTTP engine for appCtx.
func SetupRoutes(appCtx *app.App, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	// Recovery sits outside Honeybadger so the re-raised panic still becomes a 500.
	r.Use(gin.LoggerWithWriter(log.Writer()), gin.Recovery())
	r.Use(middleware.CORSMiddleware(appCtx.Config.Server.CORSAllowedOrigins))
	r.Use(middleware.HoneybadgerMiddleware(os.Getenv("HONEYBADGER_API_KEY"), os.Getenv("GO_ENV"), log.WithField("component", "honeybadger")))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	publicRouter := r.Group("")

	// All Public APIs
	timeout := appCtx.Config.Server.RequestTimeout

	NewConfigurationRouter(timeout, publicRouter, appCtx.Config, appCtx.Monitor)
	NewScheduleRouter(timeout, publicRouter, appCtx.Schedule, appCtx.Config.Sync)
	NewChangesRouter(timeout, publicRouter, appCtx.Changes)
	NewFavoritesRouter(timeout, publicRouter, appCtx.Favorites, appCtx.Schedule)
	NewContentRouter(timeout, publicRouter, appCtx.Content, appCtx.Favorites)

	logger.WithComponent("route").Debugf("registered %d routes", len(r.Routes()))
	return r
}
