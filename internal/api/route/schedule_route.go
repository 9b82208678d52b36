package route

import (
	"time"

	"github.com/bassista/go_fest/internal/api/controller"
	"github.com/bassista/go_fest/internal/api/middleware"
	"github.com/bassista/go_fest/internal/config"
	"github.com/bassista/go_fest/internal/logger"
	"github.com/gin-gonic/gin"
)

func NewScheduleRouter(timeout time.Duration, group *gin.RouterGroup, data controller.ScheduleData, syncCfg config.SyncConfig) {
	loc, err := syncCfg.Location()
	if err != nil {
		// config validation rejects this; fall back rather than refuse to serve
		logger.WithComponent("route").Warnf("invalid time location %q, using local time: %v", syncCfg.TimeLocation, err)
		loc = time.Local
	}
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	sc := controller.NewScheduleController(data, loc, syncCfg.ChronologicalTimeSections)
	group.GET("schedule/state", timeoutMiddleware, sc.GetState)
	group.GET("schedule/sections", timeoutMiddleware, sc.GetSections)
	group.POST("schedule/refresh", timeoutMiddleware, sc.Refresh)
}
