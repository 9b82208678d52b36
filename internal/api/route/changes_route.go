package route

import (
	"time"

	"github.com/bassista/go_fest/internal/api/controller"
	"github.com/bassista/go_fest/internal/api/middleware"
	"github.com/gin-gonic/gin"
)

func NewChangesRouter(timeout time.Duration, group *gin.RouterGroup, coordinator controller.ChangeCoordinator) {
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	cc := controller.NewChangesController(coordinator)
	group.POST("changes/check", timeoutMiddleware, cc.Check)
	group.GET("changes/status", timeoutMiddleware, cc.Status)
	group.DELETE("changes/needs-refresh", timeoutMiddleware, cc.ClearNeedsRefresh)
}
