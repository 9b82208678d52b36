package route

import (
	"time"

	"github.com/bassista/go_fest/internal/api/controller"
	"github.com/bassista/go_fest/internal/api/middleware"
	"github.com/bassista/go_fest/internal/config"
	"github.com/bassista/go_fest/internal/connectivity"
	"github.com/gin-gonic/gin"
)

// NewConfigurationRouter sets up configuration and connectivity routes.
func NewConfigurationRouter(timeout time.Duration, group *gin.RouterGroup, cfg *config.Config, monitor *connectivity.Monitor) {
	cc := controller.NewConfigurationController(cfg)
	nc := controller.NewConnectivityController(monitor)
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	group.GET("configuration", timeoutMiddleware, cc.GetConfiguration)
	group.GET("connectivity", timeoutMiddleware, nc.GetStatus)
}
