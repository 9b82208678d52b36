package controller

import (
	"net/http"

	"github.com/bassista/go_fest/internal/connectivity"
	"github.com/gin-gonic/gin"
)

// ConnectivityStatus is the latest raw signal plus the derived verdict.
type ConnectivityStatus struct {
	Online bool                `json:"online"`
	Signal connectivity.Signal `json:"signal"`
}

type ConnectivityController struct {
	monitor *connectivity.Monitor
}

func NewConnectivityController(monitor *connectivity.Monitor) *ConnectivityController {
	return &ConnectivityController{monitor: monitor}
}

// GetStatus handles GET /connectivity.
func (cc *ConnectivityController) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, ConnectivityStatus{
		Online: cc.monitor.IsOnline(),
		Signal: cc.monitor.LastSignal(),
	})
}
