package controller

import (
	"context"
	"net/http"

	"github.com/bassista/go_fest/internal/changes"
	"github.com/bassista/go_fest/internal/logger"
	"github.com/gin-gonic/gin"
)

// ChangeCoordinator is the part of *changes.Coordinator the HTTP layer needs.
type ChangeCoordinator interface {
	RunChangeCheck(ctx context.Context) changes.Outcome
	NeedsRefresh() bool
	ClearNeedsRefresh()
	InFlight() bool
	Metadata(ctx context.Context) (changes.Metadata, error)
}

// ChangesStatus reports the coordinator flags and the persisted metadata.
type ChangesStatus struct {
	NeedsRefresh bool             `json:"needsRefresh"`
	InFlight     bool             `json:"inFlight"`
	Metadata     changes.Metadata `json:"metadata"`
}

type ChangesController struct {
	coordinator ChangeCoordinator
}

func NewChangesController(coordinator ChangeCoordinator) *ChangesController {
	return &ChangesController{coordinator: coordinator}
}

// Check handles POST /changes/check. Skips and failures are reported in the outcome body.
func (cc *ChangesController) Check(c *gin.Context) {
	logger.WithComponent("changes-controller").Debugf("POST /changes/check handler called")
	c.JSON(http.StatusOK, cc.coordinator.RunChangeCheck(c.Request.Context()))
}

// Status handles GET /changes/status.
func (cc *ChangesController) Status(c *gin.Context) {
	md, err := cc.coordinator.Metadata(c.Request.Context())
	if err != nil {
		logger.WithComponent("changes-controller").Errorf("read change-check metadata: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read change-check metadata"})
		return
	}
	c.JSON(http.StatusOK, ChangesStatus{
		NeedsRefresh: cc.coordinator.NeedsRefresh(),
		InFlight:     cc.coordinator.InFlight(),
		Metadata:     md,
	})
}

// ClearNeedsRefresh handles DELETE /changes/needs-refresh.
func (cc *ChangesController) ClearNeedsRefresh(c *gin.Context) {
	cc.coordinator.ClearNeedsRefresh()
	c.Status(http.StatusNoContent)
}
