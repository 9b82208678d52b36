package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bassista/go_fest/internal/logger"
	"github.com/bassista/go_fest/internal/schedule"
	"github.com/bassista/go_fest/internal/scheduledata"
	"github.com/gin-gonic/gin"
)

// ScheduleData is the part of *scheduledata.Controller the HTTP layer needs.
type ScheduleData interface {
	State() scheduledata.State
	Refresh(ctx context.Context) (scheduledata.State, error)
}

// SectionsResponse is a rendered schedule view plus the flags the UI shows next to it.
type SectionsResponse struct {
	Mode          schedule.ViewMode  `json:"mode"`
	Sections      []schedule.Section `json:"sections"`
	LastUpdatedMs *int64             `json:"lastUpdatedMs"`
	IsStale       bool               `json:"isStale"`
	IsOnline      bool               `json:"isOnline"`
	RefreshError  string             `json:"refreshError,omitempty"`
}

// ScheduleController serves the schedule view-state and its presentation.
type ScheduleController struct {
	data          ScheduleData
	loc           *time.Location
	chronological bool
}

// NewScheduleController renders time sections in loc. chronological is the default order
// for time sections when the request does not pick one.
func NewScheduleController(data ScheduleData, loc *time.Location, chronological bool) *ScheduleController {
	if loc == nil {
		loc = time.Local
	}
	return &ScheduleController{data: data, loc: loc, chronological: chronological}
}

// GetState handles GET /schedule/state.
func (sc *ScheduleController) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, sc.data.State())
}

// GetSections handles GET /schedule/sections?mode=&q=&order=.
func (sc *ScheduleController) GetSections(c *gin.Context) {
	mode, err := schedule.ParseViewMode(c.Query("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chronological := sc.chronological
	switch c.Query("order") {
	case "":
	case "chronological":
		chronological = true
	case "alphabetical":
		chronological = false
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "order must be chronological or alphabetical"})
		return
	}

	st := sc.data.State()
	sections := schedule.BuildSections(st.Events, mode, c.Query("q"),
		schedule.WithLocation(sc.loc),
		schedule.WithChronologicalTimeSections(chronological),
	)
	c.JSON(http.StatusOK, SectionsResponse{
		Mode:          mode,
		Sections:      sections,
		LastUpdatedMs: st.LastUpdatedMs,
		IsStale:       st.IsStale,
		IsOnline:      st.IsOnline,
		RefreshError:  st.RefreshError,
	})
}

// Refresh handles POST /schedule/refresh. The body is the resulting state; a failed refresh
// still carries the cached events.
func (sc *ScheduleController) Refresh(c *gin.Context) {
	log := logger.WithComponent("schedule-controller")
	log.Debugf("POST /schedule/refresh handler called")

	st, err := sc.data.Refresh(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, st)
	case errors.Is(err, scheduledata.ErrOffline):
		c.JSON(http.StatusServiceUnavailable, st)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		log.Debugf("refresh abandoned: %v", err)
	default:
		c.JSON(http.StatusBadGateway, st)
	}
}
