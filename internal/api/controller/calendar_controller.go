package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/bassista/go_fest/internal/calendar"
	"github.com/bassista/go_fest/internal/favorites"
	"github.com/bassista/go_fest/internal/logger"
	"github.com/gin-gonic/gin"
)

// FavoritesLister returns the favorites list.
type FavoritesLister interface {
	List(ctx context.Context) ([]favorites.Record, error)
}

// CalendarController exports favorites as an iCalendar feed.
type CalendarController struct {
	favorites FavoritesLister
	data      ScheduleData
	now       func() time.Time
}

func NewCalendarController(favs FavoritesLister, data ScheduleData) *CalendarController {
	return &CalendarController{favorites: favs, data: data, now: time.Now}
}

// FavoritesICS handles GET /calendar/favorites.ics.
func (cc *CalendarController) FavoritesICS(c *gin.Context) {
	favs, err := cc.favorites.List(c.Request.Context())
	if err != nil {
		logger.WithComponent("calendar-controller").Errorf("list favorites: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read favorites"})
		return
	}

	feed := calendar.FavoritesFeed(favs, cc.data.State().Events, cc.now())
	c.Header("Content-Disposition", `attachment; filename="favorites.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}
