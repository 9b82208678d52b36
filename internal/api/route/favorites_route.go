package route

import (
	"time"

	"github.com/bassista/go_fest/internal/api/controller"
	"github.com/bassista/go_fest/internal/api/middleware"
	"github.com/bassista/go_fest/internal/favorites"
	"github.com/gin-gonic/gin"
)

// NewFavoritesRouter sets up favorites routes and the favorites calendar feed.
func NewFavoritesRouter(timeout time.Duration, group *gin.RouterGroup, store *favorites.Store, data controller.ScheduleData) {
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	fc := controller.NewFavoritesController(store)
	group.GET("favorites", timeoutMiddleware, fc.AllFavorites)
	group.GET("favorites/:id", timeoutMiddleware, fc.GetFavorite)
	group.POST("favorite", timeoutMiddleware, fc.AddFavorite)
	group.DELETE("favorite/:id", timeoutMiddleware, fc.DeleteFavorite)
	group.POST("favorites/toggle", timeoutMiddleware, fc.ToggleFavorite)
	group.DELETE("favorites", timeoutMiddleware, fc.ClearFavorites)

	cc := controller.NewCalendarController(store, data)
	group.GET("calendar/favorites.ics", timeoutMiddleware, cc.FavoritesICS)
}
