package route

import (
	"time"

	"github.com/bassista/go_fest/internal/api/controller"
	"github.com/bassista/go_fest/internal/api/middleware"
	"github.com/gin-gonic/gin"
)

func NewContentRouter(timeout time.Duration, group *gin.RouterGroup, source controller.ContentSource, favs controller.FavoriteIDs) {
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	cc := controller.NewContentController(source, favs)
	group.GET("announcements", timeoutMiddleware, cc.Announcements)
	group.GET("venues", timeoutMiddleware, cc.Venues)
}
