package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/bassista/go_fest/internal/announcements"
	"github.com/bassista/go_fest/internal/content"
	"github.com/bassista/go_fest/internal/logger"
	"github.com/bassista/go_fest/internal/venues"
	"github.com/gin-gonic/gin"
)

// ContentSource is the part of *content.Source the HTTP layer needs.
type ContentSource interface {
	Announcements(ctx context.Context) ([]announcements.Announcement, bool, error)
	Venues(ctx context.Context) ([]venues.Venue, bool, error)
}

// FavoriteIDs returns the favorited event ids.
type FavoriteIDs interface {
	IDs(ctx context.Context) (map[string]struct{}, error)
}

// ContentResponse wraps a content list with where it came from.
type ContentResponse[T any] struct {
	Items     []T  `json:"items"`
	FromCache bool `json:"fromCache"`
}

// ContentController serves announcements and venues.
type ContentController struct {
	source    ContentSource
	favorites FavoriteIDs
}

func NewContentController(source ContentSource, favorites FavoriteIDs) *ContentController {
	return &ContentController{source: source, favorites: favorites}
}

// Announcements handles GET /announcements: personalized against favorites, then sorted.
func (cc *ContentController) Announcements(c *gin.Context) {
	log := logger.WithComponent("content-controller")
	ctx := c.Request.Context()

	items, fromCache, err := cc.source.Announcements(ctx)
	if err != nil {
		writeContentError(c, "announcements", err)
		return
	}

	ids, err := cc.favorites.IDs(ctx)
	if err != nil {
		// unpersonalized is still useful
		log.Warnf("cannot read favorites for personalization: %v", err)
	}
	items = announcements.Sort(announcements.Personalize(items, ids))
	c.JSON(http.StatusOK, ContentResponse[announcements.Announcement]{Items: items, FromCache: fromCache})
}

// Venues handles GET /venues.
func (cc *ContentController) Venues(c *gin.Context) {
	items, fromCache, err := cc.source.Venues(c.Request.Context())
	if err != nil {
		writeContentError(c, "venues", err)
		return
	}
	c.JSON(http.StatusOK, ContentResponse[venues.Venue]{Items: items, FromCache: fromCache})
}

func writeContentError(c *gin.Context, what string, err error) {
	if errors.Is(err, content.ErrUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	logger.WithComponent("content-controller").Errorf("read %s: %v", what, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read " + what})
}
