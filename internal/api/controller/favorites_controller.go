package controller

import (
	"errors"
	"net/http"

	"github.com/bassista/go_fest/internal/favorites"
	"github.com/bassista/go_fest/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FavoritesController handles favorites endpoints. Plain list operations go through the
// generic CRUD controller.
type FavoritesController struct {
	store *favorites.Store
	crud  *CrudController[favorites.Record]
}

func NewFavoritesController(store *favorites.Store) *FavoritesController {
	return &FavoritesController{
		store: store,
		crud: &CrudController[favorites.Record]{
			Service:   &FavoritesCrudService{Store: store},
			Validator: &FavoritesCrudValidator{validator: validator.New()},
		},
	}
}

// AllFavorites handles GET /favorites.
func (fc *FavoritesController) AllFavorites(c *gin.Context) {
	logger.WithComponent("favorites-controller").Debugf("GET /favorites handler called")
	fc.crud.GetAll(c)
}

// GetFavorite handles GET /favorites/:id.
func (fc *FavoritesController) GetFavorite(c *gin.Context) {
	id := c.Param("id")
	rec, err := fc.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, favorites.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "favorite not found"})
			return
		}
		logger.WithComponent("favorites-controller").Errorf("get favorite %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read favorites"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// AddFavorite handles POST /favorite.
func (fc *FavoritesController) AddFavorite(c *gin.Context) {
	logger.WithComponent("favorites-controller").Debugf("POST /favorite handler called")
	fc.crud.CreateOrUpdate(c)
}

// DeleteFavorite handles DELETE /favorite/:id.
func (fc *FavoritesController) DeleteFavorite(c *gin.Context) {
	logger.WithComponent("favorites-controller").Debugf("DELETE /favorite/%s handler called", c.Param("id"))
	fc.crud.Delete(c)
}

// ToggleFavorite handles POST /favorites/toggle.
func (fc *FavoritesController) ToggleFavorite(c *gin.Context) {
	var rec favorites.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := fc.crud.Validator.Validate(rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, favorited, err := fc.store.Toggle(c.Request.Context(), rec)
	if err != nil {
		logger.WithComponent("favorites-controller").Errorf("toggle favorite %s: %v", rec.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update favorites"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": favorited, "favorites": list})
}

// ClearFavorites handles DELETE /favorites.
func (fc *FavoritesController) ClearFavorites(c *gin.Context) {
	if err := fc.store.Clear(c.Request.Context()); err != nil {
		logger.WithComponent("favorites-controller").Errorf("clear favorites: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear favorites"})
		return
	}
	c.Status(http.StatusNoContent)
}
